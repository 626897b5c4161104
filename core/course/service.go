package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/teacher"
)

var ErrNotFound = core.NewNotFoundError("course")

type Repository interface {
	Create(ctx context.Context, c Course) (Course, error)
	List(ctx context.Context, filter Filter) ([]Course, error)
	Get(ctx context.Context, id string) (Course, error)
	Update(ctx context.Context, c Course) (Course, error)
	Delete(ctx context.Context, id string) error
}

// Teachers resolves teacher references.
type Teachers interface {
	Get(ctx context.Context, id string) (teacher.Teacher, error)
}

type Service struct {
	repo     Repository
	teachers Teachers
	nowFunc  func() time.Time
}

func NewService(repo Repository, teachers Teachers) *Service {
	return &Service{repo: repo, teachers: teachers, nowFunc: time.Now}
}

func (svc *Service) resolveTeacher(ctx context.Context, id string) (*teacher.Teacher, error) {
	t, err := svc.teachers.Get(ctx, id)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "teacher does not exist"})
		}
		return nil, err
	}
	return &t, nil
}

// populate attaches the referenced teacher; dangling references are left empty.
func (svc *Service) populate(ctx context.Context, courses ...*Course) error {
	cache := make(map[string]*teacher.Teacher)
	for _, c := range courses {
		if t, ok := cache[c.TeacherID]; ok {
			c.Teacher = t
			continue
		}
		t, err := svc.teachers.Get(ctx, c.TeacherID)
		if err != nil && errors.Cause(err) != teacher.ErrNotFound {
			return errors.Wrap(err, "populating course teacher")
		}
		if err == nil {
			c.Teacher = &t
		}
		cache[c.TeacherID] = c.Teacher
	}
	return nil
}

// Create stores a new course; data must be validated and the teacher must exist.
func (svc *Service) Create(ctx context.Context, data NewCourse) (Course, error) {
	t, err := svc.resolveTeacher(ctx, data.TeacherID)
	if err != nil {
		return Course{}, err
	}

	capacity := data.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	now := svc.nowFunc().UTC()
	c, err := svc.repo.Create(ctx, Course{
		Name:         data.Name,
		Code:         data.Code,
		Description:  data.Description,
		Credits:      data.Credits,
		TeacherID:    data.TeacherID,
		ScheduleText: data.ScheduleText,
		Room:         data.Room,
		Capacity:     capacity,
		Active:       data.Active == nil || *data.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	c.Teacher = t
	return c, nil
}

func (svc *Service) List(ctx context.Context, filter Filter) ([]Course, error) {
	courses, err := svc.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}
	ptrs := make([]*Course, len(courses))
	for i := range courses {
		ptrs[i] = &courses[i]
	}
	if err := svc.populate(ctx, ptrs...); err != nil {
		return nil, err
	}
	return courses, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	c, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Course{}, errors.Wrap(err, "getting course")
	}
	if err := svc.populate(ctx, &c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (svc *Service) Update(ctx context.Context, id string, data UpdateCourse) (Course, error) {
	c, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Course{}, errors.Wrap(err, "getting course")
	}
	if data.TeacherID != nil && *data.TeacherID != c.TeacherID {
		if _, err := svc.resolveTeacher(ctx, *data.TeacherID); err != nil {
			return Course{}, err
		}
		c.TeacherID = *data.TeacherID
	}
	if data.Name != nil {
		c.Name = *data.Name
	}
	if data.Code != nil {
		c.Code = *data.Code
	}
	if data.Description != nil {
		c.Description = *data.Description
	}
	if data.Credits != nil {
		c.Credits = *data.Credits
	}
	if data.ScheduleText != nil {
		c.ScheduleText = *data.ScheduleText
	}
	if data.Room != nil {
		c.Room = *data.Room
	}
	if data.Capacity != nil {
		c.Capacity = *data.Capacity
	}
	if data.Active != nil {
		c.Active = *data.Active
	}
	c.UpdatedAt = svc.nowFunc().UTC()

	c, err = svc.repo.Update(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	if err := svc.populate(ctx, &c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting course")
}
