package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/teacher"
)

var ErrNotFound = core.NewNotFoundError("schedule")

type Repository interface {
	Create(ctx context.Context, s Slot) (Slot, error)
	List(ctx context.Context, filter Filter) ([]Slot, error)
	Get(ctx context.Context, id string) (Slot, error)
	Update(ctx context.Context, s Slot) (Slot, error)
	Delete(ctx context.Context, id string) error
}

type (
	Teachers interface {
		Get(ctx context.Context, id string) (teacher.Teacher, error)
	}
	Courses interface {
		Get(ctx context.Context, id string) (course.Course, error)
	}
)

type Service struct {
	repo     Repository
	teachers Teachers
	courses  Courses
	nowFunc  func() time.Time
}

func NewService(repo Repository, teachers Teachers, courses Courses) *Service {
	return &Service{repo: repo, teachers: teachers, courses: courses, nowFunc: time.Now}
}

func (svc *Service) checkReferences(ctx context.Context, teacherID, courseID string) error {
	var fields []core.FieldError
	if teacherID != "" {
		if _, err := svc.teachers.Get(ctx, teacherID); err != nil {
			if errors.Cause(err) != teacher.ErrNotFound {
				return err
			}
			fields = append(fields, core.FieldError{Field: "teacher_id", Error: "teacher does not exist"})
		}
	}
	if courseID != "" {
		if _, err := svc.courses.Get(ctx, courseID); err != nil {
			if errors.Cause(err) != course.ErrNotFound {
				return err
			}
			fields = append(fields, core.FieldError{Field: "course_id", Error: "course does not exist"})
		}
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// populate attaches the referenced teacher and course; dangling references are left empty.
func (svc *Service) populate(ctx context.Context, slots []Slot) error {
	teachers := make(map[string]*teacher.Teacher)
	courses := make(map[string]*course.Course)
	for i := range slots {
		s := &slots[i]

		t, ok := teachers[s.TeacherID]
		if !ok {
			found, err := svc.teachers.Get(ctx, s.TeacherID)
			if err != nil && errors.Cause(err) != teacher.ErrNotFound {
				return errors.Wrap(err, "populating slot teacher")
			}
			if err == nil {
				t = &found
			}
			teachers[s.TeacherID] = t
		}
		s.Teacher = t

		c, ok := courses[s.CourseID]
		if !ok {
			found, err := svc.courses.Get(ctx, s.CourseID)
			if err != nil && errors.Cause(err) != course.ErrNotFound {
				return errors.Wrap(err, "populating slot course")
			}
			if err == nil {
				c = &found
			}
			courses[s.CourseID] = c
		}
		s.Course = c
	}
	return nil
}

// Create stores a new slot; data must be validated and its references must exist.
func (svc *Service) Create(ctx context.Context, data NewSlot) (Slot, error) {
	if err := svc.checkReferences(ctx, data.TeacherID, data.CourseID); err != nil {
		return Slot{}, err
	}

	now := svc.nowFunc().UTC()
	s, err := svc.repo.Create(ctx, Slot{
		TeacherID: data.TeacherID,
		CourseID:  data.CourseID,
		DayOfWeek: data.DayOfWeek,
		StartTime: data.StartTime,
		EndTime:   data.EndTime,
		Room:      data.Room,
		Active:    data.Active == nil || *data.Active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Slot{}, errors.Wrap(err, "creating slot")
	}
	return svc.populateOne(ctx, s)
}

func (svc *Service) list(ctx context.Context, filter Filter) ([]Slot, error) {
	slots, err := svc.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing slots")
	}
	if err := svc.populate(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (svc *Service) populateOne(ctx context.Context, s Slot) (Slot, error) {
	slots := []Slot{s}
	if err := svc.populate(ctx, slots); err != nil {
		return Slot{}, err
	}
	return slots[0], nil
}

func (svc *Service) List(ctx context.Context) ([]Slot, error) {
	return svc.list(ctx, Filter{})
}

func (svc *Service) ListByTeacher(ctx context.Context, teacherID string) ([]Slot, error) {
	return svc.list(ctx, Filter{TeacherID: teacherID})
}

// ListActiveForDay returns the active slots held on the named weekday.
func (svc *Service) ListActiveForDay(ctx context.Context, day string) ([]Slot, error) {
	return svc.list(ctx, Filter{DayOfWeek: NormalizeWeekday(day), ActiveOnly: true})
}

func (svc *Service) Get(ctx context.Context, id string) (Slot, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Slot{}, errors.Wrap(err, "getting slot")
	}
	return svc.populateOne(ctx, s)
}

func (svc *Service) Update(ctx context.Context, id string, data UpdateSlot) (Slot, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Slot{}, errors.Wrap(err, "getting slot")
	}

	var teacherID, courseID string
	if data.TeacherID != nil && *data.TeacherID != s.TeacherID {
		teacherID = *data.TeacherID
	}
	if data.CourseID != nil && *data.CourseID != s.CourseID {
		courseID = *data.CourseID
	}
	if err := svc.checkReferences(ctx, teacherID, courseID); err != nil {
		return Slot{}, err
	}

	if data.TeacherID != nil {
		s.TeacherID = *data.TeacherID
	}
	if data.CourseID != nil {
		s.CourseID = *data.CourseID
	}
	if data.DayOfWeek != nil {
		s.DayOfWeek = *data.DayOfWeek
	}
	if data.StartTime != nil {
		s.StartTime = *data.StartTime
	}
	if data.EndTime != nil {
		s.EndTime = *data.EndTime
	}
	if !validTimeRange(s.StartTime, s.EndTime) {
		return Slot{}, core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: timeRangeText})
	}
	if data.Room != nil {
		s.Room = *data.Room
	}
	if data.Active != nil {
		s.Active = *data.Active
	}
	s.UpdatedAt = svc.nowFunc().UTC()

	s, err = svc.repo.Update(ctx, s)
	if err != nil {
		return Slot{}, errors.Wrap(err, "updating slot")
	}
	return svc.populateOne(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting slot")
}
