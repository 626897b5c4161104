package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/teacher"
)

var ErrNotFound = core.NewNotFoundError("attendance record")

type Repository interface {
	Create(ctx context.Context, r Record) (Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id string) error
}

type (
	Teachers interface {
		Get(ctx context.Context, id string) (teacher.Teacher, error)
	}
	Courses interface {
		Get(ctx context.Context, id string) (course.Course, error)
	}

	// FinalizeHook is told about every finalized record.
	FinalizeHook interface {
		AttendanceFinalized(ctx context.Context, r Record) error
	}
)

type Service struct {
	repo     Repository
	teachers Teachers
	courses  Courses
	hook     FinalizeHook
	logger   core.Logger
	loc      *time.Location
	nowFunc  func() time.Time
}

// NewService returns an attendance Service; dates are interpreted in loc.
func NewService(repo Repository, teachers Teachers, courses Courses, hook FinalizeHook, logger core.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:     repo,
		teachers: teachers,
		courses:  courses,
		hook:     hook,
		logger:   logger,
		loc:      loc,
		nowFunc:  time.Now,
	}
}

func (svc *Service) parseDate(field, s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, svc.loc)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "date must be formatted as YYYY-MM-DD"})
	}
	return d, nil
}

func (svc *Service) checkReferences(ctx context.Context, teacherID, courseID string) error {
	var fields []core.FieldError
	if _, err := svc.teachers.Get(ctx, teacherID); err != nil {
		if errors.Cause(err) != teacher.ErrNotFound {
			return err
		}
		fields = append(fields, core.FieldError{Field: "teacher_id", Error: "teacher does not exist"})
	}
	if _, err := svc.courses.Get(ctx, courseID); err != nil {
		if errors.Cause(err) != course.ErrNotFound {
			return err
		}
		fields = append(fields, core.FieldError{Field: "course_id", Error: "course does not exist"})
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

func (svc *Service) populate(ctx context.Context, records []Record) error {
	teachers := make(map[string]*teacher.Teacher)
	courses := make(map[string]*course.Course)
	for i := range records {
		r := &records[i]

		t, ok := teachers[r.TeacherID]
		if !ok {
			found, err := svc.teachers.Get(ctx, r.TeacherID)
			if err != nil && errors.Cause(err) != teacher.ErrNotFound {
				return errors.Wrap(err, "populating record teacher")
			}
			if err == nil {
				t = &found
			}
			teachers[r.TeacherID] = t
		}
		r.Teacher = t

		c, ok := courses[r.CourseID]
		if !ok {
			found, err := svc.courses.Get(ctx, r.CourseID)
			if err != nil && errors.Cause(err) != course.ErrNotFound {
				return errors.Wrap(err, "populating record course")
			}
			if err == nil {
				c = &found
			}
			courses[r.CourseID] = c
		}
		r.Course = c
	}
	return nil
}

func (svc *Service) populateOne(ctx context.Context, r Record) (Record, error) {
	records := []Record{r}
	if err := svc.populate(ctx, records); err != nil {
		return Record{}, err
	}
	return records[0], nil
}

// Create stores a new record. Only one record may exist per teacher, course and date.
func (svc *Service) Create(ctx context.Context, data NewRecord) (Record, error) {
	date, err := svc.parseDate("date", data.Date)
	if err != nil {
		return Record{}, err
	}
	if err := svc.checkReferences(ctx, data.TeacherID, data.CourseID); err != nil {
		return Record{}, err
	}

	if err := svc.checkDayFree(ctx, data.TeacherID, data.CourseID, date, ""); err != nil {
		return Record{}, err
	}

	status := data.Status
	if status == "" {
		status = StatusPending
	}
	present := data.PresentStudents
	if present == nil {
		present = []string{}
	}
	now := svc.nowFunc().UTC()
	r, err := svc.repo.Create(ctx, Record{
		TeacherID:       data.TeacherID,
		CourseID:        data.CourseID,
		Date:            date,
		StartTime:       data.StartTime,
		EndTime:         data.EndTime,
		Status:          status,
		PresentStudents: present,
		Topic:           data.Topic,
		TotalStudents:   data.TotalStudents,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "creating record")
	}
	return svc.populateOne(ctx, r)
}

// checkDayFree fails with a conflict when another record than excludeID
// already exists for the teacher and course on date.
func (svc *Service) checkDayFree(ctx context.Context, teacherID, courseID string, date time.Time, excludeID string) error {
	existing, err := svc.repo.List(ctx, Filter{
		TeacherID: teacherID,
		CourseID:  courseID,
		From:      date,
		To:        date.AddDate(0, 0, 1),
	})
	if err != nil {
		return errors.Wrap(err, "looking up records for the day")
	}
	for _, r := range existing {
		if r.ID != excludeID {
			return core.NewConflictError("date", date.Format(dateLayout))
		}
	}
	return nil
}

func (svc *Service) list(ctx context.Context, filter Filter) ([]Record, error) {
	records, err := svc.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing records")
	}
	if err := svc.populate(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (svc *Service) List(ctx context.Context) ([]Record, error) {
	return svc.list(ctx, Filter{})
}

func (svc *Service) ListByTeacher(ctx context.Context, teacherID string) ([]Record, error) {
	return svc.list(ctx, Filter{TeacherID: teacherID})
}

func (svc *Service) ListByCourse(ctx context.Context, courseID string) ([]Record, error) {
	return svc.list(ctx, Filter{CourseID: courseID})
}

// FindForDay returns the authoritative record of a class on day's calendar date:
// a finalized record wins over pending ones, otherwise the latest created.
func (svc *Service) FindForDay(ctx context.Context, teacherID, courseID string, day time.Time) (Record, error) {
	start := core.StartOfDay(day.In(svc.loc))
	records, err := svc.repo.List(ctx, Filter{
		TeacherID: teacherID,
		CourseID:  courseID,
		From:      start,
		To:        start.AddDate(0, 0, 1),
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "listing records for the day")
	}
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	best := records[0]
	for _, r := range records[1:] {
		if best.Status != StatusFinalized && (r.Status == StatusFinalized || r.CreatedAt.After(best.CreatedAt)) {
			best = r
		}
	}
	return best, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	r, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Record{}, errors.Wrap(err, "getting record")
	}
	return svc.populateOne(ctx, r)
}

func (svc *Service) Update(ctx context.Context, id string, data UpdateRecord) (Record, error) {
	r, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Record{}, errors.Wrap(err, "getting record")
	}
	if data.Date != nil {
		if r.Date, err = svc.parseDate("date", *data.Date); err != nil {
			return Record{}, err
		}
		if err := svc.checkDayFree(ctx, r.TeacherID, r.CourseID, r.Date, r.ID); err != nil {
			return Record{}, err
		}
	}
	if data.StartTime != nil {
		r.StartTime = *data.StartTime
	}
	if data.EndTime != nil {
		r.EndTime = *data.EndTime
	}
	if data.Status != nil {
		r.Status = *data.Status
	}
	if data.PresentStudents != nil {
		r.PresentStudents = *data.PresentStudents
	}
	if data.Topic != nil {
		r.Topic = *data.Topic
	}
	if data.TotalStudents != nil {
		r.TotalStudents = *data.TotalStudents
	}
	r.UpdatedAt = svc.nowFunc().UTC()

	r, err = svc.repo.Update(ctx, r)
	if err != nil {
		return Record{}, errors.Wrap(err, "updating record")
	}
	return svc.populateOne(ctx, r)
}

// Finalize marks the record as finalized with exactly the given present students.
// The history entry written afterwards is best effort: its failure is only logged.
func (svc *Service) Finalize(ctx context.Context, id string, presentStudents []string) (Record, error) {
	r, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Record{}, errors.Wrap(err, "getting record")
	}
	if presentStudents == nil {
		presentStudents = []string{}
	}
	r.Status = StatusFinalized
	r.PresentStudents = presentStudents
	r.UpdatedAt = svc.nowFunc().UTC()

	r, err = svc.repo.Update(ctx, r)
	if err != nil {
		return Record{}, errors.Wrap(err, "finalizing record")
	}
	r, err = svc.populateOne(ctx, r)
	if err != nil {
		return Record{}, err
	}

	if svc.hook != nil {
		if err := svc.hook.AttendanceFinalized(ctx, r); err != nil {
			svc.logger.Error(fmt.Sprintf("recording finalized attendance %s", r.ID), errors.Wrap(err, "attendance finalize hook"))
		}
	}
	return r, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting record")
}
