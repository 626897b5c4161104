package inmemdb

import (
	"context"

	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/schedule"
)

type courseRepository struct {
	db *table[course.Course]
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.courses}
}

func (repo *courseRepository) Create(_ context.Context, c course.Course) (course.Course, error) {
	c.ID = newID()
	c.Teacher = nil
	repo.db.insert(c.ID, c)
	return c, nil
}

func (repo *courseRepository) List(_ context.Context, filter course.Filter) ([]course.Course, error) {
	return repo.db.filter(func(c course.Course) bool {
		return filter.TeacherID == "" || c.TeacherID == filter.TeacherID
	}), nil
}

func (repo *courseRepository) Get(_ context.Context, id string) (course.Course, error) {
	if c, ok := repo.db.get(id); ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) Update(_ context.Context, c course.Course) (course.Course, error) {
	c.Teacher = nil
	if !repo.db.put(c.ID, c) {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo *courseRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return course.ErrNotFound
	}
	return nil
}

type scheduleRepository struct {
	db *table[schedule.Slot]
}

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedules}
}

func (repo *scheduleRepository) Create(_ context.Context, s schedule.Slot) (schedule.Slot, error) {
	s.ID = newID()
	s.Teacher, s.Course = nil, nil
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *scheduleRepository) List(_ context.Context, filter schedule.Filter) ([]schedule.Slot, error) {
	return repo.db.filter(func(s schedule.Slot) bool {
		return (filter.TeacherID == "" || s.TeacherID == filter.TeacherID) &&
			(filter.DayOfWeek == "" || s.DayOfWeek == filter.DayOfWeek) &&
			(!filter.ActiveOnly || s.Active)
	}), nil
}

func (repo *scheduleRepository) Get(_ context.Context, id string) (schedule.Slot, error) {
	if s, ok := repo.db.get(id); ok {
		return s, nil
	}
	return schedule.Slot{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) Update(_ context.Context, s schedule.Slot) (schedule.Slot, error) {
	s.Teacher, s.Course = nil, nil
	if !repo.db.put(s.ID, s) {
		return schedule.Slot{}, schedule.ErrNotFound
	}
	return s, nil
}

func (repo *scheduleRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return schedule.ErrNotFound
	}
	return nil
}

type attendanceRepository struct {
	db *table[attendance.Record]
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) Create(_ context.Context, r attendance.Record) (attendance.Record, error) {
	r.ID = newID()
	r.Teacher, r.Course = nil, nil
	r.PresentStudents = append([]string{}, r.PresentStudents...)
	repo.db.insert(r.ID, r)
	return r, nil
}

func (repo *attendanceRepository) List(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	return repo.db.filter(func(r attendance.Record) bool {
		return (filter.TeacherID == "" || r.TeacherID == filter.TeacherID) &&
			(filter.CourseID == "" || r.CourseID == filter.CourseID) &&
			(filter.From.IsZero() || !r.Date.Before(filter.From)) &&
			(filter.To.IsZero() || r.Date.Before(filter.To))
	}), nil
}

func (repo *attendanceRepository) Get(_ context.Context, id string) (attendance.Record, error) {
	if r, ok := repo.db.get(id); ok {
		return r, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) Update(_ context.Context, r attendance.Record) (attendance.Record, error) {
	r.Teacher, r.Course = nil, nil
	r.PresentStudents = append([]string{}, r.PresentStudents...)
	if !repo.db.put(r.ID, r) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return r, nil
}

func (repo *attendanceRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return attendance.ErrNotFound
	}
	return nil
}
