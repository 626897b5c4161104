// Package testutil builds in-memory fixtures for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
	"github.com/uniasistencia/backend/core/user"
	emailsvc "github.com/uniasistencia/backend/services/email"
	"github.com/uniasistencia/backend/services/lock"
	inmemdb "github.com/uniasistencia/backend/storage/database/inmem"
)

// Password is the password of every account created by the fixtures.
const Password = "Kx9#mQ2!vL"

// NewValidator returns a validator with every custom rule and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	teacher.InitValidators(validate, translator)
	administrator.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Env is a fully wired application over an in-memory store.
type Env struct {
	DB         *inmemdb.DB
	Validate   *validator.Validate
	Translator ut.Translator
	Mailer     *emailsvc.ConsoleServiceMock
	Clock      *Clock
	Location   *time.Location

	Teachers       *teacher.Service
	Students       *student.Service
	Administrators *administrator.Service
	Courses        *course.Service
	Schedules      *schedule.Service
	Attendance     *attendance.Service
	Users          *user.Service
	Configs        *notification.ConfigService
	History        *notification.HistoryService
	Dispatcher     *notification.Dispatcher
	Job            *notification.Job
}

// NewEnv wires every service; the job runs on env.Clock in time.UTC.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	account.HashCost = bcrypt.MinCost

	db := inmemdb.Open()
	loc := time.UTC
	logger := core.NopLogger{}

	env := &Env{
		DB:       db,
		Mailer:   emailsvc.NewConsoleServiceMock(core.Conf),
		Clock:    NewClock(time.Now().In(loc)),
		Location: loc,
	}
	env.Validate, env.Translator = NewValidator()

	teacherRepo := inmemdb.NewTeacherRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	adminRepo := inmemdb.NewAdministratorRepository(db)
	dir := account.NewDirectory(teacherRepo, studentRepo, adminRepo)

	env.Teachers = teacher.NewService(teacherRepo, dir)
	env.Students = student.NewService(studentRepo, dir)
	env.Administrators = administrator.NewService(adminRepo, dir)
	env.Courses = course.NewService(inmemdb.NewCourseRepository(db), env.Teachers)
	env.Schedules = schedule.NewService(inmemdb.NewScheduleRepository(db), env.Teachers, env.Courses)
	env.Users = user.NewService(env.Teachers, env.Students, env.Administrators)

	env.Configs = notification.NewConfigService(inmemdb.NewConfigRepository(db))
	env.History = notification.NewHistoryService(inmemdb.NewHistoryRepository(db), loc)
	env.Attendance = attendance.NewService(inmemdb.NewAttendanceRepository(db), env.Teachers, env.Courses, env.History, logger, loc)
	env.Dispatcher = notification.NewDispatcher(env.Mailer, env.Configs, env.History, env.Teachers, logger, nil, loc)
	env.Job = notification.NewJob(notification.JobDeps{
		Slots:          env.Schedules,
		Records:        env.Attendance,
		Administrators: env.Administrators,
		Configs:        env.Configs,
		Dispatcher:     env.Dispatcher,
		Watermarks:     inmemdb.NewWatermarkStore(db),
		Locker:         lock.NewLocal(),
		Logger:         logger,
		Location:       loc,
		Now:            env.Clock.Now,
	})
	return env
}

func boolPtr(b bool) *bool { return &b }

func CreateTeacher(t *testing.T, env *Env, name, email, nationalID string, active bool) teacher.Teacher {
	t.Helper()
	tch, err := env.Teachers.Create(context.Background(), teacher.NewTeacher{
		NationalID: nationalID,
		Name:       name,
		Email:      email,
		Password:   Password,
		Department: "Ingeniería",
		Active:     boolPtr(active),
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateStudent(t *testing.T, env *Env, name, email, number string) student.Student {
	t.Helper()
	s, err := env.Students.Create(context.Background(), student.NewStudent{
		Name:          name,
		StudentNumber: number,
		Email:         email,
		Career:        "Sistemas",
		Semester:      3,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateAdministrator(t *testing.T, env *Env, name, email string, active bool) administrator.Administrator {
	t.Helper()
	a, err := env.Administrators.Create(context.Background(), administrator.NewAdministrator{
		Name:     name,
		Email:    email,
		Password: Password,
		Position: "Coordinación",
		Active:   boolPtr(active),
	})
	if err != nil {
		t.Fatalf("CreateAdministrator() failed: %v", err)
	}
	return a
}

func CreateCourse(t *testing.T, env *Env, name, code, teacherID string) course.Course {
	t.Helper()
	c, err := env.Courses.Create(context.Background(), course.NewCourse{
		Name:      name,
		Code:      code,
		Credits:   4,
		TeacherID: teacherID,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateSlot(t *testing.T, env *Env, teacherID, courseID, day, start, end string) schedule.Slot {
	t.Helper()
	s, err := env.Schedules.Create(context.Background(), schedule.NewSlot{
		TeacherID: teacherID,
		CourseID:  courseID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return s
}

// CreateRecord stores an attendance record of day (YYYY-MM-DD) with the given status.
func CreateRecord(t *testing.T, env *Env, teacherID, courseID, day, start, end string, status attendance.Status) attendance.Record {
	t.Helper()
	r, err := env.Attendance.Create(context.Background(), attendance.NewRecord{
		TeacherID: teacherID,
		CourseID:  courseID,
		Date:      day,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return r
}
