package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/teacher"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFinalized Status = "finalized"
)

const dateLayout = "2006-01-02"

// Record is the occurrence of a class on a given date.
type Record struct {
	ID              string           `json:"id"`
	TeacherID       string           `json:"teacher_id"`
	Teacher         *teacher.Teacher `json:"teacher,omitempty"`
	CourseID        string           `json:"course_id"`
	Course          *course.Course   `json:"course,omitempty"`
	Date            time.Time        `json:"date"`
	StartTime       string           `json:"start_time"`
	EndTime         string           `json:"end_time"`
	Status          Status           `json:"status"`
	PresentStudents []string         `json:"present_students"`
	Topic           string           `json:"topic,omitempty"`
	TotalStudents   int              `json:"total_students"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type NewRecord struct {
	TeacherID       string   `json:"teacher_id" validate:"required"`
	CourseID        string   `json:"course_id" validate:"required"`
	Date            string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string   `json:"start_time" validate:"required,hhmm"`
	EndTime         string   `json:"end_time" validate:"required,hhmm"`
	Status          Status   `json:"status" validate:"omitempty,oneof=pending finalized"`
	PresentStudents []string `json:"present_students" validate:"dive,required,objectid"`
	Topic           string   `json:"topic"`
	TotalStudents   int      `json:"total_students" validate:"min=0"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.TeacherID = core.CleanString(nr.TeacherID)
	nr.CourseID = core.CleanString(nr.CourseID)
	nr.Date = core.CleanString(nr.Date)
	nr.StartTime = core.CleanString(nr.StartTime)
	nr.EndTime = core.CleanString(nr.EndTime)
	nr.Topic = core.CleanString(nr.Topic)
	return validate.Struct(nr)
}

// UpdateRecord only changes the fields that are set.
type UpdateRecord struct {
	Date            *string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime       *string   `json:"start_time" validate:"omitempty,hhmm"`
	EndTime         *string   `json:"end_time" validate:"omitempty,hhmm"`
	Status          *Status   `json:"status" validate:"omitempty,oneof=pending finalized"`
	PresentStudents *[]string `json:"present_students" validate:"omitempty,dive,required,objectid"`
	Topic           *string   `json:"topic"`
	TotalStudents   *int      `json:"total_students" validate:"omitempty,min=0"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ur.Date, ur.StartTime, ur.EndTime, ur.Topic} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(ur)
}

// Finalize is the payload of a finalize (register attendance) request.
type Finalize struct {
	PresentStudents []string `json:"present_students" validate:"dive,required,objectid"`
}

type Filter struct {
	TeacherID string
	CourseID  string
	From, To  time.Time // [From, To) over Date, when set
}
