package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/teacher"
)

const DefaultCapacity = 30

type Course struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	Description  string           `json:"description,omitempty"`
	Credits      int              `json:"credits"`
	TeacherID    string           `json:"teacher_id"`
	Teacher      *teacher.Teacher `json:"teacher,omitempty"`
	ScheduleText string           `json:"schedule_text,omitempty"`
	Room         string           `json:"room,omitempty"`
	Capacity     int              `json:"capacity"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type NewCourse struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Description  string `json:"description"`
	Credits      int    `json:"credits" validate:"min=0"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	ScheduleText string `json:"schedule_text"`
	Room         string `json:"room"`
	Capacity     int    `json:"capacity" validate:"min=0"`
	Active       *bool  `json:"active"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Description = core.CleanString(nc.Description)
	nc.TeacherID = core.CleanString(nc.TeacherID)
	nc.ScheduleText = core.CleanString(nc.ScheduleText)
	nc.Room = core.CleanString(nc.Room)
	return validate.Struct(nc)
}

// UpdateCourse only changes the fields that are set.
type UpdateCourse struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Code         *string `json:"code" validate:"omitempty,min=1"`
	Description  *string `json:"description"`
	Credits      *int    `json:"credits" validate:"omitempty,min=0"`
	TeacherID    *string `json:"teacher_id" validate:"omitempty,min=1"`
	ScheduleText *string `json:"schedule_text"`
	Room         *string `json:"room"`
	Capacity     *int    `json:"capacity" validate:"omitempty,min=1"`
	Active       *bool   `json:"active"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.Name, uc.Code, uc.Description, uc.TeacherID, uc.ScheduleText, uc.Room} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(uc)
}

type Filter struct {
	TeacherID string `query:"teacher"`
}
