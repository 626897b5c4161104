package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
)

type Student struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StudentNumber string    `json:"student_number"`
	Email         string    `json:"email"`
	Career        string    `json:"career"`
	Semester      int       `json:"semester"`
	Phone         string    `json:"phone,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	StudentNumber string `json:"student_number" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Career        string `json:"career" validate:"required"`
	Semester      int    `json:"semester" validate:"required,min=1"`
	Phone         string `json:"phone"`
	Active        *bool  `json:"active"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Career = core.CleanString(ns.Career)
	ns.Phone = core.CleanString(ns.Phone)
	return validate.Struct(ns)
}

// UpdateStudent only changes the fields that are set.
type UpdateStudent struct {
	Name          *string `json:"name" validate:"omitempty,min=1"`
	StudentNumber *string `json:"student_number" validate:"omitempty,min=1"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Career        *string `json:"career" validate:"omitempty,min=1"`
	Semester      *int    `json:"semester" validate:"omitempty,min=1"`
	Phone         *string `json:"phone"`
	Active        *bool   `json:"active"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	for _, s := range []*string{us.Name, us.StudentNumber, us.Career, us.Phone} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if us.Email != nil {
		*us.Email = core.CleanString(*us.Email, true /* lower */)
	}
	return validate.Struct(us)
}
