package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
)

type Teacher struct {
	ID           string       `json:"id"`
	NationalID   string       `json:"national_id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash []byte       `json:"-"`
	Department   string       `json:"department"`
	Specialty    string       `json:"specialty,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Role         account.Role `json:"role"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := account.HashPassword(pwd)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t Teacher) CheckPassword(pwd string) error {
	return account.CheckPassword(t.PasswordHash, pwd)
}

type NewTeacher struct {
	NationalID string `json:"national_id" validate:"required,digits,min=7"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Department string `json:"department" validate:"required"`
	Specialty  string `json:"specialty"`
	Phone      string `json:"phone"`
	Active     *bool  `json:"active"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.NationalID = core.CleanString(nt.NationalID)
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Department = core.CleanString(nt.Department)
	nt.Specialty = core.CleanString(nt.Specialty)
	nt.Phone = core.CleanString(nt.Phone)
	return validate.Struct(nt)
}

// UpdateTeacher only changes the fields that are set.
type UpdateTeacher struct {
	NationalID *string `json:"national_id" validate:"omitempty,digits,min=7"`
	Name       *string `json:"name" validate:"omitempty,min=1"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   *string `json:"password"`
	Department *string `json:"department" validate:"omitempty,min=1"`
	Specialty  *string `json:"specialty"`
	Phone      *string `json:"phone"`
	Active     *bool   `json:"active"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	cleanPtr(ut.NationalID)
	cleanPtr(ut.Name)
	cleanPtr(ut.Department)
	cleanPtr(ut.Specialty)
	cleanPtr(ut.Phone)
	if ut.Email != nil {
		*ut.Email = core.CleanString(*ut.Email, true /* lower */)
	}
	return validate.Struct(ut)
}

func cleanPtr(s *string) {
	if s != nil {
		*s = core.CleanString(*s)
	}
}
