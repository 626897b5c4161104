package administrator

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
)

type Administrator struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash []byte       `json:"-"`
	Position     string       `json:"position,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Role         account.Role `json:"role"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (a *Administrator) SetPassword(pwd string) error {
	hash, err := account.HashPassword(pwd)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a Administrator) CheckPassword(pwd string) error {
	return account.CheckPassword(a.PasswordHash, pwd)
}

type NewAdministrator struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Position string `json:"position"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`
}

func (na *NewAdministrator) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Position = core.CleanString(na.Position)
	na.Phone = core.CleanString(na.Phone)
	return validate.Struct(na)
}

// UpdateAdministrator only changes the fields that are set.
type UpdateAdministrator struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password"`
	Position *string `json:"position"`
	Phone    *string `json:"phone"`
	Active   *bool   `json:"active"`
}

func (ua *UpdateAdministrator) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ua.Name, ua.Position, ua.Phone} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if ua.Email != nil {
		*ua.Email = core.CleanString(*ua.Email, true /* lower */)
	}
	return validate.Struct(ua)
}
