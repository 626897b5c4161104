package administrator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core/account"
)

func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(administratorStructValidation, NewAdministrator{}, UpdateAdministrator{})
}

func administratorStructValidation(sl validator.StructLevel) {
	switch a := sl.Current().Interface().(type) {
	case NewAdministrator:
		if a.Password != "" {
			account.ValidatePassword(sl, a.Password, a.Name, a.Email)
		}
	case UpdateAdministrator:
		if a.Password != nil {
			var name, email string
			if a.Name != nil {
				name = *a.Name
			}
			if a.Email != nil {
				email = *a.Email
			}
			account.ValidatePassword(sl, *a.Password, name, email)
		}
	}
}
