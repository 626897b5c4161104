package teacher

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core/account"
)

func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(teacherStructValidation, NewTeacher{}, UpdateTeacher{})
}

// teacherStructValidation applies the password policy on NewTeacher and UpdateTeacher.
func teacherStructValidation(sl validator.StructLevel) {
	switch t := sl.Current().Interface().(type) {
	case NewTeacher:
		if t.Password != "" {
			account.ValidatePassword(sl, t.Password, t.Name, t.Email)
		}
	case UpdateTeacher:
		if t.Password != nil {
			account.ValidatePassword(sl, *t.Password, deref(t.Name), deref(t.Email))
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
