package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func newTestValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

func TestInitValidators(t *testing.T) {
	validate, _ := newTestValidator()

	tests := []struct {
		tag   string
		value string
		valid bool
	}{
		{tag: "hhmm", value: "08:30", valid: true},
		{tag: "hhmm", value: "0830"},
		{tag: "hhmm", value: "+1:+5"},
		{tag: "hhmm", value: "-1:05"},
		{tag: "hhmm", value: "24:00"},
		{tag: "digits", value: "0912345678", valid: true},
		{tag: "digits", value: "+593"},
		{tag: "objectid", value: "65a1b2c3d4e5f6a7b8c9d0e1", valid: true},
		{tag: "objectid", value: "65A1B2C3D4E5F6A7B8C9D0E1", valid: true},
		{tag: "objectid", value: "s-001"},
		{tag: "objectid", value: "65a1b2c3d4e5f6a7b8c9d0e"},
		{tag: "objectid", value: "65a1b2c3d4e5f6a7b8c9d0zz"},
	}
	for _, tt := range tests {
		t.Run(tt.tag+" "+tt.value, func(t *testing.T) {
			err := validate.Var(tt.value, tt.tag)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestInitValidators_diveMessages(t *testing.T) {
	validate, translator := newTestValidator()

	type payload struct {
		IDs []string `json:"ids" validate:"dive,required,objectid"`
	}
	err := validate.Struct(payload{IDs: []string{"65a1b2c3d4e5f6a7b8c9d0e1", "nope"}})
	var vErrs validator.ValidationErrors
	if assert.ErrorAs(t, err, &vErrs) && assert.Len(t, vErrs, 1) {
		assert.Equal(t, "ids[1]", vErrs[0].Field())
		assert.Equal(t, "ids[1] must be a valid id", vErrs[0].Translate(translator))
	}
}
