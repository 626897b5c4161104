package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "{0} must be a day name (lunes, martes, miércoles, jueves, viernes, sábado, domingo)"

	timeRangeTag  = "timerange"
	timeRangeText = "end_time must be after start_time"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(weekdayTag, func(fl validator.FieldLevel) bool {
		return isWeekday(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	validate.RegisterStructValidation(slotStructValidation, NewSlot{})
	core.RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)
}

// slotStructValidation checks that a new slot ends after it starts.
func slotStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewSlot)
	if !ok {
		return
	}
	start, okStart := core.ParseTimeOfDay(ns.StartTime)
	end, okEnd := core.ParseTimeOfDay(ns.EndTime)
	if okStart && okEnd && end <= start {
		sl.ReportError(ns.EndTime, "end_time", "EndTime", timeRangeTag, "")
	}
}

// validTimeRange is used on updates, once the stored and new values are merged.
func validTimeRange(start, end string) bool {
	s, okStart := core.ParseTimeOfDay(start)
	e, okEnd := core.ParseTimeOfDay(end)
	return okStart && okEnd && e > s
}
