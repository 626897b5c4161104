package schedule

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/teacher"
)

// weekdays are the institution's day names, indexed by time.Weekday.
var weekdays = [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var unaccented = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

// WeekdayName returns the day name used by slots for t's weekday.
func WeekdayName(t time.Time) string {
	return weekdays[t.Weekday()]
}

// NormalizeWeekday lowers s and restores its accents; unknown names are returned lowered.
func NormalizeWeekday(s string) string {
	s = core.CleanString(s, true)
	plain := unaccented.Replace(s)
	for _, d := range weekdays {
		if unaccented.Replace(d) == plain {
			return d
		}
	}
	return s
}

func isWeekday(s string) bool {
	for _, d := range weekdays {
		if s == d {
			return true
		}
	}
	return false
}

// Slot is one weekly recurring class meeting.
type Slot struct {
	ID        string           `json:"id"`
	TeacherID string           `json:"teacher_id"`
	Teacher   *teacher.Teacher `json:"teacher,omitempty"`
	CourseID  string           `json:"course_id"`
	Course    *course.Course   `json:"course,omitempty"`
	DayOfWeek string           `json:"day_of_week"`
	StartTime string           `json:"start_time"`
	EndTime   string           `json:"end_time"`
	Room      string           `json:"room,omitempty"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type NewSlot struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	Room      string `json:"room"`
	Active    *bool  `json:"active"`
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	ns.TeacherID = core.CleanString(ns.TeacherID)
	ns.CourseID = core.CleanString(ns.CourseID)
	ns.DayOfWeek = NormalizeWeekday(ns.DayOfWeek)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.Room = core.CleanString(ns.Room)
	return validate.Struct(ns)
}

// UpdateSlot only changes the fields that are set.
type UpdateSlot struct {
	TeacherID *string `json:"teacher_id" validate:"omitempty,min=1"`
	CourseID  *string `json:"course_id" validate:"omitempty,min=1"`
	DayOfWeek *string `json:"day_of_week" validate:"omitempty,weekday"`
	StartTime *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time" validate:"omitempty,hhmm"`
	Room      *string `json:"room"`
	Active    *bool   `json:"active"`
}

func (us *UpdateSlot) Validate(validate *validator.Validate) error {
	for _, s := range []*string{us.TeacherID, us.CourseID, us.StartTime, us.EndTime, us.Room} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if us.DayOfWeek != nil {
		*us.DayOfWeek = NormalizeWeekday(*us.DayOfWeek)
	}
	return validate.Struct(us)
}

type Filter struct {
	TeacherID  string
	DayOfWeek  string
	ActiveOnly bool
}
