package core

import (
	"strconv"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseTimeOfDay parses "HH:MM" or "HHMM" into minutes since midnight.
func ParseTimeOfDay(s string) (int, bool) {
	s = strings.TrimSpace(s)
	var hh, mm string
	switch {
	case len(s) == 5 && s[2] == ':':
		hh, mm = s[:2], s[3:]
	case len(s) == 4:
		hh, mm = s[:2], s[2:]
	default:
		return 0, false
	}
	if !digitsRegex.MatchString(hh + mm) {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// MinutesOfDay returns the minutes elapsed since midnight of t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AtTimeOfDay returns t's day at the given minutes since midnight.
func AtTimeOfDay(t time.Time, minutes int) time.Time {
	return StartOfDay(t).Add(time.Duration(minutes) * time.Minute)
}
