package core

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOk bool
	}{
		{name: "HH:MM", input: "20:00", want: 20 * 60, wantOk: true},
		{name: "HHMM", input: "0930", want: 9*60 + 30, wantOk: true},
		{name: "padded", input: " 07:05 ", want: 7*60 + 5, wantOk: true},
		{name: "midnight", input: "00:00", want: 0, wantOk: true},
		{name: "last minute", input: "23:59", want: 23*60 + 59, wantOk: true},
		{name: "hour out of range", input: "24:00"},
		{name: "minute out of range", input: "12:60"},
		{name: "single digit hour", input: "9:00"},
		{name: "garbage", input: "lol"},
		{name: "signed parts", input: "+1:+5"},
		{name: "signed compact", input: "-1-5"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeOfDay(tt.input)
			if ok != tt.wantOk {
				t.Fatalf("ParseTimeOfDay(%q) ok = %v; want %v", tt.input, ok, tt.wantOk)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %d; want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAtTimeOfDay(t *testing.T) {
	loc := time.FixedZone("ECT", -5*60*60)
	now := time.Date(2025, time.May, 5, 15, 42, 10, 0, loc)

	got := AtTimeOfDay(now, 20*60)
	want := time.Date(2025, time.May, 5, 20, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("AtTimeOfDay() = %v; want %v", got, want)
	}
	if MinutesOfDay(now) != 15*60+42 {
		t.Errorf("MinutesOfDay() = %d; want %d", MinutesOfDay(now), 15*60+42)
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  Ana@Test.EC "); got != "Ana@Test.EC" {
		t.Errorf("CleanString() = %q", got)
	}
	if got := CleanString("  Ana@Test.EC ", true); got != "ana@test.ec" {
		t.Errorf("CleanString(lower) = %q", got)
	}
}
