package core

import (
	"fmt"
	"time"
)

// Preset is a named date-range filter the home screen offers.
type Preset string

const (
	PresetThisMonth Preset = "this_month"
	PresetLast7Days Preset = "last_7_days"
	PresetLastMonth Preset = "last_month"
	PresetThisYear  Preset = "this_year"
	PresetAll       Preset = "all"
)

// TimeFrame is an inclusive epoch-millisecond range. A nil bound means
// unconstrained on that side.
type TimeFrame struct {
	Start *int64
	End   *int64
}

// ParsePreset maps a stored preference value to a Preset.
func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case PresetThisMonth, PresetLast7Days, PresetLastMonth, PresetThisYear, PresetAll:
		return Preset(s), nil
	}
	return "", fmt.Errorf("unknown date preset %q", s)
}

// Frame computes the preset's bounds against now's calendar and location.
// Calling it twice with the same now yields identical bounds.
func (p Preset) Frame(now time.Time) TimeFrame {
	switch p {
	case PresetThisMonth:
		start := Millis(startOfMonth(now))
		end := Millis(now)
		return TimeFrame{Start: &start, End: &end}
	case PresetLast7Days:
		start := Millis(startOfDay(now.AddDate(0, 0, -6)))
		end := Millis(now)
		return TimeFrame{Start: &start, End: &end}
	case PresetLastMonth:
		firstOfCurrent := startOfMonth(now)
		start := Millis(startOfMonth(firstOfCurrent.AddDate(0, 0, -1)))
		// Last representable instant of the previous month at millisecond
		// resolution.
		end := Millis(firstOfCurrent) - 1
		return TimeFrame{Start: &start, End: &end}
	case PresetThisYear:
		start := Millis(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()))
		end := Millis(now)
		return TimeFrame{Start: &start, End: &end}
	default: // PresetAll
		return TimeFrame{}
	}
}

// CustomFrame builds an explicit range from a picker selection, normalized
// to day boundaries. When end is nil the range covers just start's day.
func CustomFrame(start time.Time, end *time.Time) TimeFrame {
	s := Millis(startOfDay(start))
	var e int64
	if end == nil {
		e = Millis(endOfDay(start))
	} else {
		e = Millis(endOfDay(*end))
	}
	return TimeFrame{Start: &s, End: &e}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
