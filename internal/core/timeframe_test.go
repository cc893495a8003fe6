package core

import (
	"testing"
	"time"
)

func TestPresetFrames(t *testing.T) {
	loc := time.FixedZone("test", 3600)
	// Wednesday, 2024-09-18 14:30 local time.
	now := time.Date(2024, time.September, 18, 14, 30, 0, 0, loc)

	t.Run("this month", func(t *testing.T) {
		frame := PresetThisMonth.Frame(now)
		wantStart := Millis(time.Date(2024, time.September, 1, 0, 0, 0, 0, loc))
		if frame.Start == nil || *frame.Start != wantStart {
			t.Fatalf("start = %v, want %d", frame.Start, wantStart)
		}
		if frame.End == nil || *frame.End != Millis(now) {
			t.Fatalf("end = %v, want now", frame.End)
		}
	})

	t.Run("last 7 days", func(t *testing.T) {
		frame := PresetLast7Days.Frame(now)
		wantStart := Millis(time.Date(2024, time.September, 12, 0, 0, 0, 0, loc))
		if frame.Start == nil || *frame.Start != wantStart {
			t.Fatalf("start = %v, want %d", frame.Start, wantStart)
		}
	})

	t.Run("last month", func(t *testing.T) {
		frame := PresetLastMonth.Frame(now)
		wantStart := Millis(time.Date(2024, time.August, 1, 0, 0, 0, 0, loc))
		wantEnd := Millis(time.Date(2024, time.September, 1, 0, 0, 0, 0, loc)) - 1
		if frame.Start == nil || *frame.Start != wantStart {
			t.Fatalf("start = %v, want %d", frame.Start, wantStart)
		}
		if frame.End == nil || *frame.End != wantEnd {
			t.Fatalf("end = %v, want %d", frame.End, wantEnd)
		}
	})

	t.Run("this year", func(t *testing.T) {
		frame := PresetThisYear.Frame(now)
		wantStart := Millis(time.Date(2024, time.January, 1, 0, 0, 0, 0, loc))
		if frame.Start == nil || *frame.Start != wantStart {
			t.Fatalf("start = %v, want %d", frame.Start, wantStart)
		}
	})

	t.Run("all", func(t *testing.T) {
		frame := PresetAll.Frame(now)
		if frame.Start != nil || frame.End != nil {
			t.Fatalf("expected unbounded frame, got %+v", frame)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, p := range []Preset{PresetThisMonth, PresetLast7Days, PresetLastMonth, PresetThisYear, PresetAll} {
			a := p.Frame(now)
			b := p.Frame(now)
			if (a.Start == nil) != (b.Start == nil) || (a.End == nil) != (b.End == nil) {
				t.Fatalf("%s: bounds presence differs between applications", p)
			}
			if a.Start != nil && *a.Start != *b.Start {
				t.Fatalf("%s: start drifted: %d vs %d", p, *a.Start, *b.Start)
			}
			if a.End != nil && *a.End != *b.End {
				t.Fatalf("%s: end drifted: %d vs %d", p, *a.End, *b.End)
			}
		}
	})
}

func TestCustomFrame(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, time.March, 3, 11, 15, 0, 0, loc)

	t.Run("start only covers that day", func(t *testing.T) {
		frame := CustomFrame(day, nil)
		wantStart := Millis(time.Date(2024, time.March, 3, 0, 0, 0, 0, loc))
		wantEnd := Millis(time.Date(2024, time.March, 4, 0, 0, 0, 0, loc)) - 1
		if *frame.Start != wantStart || *frame.End != wantEnd {
			t.Fatalf("frame = [%d, %d], want [%d, %d]", *frame.Start, *frame.End, wantStart, wantEnd)
		}
	})

	t.Run("explicit range normalized to day bounds", func(t *testing.T) {
		end := time.Date(2024, time.March, 10, 9, 0, 0, 0, loc)
		frame := CustomFrame(day, &end)
		wantEnd := Millis(time.Date(2024, time.March, 11, 0, 0, 0, 0, loc)) - 1
		if *frame.End != wantEnd {
			t.Fatalf("end = %d, want %d", *frame.End, wantEnd)
		}
	})
}

func TestParsePreset(t *testing.T) {
	if _, err := ParsePreset("this_month"); err != nil {
		t.Fatalf("parse this_month: %v", err)
	}
	if _, err := ParsePreset("bogus"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}
