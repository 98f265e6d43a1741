package util

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestMonthStartEnd(t *testing.T) {
	loc := mustLoad(t, "Europe/Warsaw")

	// 23:30 UTC on Jan 31 is already Feb 1 in Warsaw
	instant := time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC)

	start := MonthStart(instant, loc)
	if want := time.Date(2026, 2, 1, 0, 0, 0, 0, loc); !start.Equal(want) {
		t.Errorf("MonthStart = %v, want %v", start, want)
	}

	end := MonthEnd(instant, loc)
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond); !end.Equal(want) {
		t.Errorf("MonthEnd = %v, want %v", end, want)
	}
}

func TestDayEnd(t *testing.T) {
	day := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	got := DayEnd(day, time.UTC)
	want := time.Date(2026, 3, 15, 23, 59, 59, 999999999, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayEnd = %v, want %v", got, want)
	}
}

func TestTrailingMonths(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	months := TrailingMonths(now, 3, time.UTC)
	if len(months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(months))
	}

	want := []string{"2025-12", "2026-01", "2026-02"}
	for i, m := range months {
		if got := m.Format("2006-01"); got != want[i] {
			t.Errorf("months[%d] = %s, want %s", i, got, want[i])
		}
		if m.Day() != 1 || m.Hour() != 0 {
			t.Errorf("months[%d] = %v, want first day at midnight", i, m)
		}
	}

	if TrailingMonths(now, 0, time.UTC) != nil {
		t.Error("expected nil for zero months")
	}
}

func TestCeilDays(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   int
	}{
		{"past", now.Add(-48 * time.Hour), 0},
		{"now", now, 0},
		{"partial day rounds up", now.Add(time.Hour), 1},
		{"exact days", now.Add(72 * time.Hour), 3},
		{"three and a bit", now.Add(72*time.Hour + time.Minute), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilDays(now, tt.target); got != tt.want {
				t.Errorf("CeilDays = %d, want %d", got, tt.want)
			}
		})
	}
}
