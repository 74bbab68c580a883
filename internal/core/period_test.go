package core

import (
	"testing"
	"time"
)

func TestStartOfWeekIsSunday(t *testing.T) {
	// 2025-03-12 is a Wednesday
	wed := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := StartOfWeek(wed); !got.Equal(want) {
		t.Fatalf("StartOfWeek = %v, want %v", got, want)
	}

	sun := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	if got := StartOfWeek(sun); !got.Equal(want) {
		t.Fatalf("StartOfWeek(sunday) = %v, want %v", got, want)
	}
}

func TestPreviousWeek(t *testing.T) {
	// Sunday 09:00, the scheduled run time
	now := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)
	p := PreviousWeek(now)

	if want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC); !p.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", p.Start, want)
	}
	if want := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC); !p.End.Equal(want) {
		t.Errorf("End = %v, want %v", p.End, want)
	}
	if want := time.Date(2025, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC); !p.Last().Equal(want) {
		t.Errorf("Last = %v, want %v", p.Last(), want)
	}
	if p.Contains(now) {
		t.Error("previous week must not contain now")
	}
	if !p.Contains(time.Date(2025, 3, 15, 23, 0, 0, 0, time.UTC)) {
		t.Error("previous week should contain saturday night")
	}
}

func TestMonthAcrossYearEnd(t *testing.T) {
	p := Month(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	if !p.Start.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", p.Start)
	}
	if !p.End.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("End = %v", p.End)
	}
}

func TestRangeFor(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		ok    bool
		start time.Time
		end   time.Time
	}{
		{"day", true, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)},
		{"week", true, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"month", true, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"year", false, time.Time{}, time.Time{}},
		{"", false, time.Time{}, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := RangeFor(tt.name, now)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (!p.Start.Equal(tt.start) || !p.End.Equal(tt.end)) {
				t.Fatalf("period = %v..%v, want %v..%v", p.Start, p.End, tt.start, tt.end)
			}
		})
	}
}

func TestParseDateTime(t *testing.T) {
	for _, in := range []string{"2025-03-12T10:00:00Z", "2025-03-12T10:00:00.123+02:00", "2025-03-12"} {
		if _, err := ParseDateTime(in); err != nil {
			t.Errorf("ParseDateTime(%q) error = %v", in, err)
		}
	}
	if _, err := ParseDateTime("12/03/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
