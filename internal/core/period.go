package core

import "time"

// Period is a half-open time interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Last returns the final millisecond inside the period, matching how
// "end of week" values are displayed.
func (p Period) Last() time.Time {
	return p.End.Add(-time.Millisecond)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func Day(t time.Time) Period {
	start := StartOfDay(t)
	return Period{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week is the Sunday-started week containing t.
func Week(t time.Time) Period {
	start := StartOfWeek(t)
	return Period{Start: start, End: start.AddDate(0, 0, 7)}
}

func Month(t time.Time) Period {
	start := StartOfMonth(t)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// PreviousWeek is the full Sunday-started week before the one containing now.
func PreviousWeek(now time.Time) Period {
	return Week(now.AddDate(0, 0, -7))
}

// RangeFor maps the "range" query values day, week and month onto a period.
// ok is false for anything else.
func RangeFor(name string, now time.Time) (p Period, ok bool) {
	switch name {
	case "day":
		return Day(now), true
	case "week":
		return Week(now), true
	case "month":
		return Month(now), true
	default:
		return Period{}, false
	}
}

// ParseDateTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}
