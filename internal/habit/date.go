package habit

import (
	"fmt"
	"time"

	"github.com/dukerupert/happyloop/internal/model"
)

// Day truncates t to midnight UTC of its calendar date. All day arithmetic in
// this package runs on UTC midnights so DST transitions never shift a gap.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD task log date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as a YYYY-MM-DD task log date.
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// DaysBetween returns the number of calendar days from a to b. It is negative
// when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DateRange returns every calendar day from start through end inclusive,
// oldest first. It returns nil when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
