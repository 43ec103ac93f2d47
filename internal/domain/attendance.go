package domain

import (
	"context"
	"sort"
	"time"
)

// DateLayout is the storage format of a single attendance day.
const DateLayout = "2006-01-02"

type AttendanceRepository interface {
	// GetAttendance returns the stored days for the user, or an empty list.
	GetAttendance(ctx context.Context, userID string) ([]string, error)
	// SaveAttendance replaces the full list of days for the user.
	SaveAttendance(ctx context.Context, userID string, dates []string) error
}

// FormatDate returns the calendar date of t in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate reads a stored day as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// StartOfDay truncates t to local midnight, keeping its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SortedUnique returns a new ascending list without duplicates.
func SortedUnique(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	// Layout is zero-padded, so lexical order is chronological.
	sort.Strings(out)
	return out
}
