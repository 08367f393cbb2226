// Package daterange computes the calendar windows used by todo filters,
// expense reports and monthly budgets. All windows are half-open
// [Start, End) and computed in the location of the reference time.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

// Range is a half-open time window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside r.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Day is the calendar day containing t.
func Day(t time.Time) Range {
	start := StartOfDay(t)
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week is the Sunday-to-Saturday week containing t.
func Week(t time.Time) Range {
	start := StartOfDay(t).AddDate(0, 0, -int(t.Weekday()))
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}

// NextWeek is the week after the one containing t.
func NextWeek(t time.Time) Range {
	w := Week(t)
	return Range{Start: w.End, End: w.End.AddDate(0, 0, 7)}
}

// MonthStart is the first instant of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Month is the calendar month containing t.
func Month(t time.Time) Range {
	start := MonthStart(t)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}
}

// Year is the calendar year containing t.
func Year(t time.Time) Range {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return Range{Start: start, End: start.AddDate(1, 0, 0)}
}

// Days spans whole days from the day of from through the day of to.
func Days(from, to time.Time) Range {
	return Range{Start: StartOfDay(from), End: Day(to).End}
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads a date from a query parameter or JSON field. It accepts
// RFC 3339 timestamps and plain dates; values without a zone are read in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseOr parses s, returning def when s is empty or the literal "null".
func ParseOr(s string, def time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "undefined" {
		return def, nil
	}
	return Parse(s, loc)
}

// Named filters accepted by list endpoints.
const (
	FilterToday    = "today"
	FilterThisWeek = "this-week"
	FilterNextWeek = "next-week"
)

// Named returns the window for a named filter relative to now. The second
// result is false for an unknown name.
func Named(name string, now time.Time) (Range, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FilterToday:
		return Day(now), true
	case FilterThisWeek:
		return Week(now), true
	case FilterNextWeek:
		return NextWeek(now), true
	}
	return Range{}, false
}
