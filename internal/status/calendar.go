package status

import (
	"strings"
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
)

// dateLayouts are the formats found in stored date columns. Timestamps are
// reduced to their calendar day in the reference zone.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Calendar compares dates in a single fixed reference timezone so results do
// not depend on the host's zone.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a Calendar for loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the reference timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Today returns midnight of now's calendar day in the reference zone.
func (c Calendar) Today(now time.Time) time.Time {
	return c.day(now.In(c.Location()))
}

// ParseDate parses a stored date column. Empty input yields (nil, nil);
// anything unparseable is an ErrValidation.
func (c Calendar) ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, c.Location())
		if err == nil {
			d := c.day(t.In(c.Location()))
			return &d, nil
		}
	}
	return nil, apperr.Validation("date", "cannot parse %q", s)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func (c Calendar) FormatDate(t time.Time) string {
	return t.In(c.Location()).Format("2006-01-02")
}

// DaysUntil counts calendar days from today to d; negative when d has passed.
func (c Calendar) DaysUntil(today, d time.Time) int {
	a := today.In(c.Location())
	b := d.In(c.Location())
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func (c Calendar) day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}
