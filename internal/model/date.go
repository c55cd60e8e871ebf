package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component, kept in its
// canonical YYYY-MM-DD form so that string order is date order.
type Date string

// ParseDate validates s and returns it in canonical form.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return Date(t.Format(dateLayout)), nil
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return Date(t.In(loc).Format(dateLayout))
}

// Today is the current date in loc.
func Today(loc *time.Location) Date { return DateOf(time.Now(), loc) }

// NewDate builds a date from its parts; out-of-range parts normalize like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout))
}

func (d Date) String() string { return string(d) }

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dateLayout, string(d), loc)
}

func (d Date) Before(o Date) bool { return d < o }

// Canonical reports whether d is a real date in YYYY-MM-DD form, the only
// form Before orders correctly.
func (d Date) Canonical() bool {
	p, err := ParseDate(string(d))
	return err == nil && p == d
}

// UnmarshalJSON accepts null, "" (dropped by Item.Normalize) and YYYY-MM-DD.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = ""
		return nil
	}
	p, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// Ptr is a convenience for optional deadlines.
func (d Date) Ptr() *Date { return &d }

// AddDays moves d by n days. An invalid d is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(dateLayout))
}

// AddMonths moves d to the first day of the month n months away.
func (d Date) AddMonths(n int) Date {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return d
	}
	return NewDate(t.Year(), t.Month()+time.Month(n), 1)
}

// YearMonth splits d into the parts a month view needs.
func (d Date) YearMonth() (int, time.Month) {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return 0, 0
	}
	return t.Year(), t.Month()
}
