package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the persisted form of a Date.
const DateLayout = "2006-01-02"

// readLayout also accepts single-digit months and days ("2024-1-5").
const readLayout = "2006-1-2"

// Date is a calendar day with no time-of-day and no zone. All day
// arithmetic in the module goes through it.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date; overflowing days roll into the next
// month the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// Today returns the local calendar date.
func Today() Date { return DateOf(time.Now()) }

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(readLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %s: %w", s, DateLayout, err)
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }
func (d Date) Equal(x Date) bool  { return d == x }

// Compare returns -1, 0 or +1.
func (d Date) Compare(x Date) int {
	return d.time().Compare(x.time())
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// DaysUntil returns the signed number of days from d to x. It is negative
// when x is before d.
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()).Hours() / 24)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date { return NewDate(d.y, d.m, 1) }

// InMonth reports whether d falls in the given month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.y == year && d.m == month
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(DateLayout)
}

// PreviousMonth returns the month before (year, month), wrapping January to
// December of the previous year.
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	_ json.Marshaler   = Date{}
	_ json.Unmarshaler = (*Date)(nil)
)
