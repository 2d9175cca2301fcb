package calendar

import (
	"fmt"
	"sync"
	"time"
)

// Layout is the on-disk form of a Date.
const Layout = "2006-01-02"

// Date is a calendar day without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse reads a Date in Layout form.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t)
}

// Oracle supplies the current calendar day.
type Oracle interface {
	Today() Date
}

// SystemOracle reads the wall clock in a fixed location.
type SystemOracle struct {
	loc *time.Location
	now func() time.Time
}

// NewSystemOracle returns an oracle for loc. A nil loc means time.Local.
func NewSystemOracle(loc *time.Location) *SystemOracle {
	if loc == nil {
		loc = time.Local
	}
	return &SystemOracle{loc: loc, now: time.Now}
}

func (o *SystemOracle) Today() Date {
	return DateOf(o.now().In(o.loc))
}

// FixedOracle returns a settable date; used to simulate day rollover.
type FixedOracle struct {
	mu    sync.Mutex
	today Date
}

func NewFixedOracle(today Date) *FixedOracle {
	return &FixedOracle{today: today}
}

func (o *FixedOracle) Today() Date {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.today
}

func (o *FixedOracle) Set(d Date) {
	o.mu.Lock()
	o.today = d
	o.mu.Unlock()
}

// Advance moves the oracle forward by n days.
func (o *FixedOracle) Advance(n int) {
	o.mu.Lock()
	o.today = o.today.AddDays(n)
	o.mu.Unlock()
}
