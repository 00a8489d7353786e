package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// NOTE: all values in this package are plain immutable values. Nothing here
// knows about time zones; a Civil value only becomes an instant once a zone
// is applied by internal/zone.

var (
	ErrInvalidClock = errors.New("invalid time of day")
	ErrInvalidDate  = errors.New("invalid date")
)

// clockPattern is the canonical "HH:MM" form accepted from the UI.
var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

const (
	dateLayout  = "2006-01-02"
	civilLayout = "2006-01-02T15:04:05"
)

// Date is a calendar day without time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock is a wall-clock time of day with minute precision ("HH:MM").
type Clock struct {
	Hour   int
	Minute int
}

// Civil holds wall-clock fields. It is interpreted relative to a zone
// identifier carried alongside it (see Range.Zone).
type Civil struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Endpoint is one side of a range. Either field may be unset.
type Endpoint struct {
	Date *Civil `json:"date"`
	Time *Clock `json:"time"`
}

// Range is a start/end pair as edited in the picker. Zone is the catalog
// identifier the civil values are expressed in.
type Range struct {
	Start Endpoint `json:"start"`
	End   Endpoint `json:"end"`
	Zone  string   `json:"zone,omitempty"`
}

// NewDate returns a Date for the given fields.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	return compareInts(
		[3]int{d.Year, int(d.Month), d.Day},
		[3]int{o.Year, int(o.Month), o.Day},
	)
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// AddDays returns the date n calendar days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// At combines the date with a clock into a Civil value.
func (d Date) At(c Clock) Civil {
	return Civil{Year: d.Year, Month: d.Month, Day: d.Day, Hour: c.Hour, Minute: c.Minute}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseClock parses the canonical "HH:MM" form.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, fmt.Errorf("%w %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return Clock{Hour: h, Minute: mm}, nil
}

// MustClock is ParseClock for literals known to be valid.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCivil accepts "YYYY-MM-DDTHH:MM[:SS]" or a bare "YYYY-MM-DD".
func ParseCivil(s string) (Civil, error) {
	for _, layout := range []string{civilLayout, "2006-01-02T15:04", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return CivilOf(t), nil
		}
	}
	return Civil{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
}

// CivilOf returns the wall-clock fields of t in t's own location.
func CivilOf(t time.Time) Civil {
	return Civil{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

func (c Civil) Date() Date {
	return Date{Year: c.Year, Month: c.Month, Day: c.Day}
}

func (c Civil) Clock() Clock {
	return Clock{Hour: c.Hour, Minute: c.Minute}
}

func (c Civil) Weekday() time.Weekday {
	return c.Date().Weekday()
}

// WithClock replaces the time-of-day fields, zeroing seconds.
func (c Civil) WithClock(k Clock) Civil {
	c.Hour, c.Minute, c.Second = k.Hour, k.Minute, 0
	return c
}

// Naive returns the fields as if they were UTC. It is the comparison frame
// for civil values and the nominal instant used by zone conversion.
func (c Civil) Naive() time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// Compare orders two civil values field by field.
func (c Civil) Compare(o Civil) int {
	return c.Naive().Compare(o.Naive())
}

// Sub returns c-o measured on wall-clock fields, ignoring any zone offset.
func (c Civil) Sub(o Civil) time.Duration {
	return c.Naive().Sub(o.Naive())
}

func (c Civil) String() string {
	return c.Naive().Format(civilLayout)
}

func (c Civil) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Civil) UnmarshalText(b []byte) error {
	v, err := ParseCivil(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Complete reports whether both the date and the time are set.
func (e Endpoint) Complete() bool {
	return e.Date != nil && e.Time != nil
}

// Combined merges the date with the endpoint's clock. ok is false when the
// endpoint is incomplete.
func (e Endpoint) Combined() (Civil, bool) {
	if !e.Complete() {
		return Civil{}, false
	}
	return e.Date.WithClock(*e.Time), true
}

func compareInts(a, b [3]int) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
