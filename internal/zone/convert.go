package zone

import (
	"time"

	"tzpick/internal/model"
)

const minutesPerDay = 24 * 60

// Offset is the zone's displacement from UTC at one instant.
type Offset struct {
	// Minutes is positive east of UTC.
	Minutes int `json:"minutes"`
	// Abbreviation is the tz database abbreviation in effect, e.g. "EST".
	// Zones without a lettered abbreviation report a numeric one like "+03".
	Abbreviation string `json:"abbreviation"`
	IsDST        bool   `json:"is_dst"`
}

// OffsetMinutes returns the zone's offset from UTC at the given instant.
//
// The value is derived from wall-clock fields: minutes-of-day in the zone
// minus minutes-of-day in UTC, corrected by a day when the two calendar
// days differ.
func (c *Converter) OffsetMinutes(at time.Time, zone string) (int, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return 0, err
	}
	return c.offsetIn(at, zone, loc), nil
}

func (c *Converter) offsetIn(at time.Time, zone string, loc *time.Location) int {
	key := offsetKey{unix: at.Unix(), zone: zone}
	if c.offsets != nil {
		if m, ok := c.offsets.GetIfPresent(key); ok {
			return m
		}
	}
	m := wallClockOffset(at, loc)
	if c.offsets != nil {
		c.offsets.Set(key, m)
	}
	return m
}

func wallClockOffset(at time.Time, loc *time.Location) int {
	u := at.UTC()
	l := at.In(loc)

	diff := (l.Hour()*60 + l.Minute()) - (u.Hour()*60 + u.Minute())
	switch model.DateOf(l).Compare(model.DateOf(u)) {
	case 1:
		diff += minutesPerDay
	case -1:
		diff -= minutesPerDay
	}
	return diff
}

// Offset returns the offset, abbreviation and DST flag at the instant.
func (c *Converter) Offset(at time.Time, zone string) (Offset, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return Offset{}, err
	}
	return c.describe(at, zone, loc), nil
}

func (c *Converter) describe(at time.Time, zone string, loc *time.Location) Offset {
	abbr, _ := at.In(loc).Zone()
	return Offset{
		Minutes:      c.offsetIn(at, zone, loc),
		Abbreviation: abbr,
		IsDST:        c.isDST(at, zone, loc),
	}
}

// CivilToInstant interprets wall-clock fields in zone.
//
// The fields are first read as if they were UTC (the nominal instant) and
// the zone's offset at that nominal instant is subtracted. When the result
// falls under a different offset, the conversion is repeated with that
// offset and kept if it round-trips. What remains unresolved is a
// nonexistent spring-forward time, which keeps the first-pass result
// instead of being rejected; an ambiguous fall-back time takes whichever
// valid offset the first pass reports. Use Classify to detect those inputs.
func (c *Converter) CivilToInstant(civil model.Civil, zone string) (time.Time, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	return c.civilIn(civil, zone, loc), nil
}

func (c *Converter) civilIn(civil model.Civil, zone string, loc *time.Location) time.Time {
	nominal := civil.Naive()
	off := c.offsetIn(nominal, zone, loc)
	first := nominal.Add(-time.Duration(off) * time.Minute)

	actual := c.offsetIn(first, zone, loc)
	if actual == off {
		return first
	}
	second := nominal.Add(-time.Duration(actual) * time.Minute)
	if c.offsetIn(second, zone, loc) == actual {
		return second
	}
	// gap
	return first
}

// InstantToCivil returns the wall-clock fields of at in zone.
func (c *Converter) InstantToCivil(at time.Time, zone string) (model.Civil, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return model.Civil{}, err
	}
	return model.CivilOf(at.In(loc)), nil
}

// Elapsed is the real time between two civil values in zone, measured
// through instants. It differs from end.Sub(start) when a transition lies
// between them.
func (c *Converter) Elapsed(start, end model.Civil, zone string) (time.Duration, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return 0, err
	}
	return c.civilIn(end, zone, loc).Sub(c.civilIn(start, zone, loc)), nil
}

// SameDay reports whether two instants fall on the same calendar day in zone.
func (c *Converter) SameDay(a, b time.Time, zone string) (bool, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return false, err
	}
	return SameCalendarDay(model.CivilOf(a.In(loc)), model.CivilOf(b.In(loc))), nil
}

// SameCalendarDay reports whether two wall-clock values name the same
// calendar day. The time of day is ignored and no offset is applied.
func SameCalendarDay(a, b model.Civil) bool {
	return a.Date() == b.Date()
}
