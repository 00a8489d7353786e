package constraint

import (
	"strconv"
	"time"
)

var durationUnits = []struct {
	size time.Duration
	name string
}{
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
	{time.Second, "second"},
}

// FormatDuration reports d in the largest unit with a non-zero whole count,
// e.g. "2 hours" or "1 day". Smaller remainders are dropped, never
// rendered as a composite like "1 day 2 hours".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	for _, u := range durationUnits {
		if n := int64(d / u.size); n > 0 {
			return plural(n, u.name)
		}
	}
	return plural(0, "second")
}

func plural(n int64, unit string) string {
	s := strconv.FormatInt(n, 10) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}

// Ptr is a small helper for building optional duration bounds.
func Ptr(d time.Duration) *time.Duration {
	return &d
}
