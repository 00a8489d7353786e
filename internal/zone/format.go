package zone

import (
	"fmt"
	"time"
)

// Style selects display field widths.
type Style string

const (
	StyleShort Style = "short"
	StyleLong  Style = "long"
)

var layouts = map[Style]string{
	StyleShort: "1/2/06, 3:04 PM",
	StyleLong:  "Monday, January 2, 2006 at 3:04:05 PM MST",
}

// ParseStyle accepts "short" or "long"; empty means short.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleShort, nil
	}
	if _, ok := layouts[Style(s)]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownStyle, s)
	}
	return Style(s), nil
}

// FormatInTimezone renders at as seen in zone.
func (c *Converter) FormatInTimezone(at time.Time, zone string, style Style) (string, error) {
	layout, ok := layouts[style]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownStyle, style)
	}
	loc, err := c.Location(zone)
	if err != nil {
		return "", err
	}
	return at.In(loc).Format(layout), nil
}
