// Package zone converts between instants and a zone's wall-clock (civil)
// representation for the curated zone catalog.
//
// All operations are pure given a Provider. A Converter may be shared by
// concurrent callers; the only state it holds is a bounded memo of offsets,
// which are referentially transparent for a fixed (instant, zone) pair.
package zone

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // results must not depend on the host zoneinfo

	"github.com/maypok86/otter/v2"
)

var (
	// ErrUnknownTimezone is returned for identifiers outside the catalog or
	// that the provider cannot resolve.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrUnknownStyle is returned by FormatInTimezone for unsupported styles.
	ErrUnknownStyle = errors.New("unknown format style")
)

// UnknownTimezoneError carries the offending identifier.
type UnknownTimezoneError struct {
	Zone string
	Err  error
}

func (e *UnknownTimezoneError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unknown timezone %q: %v", e.Zone, e.Err)
	}
	return fmt.Sprintf("unknown timezone %q", e.Zone)
}

func (e *UnknownTimezoneError) Is(target error) bool {
	return target == ErrUnknownTimezone
}

func (e *UnknownTimezoneError) Unwrap() error {
	return e.Err
}

// Provider resolves zone identifiers to locations. It is the single host
// capability the converter depends on, so an alternate timezone database
// can be substituted.
type Provider interface {
	Load(name string) (*time.Location, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(name string) (*time.Location, error)

func (f ProviderFunc) Load(name string) (*time.Location, error) {
	return f(name)
}

// TZData is the default Provider backed by the embedded tz database.
var TZData Provider = ProviderFunc(time.LoadLocation)

// DSTMode selects how daylight saving is detected.
type DSTMode int

const (
	// DSTHeuristic compares the offset now with the offset six months later.
	DSTHeuristic DSTMode = iota
	// DSTRules asks the tz database directly.
	DSTRules
)

const defaultCacheSize = 10_000

type offsetKey struct {
	unix int64
	zone string
}

// Converter implements the instant/civil conversions.
type Converter struct {
	provider  Provider
	mode      DSTMode
	cacheSize int

	locations *otter.Cache[string, *time.Location]
	offsets   *otter.Cache[offsetKey, int]
}

// Option configures a Converter.
type Option func(*Converter)

// WithProvider overrides the location provider.
func WithProvider(p Provider) Option {
	return func(c *Converter) { c.provider = p }
}

// WithDSTMode selects the DST detection strategy.
func WithDSTMode(m DSTMode) Option {
	return func(c *Converter) { c.mode = m }
}

// WithCacheSize bounds the offset memo. Zero disables memoization.
func WithCacheSize(n int) Option {
	return func(c *Converter) { c.cacheSize = n }
}

// NewConverter returns a Converter using the embedded tz database and the
// heuristic DST mode unless overridden.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		provider:  TZData,
		mode:      DSTHeuristic,
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize > 0 {
		c.locations = otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize: len(catalog),
		})
		c.offsets = otter.Must(&otter.Options[offsetKey, int]{
			MaximumSize: c.cacheSize,
		})
	}
	return c
}

// Mode returns the DST detection strategy in use.
func (c *Converter) Mode() DSTMode {
	return c.mode
}

// Location resolves a cataloged zone identifier.
func (c *Converter) Location(zone string) (*time.Location, error) {
	if !IsSupported(zone) {
		return nil, &UnknownTimezoneError{Zone: zone}
	}
	if c.locations != nil {
		if loc, ok := c.locations.GetIfPresent(zone); ok {
			return loc, nil
		}
	}
	loc, err := c.provider.Load(zone)
	if err != nil {
		return nil, &UnknownTimezoneError{Zone: zone, Err: err}
	}
	if loc == nil {
		return nil, &UnknownTimezoneError{Zone: zone}
	}
	if c.locations != nil {
		c.locations.Set(zone, loc)
	}
	return loc, nil
}
