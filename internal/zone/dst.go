package zone

import (
	"slices"
	"time"

	"tzpick/internal/model"
)

// IsDaylightSavings reports whether DST is in effect at the instant, using
// the converter's DSTMode.
//
// In DSTHeuristic mode the offset at the instant is compared with the offset
// six months later; DST is active iff the first is strictly greater. This
// assumes exactly one of the two samples lies outside DST and can
// misclassify zones with irregular calendars.
func (c *Converter) IsDaylightSavings(at time.Time, zone string) (bool, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return false, err
	}
	return c.isDST(at, zone, loc), nil
}

// IsDSTByRules asks the tz database, regardless of DSTMode.
func (c *Converter) IsDSTByRules(at time.Time, zone string) (bool, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return false, err
	}
	return at.In(loc).IsDST(), nil
}

func (c *Converter) isDST(at time.Time, zone string, loc *time.Location) bool {
	if c.mode == DSTRules {
		return at.In(loc).IsDST()
	}
	now := c.offsetIn(at, zone, loc)
	later := c.offsetIn(at.AddDate(0, 6, 0), zone, loc)
	return now > later
}

// Transition is a change of offset at an instant.
type Transition struct {
	At     time.Time `json:"at"`
	Before Offset    `json:"before"`
	After  Offset    `json:"after"`
}

// Transitions lists the offset changes in [from, to).
func (c *Converter) Transitions(zone string, from, to time.Time) ([]Transition, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return nil, err
	}

	var out []Transition
	t := from
	for t.Before(to) {
		_, end := t.In(loc).ZoneBounds()
		if end.IsZero() || !end.Before(to) {
			break
		}
		before := c.describe(end.Add(-time.Second), zone, loc)
		after := c.describe(end, zone, loc)
		if before.Minutes != after.Minutes {
			out = append(out, Transition{At: end.UTC(), Before: before, After: after})
		}
		t = end
	}
	return out, nil
}

// Kind classifies how a wall-clock time maps onto instants.
type Kind string

const (
	// Unique wall-clock times occur exactly once.
	Unique Kind = "unique"
	// Gap times were skipped by a spring-forward transition.
	Gap Kind = "gap"
	// Ambiguous times occur twice around a fall-back transition.
	Ambiguous Kind = "ambiguous"
)

// Resolution describes every instant a wall-clock time can denote.
type Resolution struct {
	Kind Kind `json:"kind"`
	// Candidates are the instants whose civil value equals the input,
	// earliest first. Empty for a gap.
	Candidates []time.Time `json:"candidates"`
	// Resolved is what CivilToInstant returns for the same input.
	Resolved time.Time `json:"resolved"`
}

// transitionReach bounds the search for offsets on either side of a civil
// value. Real offset changes are far smaller than this.
const transitionReach = 26 * time.Hour

// Classify enumerates the instants that display as civil in zone.
func (c *Converter) Classify(civil model.Civil, zone string) (Resolution, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return Resolution{}, err
	}

	nominal := civil.Naive()
	offsets := []int{
		c.offsetIn(nominal.Add(-transitionReach), zone, loc),
		c.offsetIn(nominal, zone, loc),
		c.offsetIn(nominal.Add(transitionReach), zone, loc),
	}
	slices.Sort(offsets)
	offsets = slices.Compact(offsets)

	var candidates []time.Time
	for _, off := range offsets {
		inst := nominal.Add(-time.Duration(off) * time.Minute)
		if c.offsetIn(inst, zone, loc) == off {
			candidates = append(candidates, inst)
		}
	}
	slices.SortFunc(candidates, func(a, b time.Time) int { return a.Compare(b) })
	candidates = slices.CompactFunc(candidates, func(a, b time.Time) bool { return a.Equal(b) })

	res := Resolution{
		Candidates: candidates,
		Resolved:   c.civilIn(civil, zone, loc),
	}
	switch len(candidates) {
	case 0:
		res.Kind = Gap
	case 1:
		res.Kind = Unique
	default:
		res.Kind = Ambiguous
	}
	return res, nil
}
