// Package picker holds the picker's working values as an immutable snapshot.
// Every edit returns a new State; nothing is mutated in place.
package picker

import (
	"tzpick/internal/constraint"
	"tzpick/internal/model"
	"tzpick/internal/preset"
)

// State is one snapshot of the picker.
type State struct {
	working     model.Range
	committed   *model.Range
	constraints constraint.Constraints
}

// New returns an empty picker for zone.
func New(zone string, c constraint.Constraints) State {
	return State{
		working:     model.Range{Zone: zone},
		constraints: c,
	}
}

// Range returns the working range.
func (s State) Range() model.Range {
	return cloneRange(s.working)
}

// Committed returns the last range accepted by Commit.
func (s State) Committed() (model.Range, bool) {
	if s.committed == nil {
		return model.Range{}, false
	}
	return cloneRange(*s.committed), true
}

func (s State) Zone() string {
	return s.working.Zone
}

func (s State) Constraints() constraint.Constraints {
	return s.constraints
}

// WithZone changes the zone the civil values are read in. The wall-clock
// fields are kept as entered.
func (s State) WithZone(zone string) State {
	s.working = cloneRange(s.working)
	s.working.Zone = zone
	return s
}

func (s State) WithConstraints(c constraint.Constraints) State {
	s.constraints = c
	return s
}

func (s State) WithStartDate(d model.Date) State {
	s.working = cloneRange(s.working)
	s.working.Start = withDate(s.working.Start, d)
	return s
}

func (s State) WithStartTime(k model.Clock) State {
	s.working = cloneRange(s.working)
	s.working.Start = withClock(s.working.Start, k)
	return s
}

func (s State) WithEndDate(d model.Date) State {
	s.working = cloneRange(s.working)
	s.working.End = withDate(s.working.End, d)
	return s
}

func (s State) WithEndTime(k model.Clock) State {
	s.working = cloneRange(s.working)
	s.working.End = withClock(s.working.End, k)
	return s
}

func (s State) ClearStart() State {
	s.working = cloneRange(s.working)
	s.working.Start = model.Endpoint{}
	return s
}

func (s State) ClearEnd() State {
	s.working = cloneRange(s.working)
	s.working.End = model.Endpoint{}
	return s
}

// ApplyPreset replaces the working range with a preset's days and clock
// strings. The preset should have been built for the state's zone.
func (s State) ApplyPreset(p preset.Range) State {
	s.working = p.ToModel(s.working.Zone)
	return s
}

// Validate checks the working range against the constraints.
func (s State) Validate() constraint.RangeResult {
	return constraint.ValidateRange(s.working, s.constraints)
}

// Commit accepts the working range when it validates. The returned state
// is unchanged apart from the committed range.
func (s State) Commit() (State, constraint.RangeResult) {
	res := s.Validate()
	if res.Valid {
		r := cloneRange(s.working)
		s.committed = &r
	}
	return s, res
}

func withDate(e model.Endpoint, d model.Date) model.Endpoint {
	c := d.At(model.Clock{})
	if e.Time != nil {
		c = c.WithClock(*e.Time)
	}
	e.Date = &c
	return e
}

func withClock(e model.Endpoint, k model.Clock) model.Endpoint {
	e.Time = &k
	if e.Date != nil {
		c := e.Date.WithClock(k)
		e.Date = &c
	}
	return e
}

func cloneRange(r model.Range) model.Range {
	return model.Range{
		Start: cloneEndpoint(r.Start),
		End:   cloneEndpoint(r.End),
		Zone:  r.Zone,
	}
}

func cloneEndpoint(e model.Endpoint) model.Endpoint {
	var out model.Endpoint
	if e.Date != nil {
		d := *e.Date
		out.Date = &d
	}
	if e.Time != nil {
		k := *e.Time
		out.Time = &k
	}
	return out
}
