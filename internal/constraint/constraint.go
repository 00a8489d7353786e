// Package constraint validates picker dates and ranges against a declarative
// constraint set. Every check returns a result value; business-rule
// violations are never reported as errors.
package constraint

import (
	"slices"
	"time"

	"tzpick/internal/model"
	"tzpick/internal/zone"
)

// Canonical messages. UI code and tests match on these strings.
const (
	MsgStartRequired  = "Start date and time are required"
	MsgEndRequired    = "End date and time are required"
	MsgStartBeforeEnd = "Start must be before end"
	MsgBlackout       = "Date is unavailable"
	MsgDisabledDay    = "Day of week is disabled"

	msgMinDate     = "Date must be on or after "
	msgMaxDate     = "Date must be on or before "
	msgMinDuration = "Duration must be at least "
	msgMaxDuration = "Duration must not exceed "

	startPrefix = "Start: "
	endPrefix   = "End: "
)

// Constraints is the full constraint set. Every field is optional.
type Constraints struct {
	MinDate       *model.Date
	MaxDate       *model.Date
	BlackoutDates []model.Date
	MinDuration   *time.Duration
	MaxDuration   *time.Duration
	DisabledDays  []time.Weekday
}

// DateResult is the outcome for a single date.
type DateResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// RangeResult is the outcome for a range. Errors are ordered: completeness,
// then per-side, then ordering, then duration.
type RangeResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// WithBlackouts returns a copy with extra blackout days appended.
func (c Constraints) WithBlackouts(days ...model.Date) Constraints {
	merged := make([]model.Date, 0, len(c.BlackoutDates)+len(days))
	merged = append(merged, c.BlackoutDates...)
	merged = append(merged, days...)
	slices.SortFunc(merged, model.Date.Compare)
	c.BlackoutDates = slices.Compact(merged)
	return c
}

// IsBlackout reports whether at falls on a blackout day.
func (c Constraints) IsBlackout(at model.Civil) bool {
	return slices.ContainsFunc(c.BlackoutDates, func(d model.Date) bool {
		return zone.SameCalendarDay(d.At(model.Clock{}), at)
	})
}

// IsDisabled reports whether d falls on a disabled weekday.
func (c Constraints) IsDisabled(d model.Date) bool {
	return slices.Contains(c.DisabledDays, d.Weekday())
}

// ValidateDate checks minDate, maxDate, blackout days and disabled weekdays
// in that order and stops at the first failure. Bounds and blackouts
// compare calendar days; the time of day is ignored.
func ValidateDate(date model.Civil, c Constraints) DateResult {
	day := date.Date()

	if c.MinDate != nil && day.Compare(*c.MinDate) < 0 {
		return invalid(msgMinDate + c.MinDate.String())
	}
	if c.MaxDate != nil && day.Compare(*c.MaxDate) > 0 {
		return invalid(msgMaxDate + c.MaxDate.String())
	}
	if c.IsBlackout(date) {
		return invalid(MsgBlackout)
	}
	if c.IsDisabled(day) {
		return invalid(MsgDisabledDay)
	}
	return DateResult{Valid: true}
}

func invalid(msg string) DateResult {
	return DateResult{Valid: false, Error: msg}
}

// ValidateRange validates a whole range.
//
// Missing start or end values short-circuit with only the completeness
// errors. Otherwise per-side, ordering and duration problems accumulate.
// Ordering and duration compare the combined date+time values as wall-clock
// fields; they are not converted to instants, so a range spanning a DST
// transition is measured in civil time.
func ValidateRange(r model.Range, c Constraints) RangeResult {
	errs := make([]string, 0)

	if !r.Start.Complete() {
		errs = append(errs, MsgStartRequired)
	}
	if !r.End.Complete() {
		errs = append(errs, MsgEndRequired)
	}
	if len(errs) > 0 {
		return RangeResult{Valid: false, Errors: errs}
	}

	if res := ValidateDate(*r.Start.Date, c); !res.Valid {
		errs = append(errs, startPrefix+res.Error)
	}
	if res := ValidateDate(*r.End.Date, c); !res.Valid {
		errs = append(errs, endPrefix+res.Error)
	}

	start, _ := r.Start.Combined()
	end, _ := r.End.Combined()

	if start.Compare(end) >= 0 {
		errs = append(errs, MsgStartBeforeEnd)
	}

	d := end.Sub(start)
	if c.MinDuration != nil && d < *c.MinDuration {
		errs = append(errs, msgMinDuration+FormatDuration(*c.MinDuration))
	}
	if c.MaxDuration != nil && d > *c.MaxDuration {
		errs = append(errs, msgMaxDuration+FormatDuration(*c.MaxDuration))
	}

	return RangeResult{Valid: len(errs) == 0, Errors: errs}
}
