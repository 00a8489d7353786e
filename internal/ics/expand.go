package ics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "tzpick/internal/log"
	"tzpick/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// Window is the inclusive span of calendar days to expand into.
type Window struct {
	From model.Date
	To   model.Date

	// Location decides which days timed events fall on. Nil means UTC.
	Location *time.Location

	// MaxOccurrencesPerEvent caps each series. Zero means 5000.
	MaxOccurrencesPerEvent int
}

func (w Window) normalized() (Window, error) {
	if w.To.Compare(w.From) < 0 {
		return w, errors.New("expand: window ends before it starts")
	}
	if w.Location == nil {
		w.Location = time.UTC
	}
	if w.MaxOccurrencesPerEvent <= 0 {
		w.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	return w, nil
}

// bounds returns [from 00:00, to+1 00:00) in loc.
func (w Window) bounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(w.From.Year, w.From.Month, w.From.Day, 0, 0, 0, 0, loc)
	end := w.To.AddDays(1)
	return start, time.Date(end.Year, end.Month, end.Day, 0, 0, 0, 0, loc)
}

func (w Window) contains(d model.Date) bool {
	return d.Compare(w.From) >= 0 && d.Compare(w.To) <= 0
}

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	UID     string
	Summary string
	AllDay  bool
	Start   time.Time
	End     time.Time
}

// Days lists the calendar days the occurrence touches. All-day
// occurrences use their floating dates; timed ones are read in loc.
// End is exclusive.
func (o Occurrence) Days(loc *time.Location) []model.Date {
	var first, last model.Date
	if o.AllDay {
		first = model.DateOf(o.Start.UTC())
		last = model.DateOf(o.End.UTC()).AddDays(-1)
	} else {
		first = model.DateOf(o.Start.In(loc))
		end := o.End
		if end.After(o.Start) {
			end = end.Add(-time.Nanosecond)
		}
		last = model.DateOf(end.In(loc))
	}
	if last.Compare(first) < 0 {
		last = first
	}
	var out []model.Date
	for d := first; d.Compare(last) <= 0; d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// ExpandOccurrences expands events into the occurrences that overlap the
// window. It handles single events, RRULE series, EXDATE, RECURRENCE-ID
// overrides and cancelled instances. Truncated series are reported by UID.
func ExpandOccurrences(events []ParsedEvent, w Window) ([]Occurrence, []string, error) {
	w, err := w.normalized()
	if err != nil {
		return nil, nil, err
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		if ev.IsOverride() {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	var (
		out       []Occurrence
		truncated []string
	)
	for _, uid := range uids {
		hit := false
		for _, ev := range baseByUID[uid] {
			occ, capped := expandEvent(ev, overridesByUID[uid], w)
			hit = hit || capped
			out = append(out, occ...)
		}
		if hit {
			truncated = append(truncated, uid)
			appLog.Warn("expand: occurrences truncated", "uid", uid, "cap", w.MaxOccurrencesPerEvent)
		}
	}
	return out, truncated, nil
}

// ExpandDays returns the sorted, de-duplicated days inside the window
// covered by any non-cancelled occurrence of events.
func ExpandDays(events []ParsedEvent, w Window) ([]model.Date, error) {
	occs, _, err := ExpandOccurrences(events, w)
	if err != nil {
		return nil, err
	}
	w, _ = w.normalized()

	var days []model.Date
	for _, o := range occs {
		for _, d := range o.Days(w.Location) {
			if w.contains(d) {
				days = append(days, d)
			}
		}
	}
	return sortDays(days), nil
}

// ruleEpoch anchors bare rules so that a rule names the same days whatever
// window it is expanded over. 1970-01-01 is a Thursday: a bare
// "FREQ=WEEKLY" falls on Thursdays and COUNT is counted from here.
var ruleEpoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// ExpandRule returns the days inside the window matched by an RRULE.
// The rule may be a bare "FREQ=..." string, anchored at
// ruleEpoch and at most daily, or a
// "DTSTART:...\nRRULE:..." block.
func ExpandRule(rule string, w Window) ([]model.Date, error) {
	w, err := w.normalized()
	if err != nil {
		return nil, err
	}
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, errors.New("expand: empty rule")
	}

	var set *rrule.Set
	if strings.Contains(strings.ToUpper(rule), "DTSTART") {
		set, err = rrule.StrToRRuleSet(rule)
		if err != nil {
			return nil, fmt.Errorf("expand: rule %q: %w", rule, err)
		}
	} else {
		opt, err := rrule.StrToROption(strings.TrimPrefix(rule, "RRULE:"))
		if err != nil {
			return nil, fmt.Errorf("expand: rule %q: %w", rule, err)
		}
		if opt.Freq > rrule.DAILY {
			return nil, fmt.Errorf("expand: rule %q: frequency finer than daily", rule)
		}
		opt.Dtstart = ruleEpoch
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("expand: rule %q: %w", rule, err)
		}
		set = &rrule.Set{}
		set.RRule(r)
	}

	from, to := w.bounds(time.UTC)
	times := set.Between(from, to.Add(-time.Nanosecond), true)
	if len(times) > w.MaxOccurrencesPerEvent {
		times = times[:w.MaxOccurrencesPerEvent]
	}

	days := make([]model.Date, 0, len(times))
	for _, t := range times {
		// rule instants are read in their own zone: a DTSTART with TZID
		// names days in that zone.
		if d := model.DateOf(t); w.contains(d) {
			days = append(days, d)
		}
	}
	return sortDays(days), nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, w Window) ([]Occurrence, bool) {
	if ev.Cancelled {
		return nil, false
	}
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, w), false
	}
	return expandRecurringEvent(ev, overrides, w)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, w Window) []Occurrence {
	if o, ok := findOverrideForStart(overrides, ev.Start); ok {
		ev = o
	}
	if ev.Cancelled || !overlapsWindow(ev, w) {
		return nil
	}
	return []Occurrence{makeOccurrence(ev, ev.Start, ev.End)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, w Window) ([]Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen by the event length so instances that start before the window
	// but run into it are kept.
	length := ev.End.Sub(ev.Start)
	loc := w.Location
	if ev.AllDay {
		loc = time.UTC
	}
	from, to := w.bounds(loc)
	starts := set.Between(from.Add(-length), to, true)

	capped := false
	if len(starts) > w.MaxOccurrencesPerEvent {
		starts = starts[:w.MaxOccurrencesPerEvent]
		capped = true
	}

	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		inst := ev
		inst.Start = s
		inst.End = s.Add(length)
		if ev.AllDay {
			// floating days keep their count across DST shifts
			inst.End = s.AddDate(0, 0, int(length/(24*time.Hour)))
		}
		if o, ok := findOverrideForStart(overrides, s); ok {
			inst = o
		}
		if inst.Cancelled || !overlapsWindow(inst, w) {
			continue
		}
		out = append(out, makeOccurrence(inst, inst.Start, inst.End))
	}
	return out, capped
}

// findOverrideForStart finds the override whose RECURRENCE-ID names the
// instance starting at start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func makeOccurrence(ev ParsedEvent, start, end time.Time) Occurrence {
	return Occurrence{
		UID:     ev.UID,
		Summary: ev.Summary,
		AllDay:  ev.AllDay,
		Start:   start,
		End:     end,
	}
}

func overlapsWindow(ev ParsedEvent, w Window) bool {
	loc := w.Location
	if ev.AllDay {
		loc = time.UTC
	}
	from, to := w.bounds(loc)
	end := ev.End
	if !end.After(ev.Start) {
		// zero-length events still occupy their start instant
		end = ev.Start.Add(time.Nanosecond)
	}
	return ev.Start.Before(to) && end.After(from)
}

func sortDays(days []model.Date) []model.Date {
	slices.SortFunc(days, model.Date.Compare)
	return slices.Compact(days)
}
