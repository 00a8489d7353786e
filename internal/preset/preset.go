// Package preset builds the fixed relative ranges offered as quick picks.
// Every builder is a pure function of "now" and a reference location.
package preset

import (
	"time"

	"tzpick/internal/model"
)

const (
	Today      = "Today"
	Yesterday  = "Yesterday"
	Tomorrow   = "Tomorrow"
	Last7Days  = "Last 7 Days"
	Last30Days = "Last 30 Days"
	ThisMonth  = "This Month"
	LastMonth  = "Last Month"
	Last90Days = "Last 90 Days"

	// StartTime and EndTime are the clock strings attached to every preset.
	// The instants carry full start/end-of-day precision; consumers reading
	// only the strings must treat these values as the contract.
	StartTime = "00:00"
	EndTime   = "23:59"
)

// Range is a ready-made selection.
type Range struct {
	Label     string    `json:"label"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

type builder struct {
	name  string
	build func(today model.Date) (first, last model.Date)
}

var builders = []builder{
	{Today, func(d model.Date) (model.Date, model.Date) { return d, d }},
	{Yesterday, func(d model.Date) (model.Date, model.Date) { return d.AddDays(-1), d.AddDays(-1) }},
	{Tomorrow, func(d model.Date) (model.Date, model.Date) { return d.AddDays(1), d.AddDays(1) }},
	{Last7Days, lastDays(7)},
	{Last30Days, lastDays(30)},
	{ThisMonth, func(d model.Date) (model.Date, model.Date) {
		first := model.NewDate(d.Year, d.Month, 1)
		return first, lastOfMonth(first)
	}},
	{LastMonth, func(d model.Date) (model.Date, model.Date) {
		first := model.DateOf(time.Date(d.Year, d.Month-1, 1, 0, 0, 0, 0, time.UTC))
		return first, lastOfMonth(first)
	}},
	{Last90Days, lastDays(90)},
}

// lastDays covers today and the n-1 preceding calendar days.
func lastDays(n int) func(model.Date) (model.Date, model.Date) {
	return func(d model.Date) (model.Date, model.Date) {
		return d.AddDays(-(n - 1)), d
	}
}

func lastOfMonth(first model.Date) model.Date {
	return model.DateOf(time.Date(first.Year, first.Month+1, 0, 0, 0, 0, 0, time.UTC))
}

// Names returns the preset labels in display order.
func Names() []string {
	out := make([]string, 0, len(builders))
	for _, b := range builders {
		out = append(out, b.name)
	}
	return out
}

// All evaluates every preset for now as seen in loc. A nil loc means UTC.
func All(now time.Time, loc *time.Location) []Range {
	today := todayIn(now, loc)
	out := make([]Range, 0, len(builders))
	for _, b := range builders {
		out = append(out, makeRange(b, today, loc))
	}
	return out
}

// ByName evaluates a single preset.
func ByName(name string, now time.Time, loc *time.Location) (Range, bool) {
	for _, b := range builders {
		if b.name == name {
			return makeRange(b, todayIn(now, loc), loc), true
		}
	}
	return Range{}, false
}

func todayIn(now time.Time, loc *time.Location) model.Date {
	if loc == nil {
		loc = time.UTC
	}
	return model.DateOf(now.In(loc))
}

func makeRange(b builder, today model.Date, loc *time.Location) Range {
	if loc == nil {
		loc = time.UTC
	}
	first, last := b.build(today)
	return Range{
		Label:     b.name,
		Start:     time.Date(first.Year, first.Month, first.Day, 0, 0, 0, 0, loc),
		End:       time.Date(last.Year, last.Month, last.Day, 23, 59, 59, int(999*time.Millisecond), loc),
		StartTime: StartTime,
		EndTime:   EndTime,
	}
}

// Days is the number of calendar days the preset covers, inclusive.
func (r Range) Days() int {
	first := model.DateOf(r.Start)
	last := model.DateOf(r.End)
	n := 1
	for d := first; d.Compare(last) < 0; d = d.AddDays(1) {
		n++
	}
	return n
}

// ToModel converts the preset into an editable range in zone. Only the
// calendar days and the "HH:MM" strings are carried over.
func (r Range) ToModel(zone string) model.Range {
	start := model.CivilOf(r.Start)
	end := model.CivilOf(r.End)
	startClock := model.MustClock(r.StartTime)
	endClock := model.MustClock(r.EndTime)
	start, end = start.WithClock(startClock), end.WithClock(endClock)
	return model.Range{
		Start: model.Endpoint{Date: &start, Time: &startClock},
		End:   model.Endpoint{Date: &end, Time: &endClock},
		Zone:  zone,
	}
}
