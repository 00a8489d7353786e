package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tzpick/internal/model"
)

func calendar(events ...string) []byte {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//tzpick//test//EN"}
	for _, ev := range events {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, strings.Split(strings.TrimSpace(ev), "\n")...)
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR")
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func dates(ss ...string) []model.Date {
	out := make([]model.Date, 0, len(ss))
	for _, s := range ss {
		d, err := model.ParseDate(s)
		if err != nil {
			panic(err)
		}
		out = append(out, d)
	}
	return out
}

func year2025() Window {
	return Window{From: model.NewDate(2025, time.January, 1), To: model.NewDate(2025, time.December, 31)}
}

const (
	christmas = `
UID:christmas
SUMMARY:Christmas
DTSTART;VALUE=DATE:20241225
DTEND;VALUE=DATE:20241226
RRULE:FREQ=YEARLY`

	independence = `
UID:july4
SUMMARY:Independence Day weekend
DTSTART;VALUE=DATE:20250704
DTEND;VALUE=DATE:20250706`

	standup = `
UID:standup
SUMMARY:Standup
DTSTART:20250106T090000Z
DTEND:20250106T093000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20250113T090000Z`

	standupCancelled = `
UID:standup
RECURRENCE-ID:20250120T090000Z
DTSTART:20250120T090000Z
DTEND:20250120T093000Z
STATUS:CANCELLED`

	lateShift = `
UID:late-shift
DTSTART;TZID=America/New_York:20250310T230000
DTEND;TZID=America/New_York:20250311T010000`

	dropped = `
UID:dropped
DTSTART;VALUE=DATE:20250301
STATUS:CANCELLED`
)

func TestParseICS(t *testing.T) {
	t.Parallel()
	src := Source{ID: "holidays", URL: "https://example.com/h.ics"}
	events, err := ParseICS(src, calendar(christmas, independence, lateShift, dropped))
	require.NoError(t, err)
	require.Len(t, events, 4)

	xmas := events[0]
	assert.Equal(t, "christmas", xmas.UID)
	assert.True(t, xmas.AllDay)
	assert.Equal(t, time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), xmas.Start)
	assert.Equal(t, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), xmas.End)
	assert.Equal(t, "FREQ=YEARLY", xmas.RawRRule)
	assert.Equal(t, src, xmas.Source)

	shift := events[2]
	assert.False(t, shift.AllDay)
	assert.Equal(t, "America/New_York", shift.Start.Location().String())
	assert.Equal(t, 2*time.Hour, shift.End.Sub(shift.Start))

	// no DTEND on an all-day event means one day
	assert.True(t, events[3].Cancelled)
	assert.Equal(t, 24*time.Hour, events[3].End.Sub(events[3].Start))

	_, err = ParseICS(src, nil)
	assert.Error(t, err)
}

func TestParseICSSkipsEventsWithoutUID(t *testing.T) {
	t.Parallel()
	events, err := ParseICS(Source{ID: "x"}, calendar("DTSTART;VALUE=DATE:20250101", independence))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "july4", events[0].UID)
}

func TestExpandDays(t *testing.T) {
	t.Parallel()
	events, err := ParseICS(Source{ID: "cal"}, calendar(christmas, independence, standup, standupCancelled, dropped))
	require.NoError(t, err)

	days, err := ExpandDays(events, year2025())
	require.NoError(t, err)
	// EXDATE drops the 13th, the cancelled override drops the 20th.
	assert.Equal(t, dates("2025-01-06", "2025-01-27", "2025-07-04", "2025-07-05", "2025-12-25"), days)
}

func TestExpandDaysUsesWindowLocation(t *testing.T) {
	t.Parallel()
	events, err := ParseICS(Source{ID: "cal"}, calendar(lateShift))
	require.NoError(t, err)
	w := Window{From: model.NewDate(2025, time.March, 1), To: model.NewDate(2025, time.March, 31)}

	w.Location, _ = time.LoadLocation("America/New_York")
	days, err := ExpandDays(events, w)
	require.NoError(t, err)
	assert.Equal(t, dates("2025-03-10", "2025-03-11"), days)

	// 03:00Z-05:00Z on the 11th
	w.Location = time.UTC
	days, err = ExpandDays(events, w)
	require.NoError(t, err)
	assert.Equal(t, dates("2025-03-11"), days)
}

func TestExpandDaysClipsToWindow(t *testing.T) {
	t.Parallel()
	events, err := ParseICS(Source{ID: "cal"}, calendar(independence))
	require.NoError(t, err)
	w := Window{From: model.NewDate(2025, time.July, 5), To: model.NewDate(2025, time.July, 31)}
	days, err := ExpandDays(events, w)
	require.NoError(t, err)
	assert.Equal(t, dates("2025-07-05"), days)

	_, err = ExpandDays(events, Window{From: w.To, To: w.From})
	assert.Error(t, err)
}

func TestExpandOccurrencesCap(t *testing.T) {
	t.Parallel()
	events, err := ParseICS(Source{ID: "cal"}, calendar(`
UID:daily
DTSTART;VALUE=DATE:20250101
RRULE:FREQ=DAILY`))
	require.NoError(t, err)
	w := year2025()
	w.MaxOccurrencesPerEvent = 10
	occs, truncated, err := ExpandOccurrences(events, w)
	require.NoError(t, err)
	assert.Len(t, occs, 10)
	assert.Equal(t, []string{"daily"}, truncated)
}

func TestExpandRule(t *testing.T) {
	t.Parallel()
	week := Window{From: model.NewDate(2025, time.June, 2), To: model.NewDate(2025, time.June, 8)}

	tests := []struct {
		name string
		rule string
		w    Window
		want []model.Date
	}{
		{"weekends", "FREQ=WEEKLY;BYDAY=SA,SU", week, dates("2025-06-07", "2025-06-08")},
		{"prefixed", "RRULE:FREQ=WEEKLY;BYDAY=MO", week, dates("2025-06-02")},
		{"yearly with dtstart", "DTSTART:20201225T000000Z\nRRULE:FREQ=YEARLY", year2025(), dates("2025-12-25")},
		{"first monday of month", "FREQ=MONTHLY;BYDAY=+1MO", Window{
			From: model.NewDate(2025, time.January, 1),
			To:   model.NewDate(2025, time.March, 31),
		}, dates("2025-01-06", "2025-02-03", "2025-03-03")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExpandRule(tt.rule, tt.w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExpandRule("FREQ=SOMETIMES", week)
	assert.Error(t, err)
	_, err = ExpandRule("FREQ=HOURLY", week)
	assert.Error(t, err)
	_, err = ExpandRule("  ", week)
	assert.Error(t, err)
}

func TestExpandRuleStableAcrossWindows(t *testing.T) {
	t.Parallel()
	monday := Window{From: model.NewDate(2025, time.January, 6), To: model.NewDate(2025, time.January, 19)}
	tuesday := Window{From: model.NewDate(2025, time.January, 7), To: model.NewDate(2025, time.January, 20)}

	tests := []struct {
		rule    string
		monday  []model.Date
		tuesday []model.Date
	}{
		{"FREQ=WEEKLY", dates("2025-01-09", "2025-01-16"), dates("2025-01-09", "2025-01-16")},
		{"FREQ=DAILY;INTERVAL=7", dates("2025-01-09", "2025-01-16"), dates("2025-01-09", "2025-01-16")},
		{"FREQ=MONTHLY", nil, nil},
		{"FREQ=DAILY;COUNT=3", nil, nil},
	}
	for _, tt := range tests {
		got, err := ExpandRule(tt.rule, monday)
		require.NoError(t, err)
		assert.ElementsMatch(t, tt.monday, got, tt.rule)

		got, err = ExpandRule(tt.rule, tuesday)
		require.NoError(t, err)
		assert.ElementsMatch(t, tt.tuesday, got, tt.rule)
	}
}

func TestFetchOneConditional(t *testing.T) {
	t.Parallel()
	body := calendar(independence)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "holidays", URL: srv.URL + "/private.ics?token=abc"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, body, first.Body)

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, body, second.Body)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchOneFallsBackToCache(t *testing.T) {
	t.Parallel()
	body := calendar(christmas)
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "h", URL: srv.URL}
	_, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)

	failing.Store(true)
	res, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, body, res.Body)

	// a fresh cache has nothing to fall back to
	_, err = NewFetcher(t.TempDir()).FetchOne(context.Background(), src)
	assert.Error(t, err)
}

func TestFetchAllKeepsOrderAndCollectsErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.ics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), WithParallel(2))
	sources := []Source{
		{ID: "a", URL: srv.URL + "/a.ics"},
		{ID: "missing", URL: srv.URL + "/missing.ics"},
		{ID: "b", URL: srv.URL + "/b.ics"},
		{ID: "empty"},
	}
	results, errs := f.FetchAll(context.Background(), sources)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Source.ID)
	assert.Equal(t, "/a.ics", string(results[0].Body))
	assert.Equal(t, "b", results[1].Source.ID)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "missing")
	assert.Contains(t, errs[1].Error(), "empty")
}

func TestRedactURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://calendar.example.com/...(redacted)",
		redactURL("https://calendar.example.com/u/42/private.ics?token=secret"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
