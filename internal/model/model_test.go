package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: Clock{0, 0}},
		{in: "09:05", want: Clock{9, 5}},
		{in: "23:59", want: Clock{23, 59}},
		{in: "24:00", wantErr: true},
		{in: "9:05", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "", wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, got.String())
		})
	}
}

func TestCivilCompareAndSub(t *testing.T) {
	t.Parallel()
	a := Civil{Year: 2025, Month: time.January, Day: 15, Hour: 9}
	b := Civil{Year: 2025, Month: time.January, Day: 15, Hour: 10}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, time.Hour, b.Sub(a))

	// Across a month boundary the fields roll over like a calendar.
	c := Civil{Year: 2025, Month: time.February, Day: 1}
	d := Civil{Year: 2025, Month: time.January, Day: 31}
	assert.Equal(t, 24*time.Hour, c.Sub(d))
}

func TestDate(t *testing.T) {
	t.Parallel()
	d := NewDate(2025, time.January, 5)
	assert.Equal(t, time.Sunday, d.Weekday())
	assert.Equal(t, "2025-01-05", d.String())
	assert.Equal(t, NewDate(2024, time.December, 31), d.AddDays(-5))
	assert.Equal(t, -1, d.Compare(d.AddDays(1)))

	parsed, err := ParseDate("2025-02-29")
	require.ErrorIs(t, err, ErrInvalidDate)
	assert.Equal(t, Date{}, parsed)
}

func TestParseCivil(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Civil{
		"2025-01-15T09:30":    {Year: 2025, Month: time.January, Day: 15, Hour: 9, Minute: 30},
		"2025-01-15T09:30:45": {Year: 2025, Month: time.January, Day: 15, Hour: 9, Minute: 30, Second: 45},
		"2025-01-15":          {Year: 2025, Month: time.January, Day: 15},
	} {
		got, err := ParseCivil(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCivil("15/01/2025")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestRangeJSON(t *testing.T) {
	t.Parallel()
	body := `{"start":{"date":"2025-01-15","time":"09:00"},"end":{"date":null,"time":"10:00"},"zone":"UTC"}`

	var r Range
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	require.NotNil(t, r.Start.Date)
	assert.True(t, r.Start.Complete())
	assert.False(t, r.End.Complete())

	start, ok := r.Start.Combined()
	require.True(t, ok)
	assert.Equal(t, Civil{Year: 2025, Month: time.January, Day: 15, Hour: 9}, start)

	_, ok = r.End.Combined()
	assert.False(t, ok)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":{"date":"2025-01-15T00:00:00","time":"09:00"},"end":{"date":null,"time":"10:00"},"zone":"UTC"}`, string(out))
}

func TestWithClockDropsSeconds(t *testing.T) {
	t.Parallel()
	c := Civil{Year: 2025, Month: time.June, Day: 1, Hour: 1, Minute: 2, Second: 3}
	got := c.WithClock(MustClock("23:59"))
	assert.Equal(t, Civil{Year: 2025, Month: time.June, Day: 1, Hour: 23, Minute: 59}, got)
	assert.Equal(t, c.Date(), got.Date())
}
