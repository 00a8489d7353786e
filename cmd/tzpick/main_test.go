package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tzpick/internal/zone"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	now := func() time.Time { return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC) }
	root := newRootCmd(now)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestZonesCommand(t *testing.T) {
	out, err := run(t, "zones")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(zone.ListSupportedZones()))
	assert.True(t, strings.HasPrefix(lines[0], zone.ListSupportedZones()[0]))
}

func TestOffsetCommand(t *testing.T) {
	out, err := run(t, "offset", "Asia/Kathmandu", "--at", "2025-01-15T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kathmandu +05:45 (345 min) +0545 standard\n", out)

	out, err = run(t, "offset", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York -04:00 (-240 min) EDT daylight\n", out)

	_, err = run(t, "offset", "Mars/Olympus")
	assert.ErrorIs(t, err, zone.ErrUnknownTimezone)

	_, err = run(t, "offset", "UTC", "--at", "noon")
	assert.ErrorContains(t, err, "--at")
}

func TestCivilAndInstantCommands(t *testing.T) {
	out, err := run(t, "civil", "Asia/Tokyo", "--at", "2025-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T09:00:00\n", out)

	out, err = run(t, "instant", "America/New_York", "2025-01-15T09:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15T14:00:00Z\n", out)

	out, err = run(t, "instant", "America/New_York", "2025-03-09T02:30")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-09T07:30:00Z")
	assert.Contains(t, out, "does not exist")

	out, err = run(t, "instant", "America/New_York", "2025-11-02T01:30")
	require.NoError(t, err)
	assert.Contains(t, out, "occurs twice")
	assert.Equal(t, 2, strings.Count(out, "candidate"))
}

func TestFormatCommand(t *testing.T) {
	out, err := run(t, "format", "UTC", "--at", "2025-01-15T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "1/15/25, 2:30 PM\n", out)

	_, err = run(t, "format", "UTC", "--style", "tiny")
	assert.ErrorIs(t, err, zone.ErrUnknownStyle)
}

func TestTransitionsCommand(t *testing.T) {
	out, err := run(t, "transitions", "Europe/London", "--year", "2025")
	require.NoError(t, err)
	assert.Equal(t,
		"2025-03-30T01:00:00Z  +00:00 GMT -> +01:00 BST\n"+
			"2025-10-26T01:00:00Z  +01:00 BST -> +00:00 GMT\n", out)

	out, err = run(t, "transitions", "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "no transitions\n", out)
}

func TestPresetsCommand(t *testing.T) {
	out, err := run(t, "presets", "--zone", "UTC")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "Today"))
	assert.Contains(t, lines[3], "2025-06-04 00:00")
	assert.Contains(t, lines[3], "2025-06-10 23:59")
	assert.True(t, strings.HasSuffix(lines[3], "7 days"))
}

func TestValidateRangeCommand(t *testing.T) {
	out, err := run(t, "validate-range",
		"--zone", "America/New_York",
		"--start", "2025-03-09T00:00",
		"--end", "2025-03-09T12:00",
		"--min-duration", "1h")
	require.NoError(t, err)
	assert.Equal(t, "✓ valid\nduration 12 hours\nelapsed 11 hours in America/New_York (crosses a DST change)\n", out)

	out, err = run(t, "validate-range",
		"--start", "2025-01-05T09:00",
		"--end", "2025-01-05T08:00",
		"--disabled", "sun")
	assert.ErrorIs(t, err, errInvalid)
	assert.Equal(t, "✗ Start: Day of week is disabled\n"+
		"✗ End: Day of week is disabled\n"+
		"✗ Start must be before end\n", out)

	out, err = run(t, "validate-range", "--start", "2025-01-05T09:00")
	assert.ErrorIs(t, err, errInvalid)
	assert.Equal(t, "✗ End date and time are required\n", out)

	_, err = run(t, "validate-range", "--min-duration", "soon")
	assert.ErrorContains(t, err, "min_duration")

	_, err = run(t, "validate-range", "--zone", "Nowhere")
	assert.ErrorIs(t, err, zone.ErrUnknownTimezone)
}
