// Command tzpick is a terminal front end to the zone converter, presets
// and range validator.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tzpick/internal/zone"
)

// errInvalid marks a validation failure that was already printed.
var errInvalid = errors.New("invalid")

// app carries state shared by the subcommands.
type app struct {
	now      func() time.Time
	dstRules bool
}

func (a *app) converter() *zone.Converter {
	mode := zone.DSTHeuristic
	if a.dstRules {
		mode = zone.DSTRules
	}
	return zone.NewConverter(zone.WithDSTMode(mode))
}

// instant parses the RFC 3339 value of flag name; empty means now.
func (a *app) instant(name, v string) (time.Time, error) {
	if v == "" {
		return a.now(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want RFC 3339 like 2025-01-15T12:00:00Z", name, v)
	}
	return t, nil
}

func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}
	root := &cobra.Command{
		Use:           "tzpick",
		Short:         "Timezone conversion and date-range validation for the picker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&a.dstRules, "dst-rules", false, "report DST from the tz database instead of the six-month comparison")

	root.AddCommand(
		newZonesCmd(a),
		newOffsetCmd(a),
		newCivilCmd(a),
		newInstantCmd(a),
		newFormatCmd(a),
		newTransitionsCmd(a),
		newPresetsCmd(a),
		newValidateRangeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(time.Now).Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
