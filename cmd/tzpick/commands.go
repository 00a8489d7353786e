package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tzpick/internal/config"
	"tzpick/internal/constraint"
	"tzpick/internal/model"
	"tzpick/internal/preset"
	"tzpick/internal/zone"
)

var (
	okColor   = color.New(color.FgGreen)
	badColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.FgHiBlack)
)

func newZonesCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List the supported timezones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range zone.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Label, e.Region)
			}
			return tw.Flush()
		},
	}
}

func newOffsetCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "offset ZONE",
		Short: "Show the UTC offset of a zone at an instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.instant("at", at)
			if err != nil {
				return err
			}
			off, err := a.converter().Offset(t, args[0])
			if err != nil {
				return err
			}
			dst := dimColor.Sprint("standard")
			if off.IsDST {
				dst = warnColor.Sprint("daylight")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d min) %s %s\n",
				args[0], formatOffset(off.Minutes), off.Minutes, off.Abbreviation, dst)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant in RFC 3339 (default now)")
	return cmd
}

func newCivilCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "civil ZONE",
		Short: "Convert an instant to the wall-clock time in a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.instant("at", at)
			if err != nil {
				return err
			}
			c, err := a.converter().InstantToCivil(t, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant in RFC 3339 (default now)")
	return cmd
}

func newInstantCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "instant ZONE CIVIL",
		Short: "Convert a wall-clock time (YYYY-MM-DDTHH:MM) in a zone to an instant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			civil, err := model.ParseCivil(args[1])
			if err != nil {
				return err
			}
			res, err := a.converter().Classify(civil, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, res.Resolved.UTC().Format(time.RFC3339))
			switch res.Kind {
			case zone.Gap:
				warnColor.Fprintln(w, "warning: this time does not exist in", args[0], "(skipped by a DST change)")
			case zone.Ambiguous:
				warnColor.Fprintln(w, "warning: this time occurs twice in", args[0])
				for _, c := range res.Candidates {
					fmt.Fprintln(w, "  candidate", c.UTC().Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}

func newFormatCmd(a *app) *cobra.Command {
	var at, style string
	cmd := &cobra.Command{
		Use:   "format ZONE",
		Short: "Render an instant for display in a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.instant("at", at)
			if err != nil {
				return err
			}
			s, err := zone.ParseStyle(style)
			if err != nil {
				return err
			}
			out, err := a.converter().FormatInTimezone(t, args[0], s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant in RFC 3339 (default now)")
	cmd.Flags().StringVar(&style, "style", "short", "short or long")
	return cmd
}

func newTransitionsCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "transitions ZONE",
		Short: "List offset changes of a zone within a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = a.now().Year()
			}
			from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			list, err := a.converter().Transitions(args[0], from, from.AddDate(1, 0, 0))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				dimColor.Fprintln(w, "no transitions")
				return nil
			}
			for _, tr := range list {
				fmt.Fprintf(w, "%s  %s %s -> %s %s\n", tr.At.Format(time.RFC3339),
					formatOffset(tr.Before.Minutes), tr.Before.Abbreviation,
					formatOffset(tr.After.Minutes), tr.After.Abbreviation)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default current)")
	return cmd
}

func newPresetsCmd(a *app) *cobra.Command {
	var zoneName, now string
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Show the quick-select ranges for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.instant("now", now)
			if err != nil {
				return err
			}
			loc, err := a.converter().Location(zoneName)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range preset.All(t, loc) {
				fmt.Fprintf(tw, "%s\t%s %s\t%s %s\t%d days\n", p.Label,
					model.DateOf(p.Start), p.StartTime, model.DateOf(p.End), p.EndTime, p.Days())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&zoneName, "zone", "UTC", "zone deciding what today is")
	cmd.Flags().StringVar(&now, "now", "", "reference instant in RFC 3339 (default now)")
	return cmd
}

func newValidateRangeCmd(a *app) *cobra.Command {
	var (
		zoneName, start, end string
		cc                   config.ConstraintsConfig
	)
	cmd := &cobra.Command{
		Use:   "validate-range",
		Short: "Validate a date-time range against constraints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cc.Build()
			if err != nil {
				return err
			}
			conv := a.converter()
			if _, err := conv.Location(zoneName); err != nil {
				return err
			}
			r := model.Range{Zone: zoneName}
			if r.Start, err = endpointFlag(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if r.End, err = endpointFlag(end); err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			return printRangeResult(cmd.OutOrStdout(), conv, r, constraint.ValidateRange(r, c))
		},
	}
	f := cmd.Flags()
	f.StringVar(&zoneName, "zone", "UTC", "zone the range is entered in")
	f.StringVar(&start, "start", "", "start as YYYY-MM-DDTHH:MM")
	f.StringVar(&end, "end", "", "end as YYYY-MM-DDTHH:MM")
	f.StringVar(&cc.MinDate, "min-date", "", "earliest allowed day (YYYY-MM-DD)")
	f.StringVar(&cc.MaxDate, "max-date", "", "latest allowed day (YYYY-MM-DD)")
	f.StringSliceVar(&cc.BlackoutDates, "blackout", nil, "unavailable days (YYYY-MM-DD)")
	f.StringSliceVar(&cc.DisabledDays, "disabled", nil, "disabled weekdays (names or 0-6)")
	f.StringVar(&cc.MinDuration, "min-duration", "", "shortest allowed range (e.g. 1h)")
	f.StringVar(&cc.MaxDuration, "max-duration", "", "longest allowed range (e.g. 168h)")
	return cmd
}

// endpointFlag turns "" into an empty endpoint and a civil value into a
// complete one.
func endpointFlag(v string) (model.Endpoint, error) {
	if v == "" {
		return model.Endpoint{}, nil
	}
	c, err := model.ParseCivil(v)
	if err != nil {
		return model.Endpoint{}, err
	}
	k := c.Clock()
	return model.Endpoint{Date: &c, Time: &k}, nil
}

func printRangeResult(w io.Writer, conv *zone.Converter, r model.Range, res constraint.RangeResult) error {
	if !res.Valid {
		for _, msg := range res.Errors {
			badColor.Fprintln(w, "✗", msg)
		}
		return errInvalid
	}
	okColor.Fprintln(w, "✓ valid")
	start, _ := r.Start.Combined()
	end, _ := r.End.Combined()
	elapsed, err := conv.Elapsed(start, end, r.Zone)
	if err != nil {
		return err
	}
	naive := end.Sub(start)
	fmt.Fprintf(w, "duration %s\n", constraint.FormatDuration(naive))
	if elapsed != naive {
		warnColor.Fprintf(w, "elapsed %s in %s (crosses a DST change)\n", constraint.FormatDuration(elapsed), r.Zone)
	}
	return nil
}

// formatOffset renders minutes east of UTC as "+05:45".
func formatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, minutes/60, minutes%60)
}
