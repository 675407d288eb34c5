package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/gatewatch/internal/timefmt"
)

// formatCmd converts wire timestamps to the dashboard's display form.
var formatCmd = &cobra.Command{
	Use:   "format <timestamp>...",
	Short: "Format timestamps the way the dashboard shows them",
	Long: `Convert ISO-8601 timestamps to "DD-MM-YYYY, HH:MM:SS" in IST.

Empty values and "N/A" print as N/A. Values that cannot be parsed are
printed unchanged, matching the dashboard. With --strict they are reported
as errors instead.

Example:
  gatewatch format 2024-01-15T10:30:00Z
  gatewatch format --offset +00:00 "2024-01-15 10:30:00"
  gatewatch format --strict 2024-13-01T00:00:00Z`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().Bool("strict", false, "fail on malformed timestamps instead of echoing them")
	formatCmd.Flags().String("offset", "+05:30", "UTC offset to display in (+hh:mm)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	offset, _ := cmd.Flags().GetString("offset")

	loc, err := timefmt.ParseOffset(offset)
	if err != nil {
		return err
	}
	f := timefmt.New(loc, nil)

	out := cmd.OutOrStdout()
	var malformed int
	for _, s := range args {
		if strict && s != "" && s != timefmt.NotAvailable {
			t, err := timefmt.Parse(s)
			if err != nil {
				malformed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%q: %v\n", s, err)
				continue
			}
			fmt.Fprintln(out, f.FormatTime(t))
			continue
		}
		fmt.Fprintln(out, f.Format(s))
	}

	if malformed > 0 {
		return fmt.Errorf("%d of %d timestamps malformed: %w", malformed, len(args), timefmt.ErrMalformedTimestamp)
	}
	return nil
}
