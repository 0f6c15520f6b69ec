package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/spf13/cobra"
)

var (
	countsDate string
	countsJSON bool
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print visit counts by status for one day",
	Long: `Print how many visits are pending, approved and cancelled on a day,
using the same day boundaries as the dashboard.

Examples:
  visitctl counts
  visitctl counts --date 2024-03-15 --json`,
	RunE: runCounts,
}

func init() {
	countsCmd.Flags().StringVar(&countsDate, "date", "", "day to count, YYYY-MM-DD (default today)")
	countsCmd.Flags().BoolVar(&countsJSON, "json", false, "print JSON")
}

func runCounts(cmd *cobra.Command, args []string) error {
	loc, err := location()
	if err != nil {
		return err
	}
	day, err := parseDay(countsDate, loc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
	defer cancel()

	db, closeFn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	counts, err := visitstore.New(db).CountForDay(ctx, day)
	if err != nil {
		return fmt.Errorf("count visits: %w", err)
	}
	return printCounts(cmd.OutOrStdout(), day.Format("2006-01-02"), counts, countsJSON)
}

func printCounts(w io.Writer, date string, counts visitstatus.Counts, asJSON bool) error {
	counts = counts.Complete()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Date   string             `json:"date"`
			Counts visitstatus.Counts `json:"counts"`
		}{date, counts})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DATE\t%s\n", date)
	for _, s := range visitstatus.All() {
		fmt.Fprintf(tw, "%s\t%d\n", s, counts[s])
	}
	return tw.Flush()
}
