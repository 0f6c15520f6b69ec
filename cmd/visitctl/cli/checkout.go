package cli

import (
	"context"
	"fmt"

	visits "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/workers"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Check out every visitor still checked in",
	Long: `Run the nightly auto check-out once, now. Visitors who checked in
before now and have no check-out get one.`,
	RunE: runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) error {
	loc, err := location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
	defer cancel()

	db, closeFn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	w := workers.NewAutoCheckOut(visits.New(db), newLogger(), workers.DefaultAutoCheckOutSchedule, loc, timeouts.Long())
	n, err := w.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Checked out %d visitors\n", n)
	return nil
}
