package cli

import (
	"context"
	"fmt"
	"time"

	visits "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	seedCount int
	seedDate  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo visits for one day",
	Long: `Insert demo visitors spread across the day and across all three
statuses, so the dashboard and list have something to show.

Examples:
  visitctl seed
  visitctl seed --count 40 --date 2024-03-15`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 12, "number of visits to insert")
	seedCmd.Flags().StringVar(&seedDate, "date", "", "visiting day, YYYY-MM-DD (default today)")
}

var (
	demoNames     = []string{"Alice Moreno", "Bob Okafor", "Chen Wei", "Dana Kowalski", "Emeka Nwosu", "Farah Haddad", "Gustavo Lima", "Hana Sato"}
	demoCompanies = []string{"Acme Corp", "Globex", "Initech", "Umbrella Ltd", ""}
	demoPurposes  = []string{"Interview", "Delivery", "Vendor meeting", "Maintenance"}
)

// demoVisits builds n visits on day's calendar date between 08:00 and
// 17:59, cycling through the statuses. Cancelled visits carry a reason.
func demoVisits(n int, day time.Time) []models.Visit {
	y, m, d := day.Date()
	statuses := visitstatus.All()

	out := make([]models.Visit, 0, n)
	for i := 0; i < n; i++ {
		at := time.Date(y, m, d, 8+i%10, (i*7)%60, 0, 0, day.Location())
		v := models.Visit{
			Name:         fmt.Sprintf("%s %d", demoNames[i%len(demoNames)], i+1),
			Company:      demoCompanies[i%len(demoCompanies)],
			Phone:        fmt.Sprintf("555%07d", i),
			Purpose:      demoPurposes[i%len(demoPurposes)],
			Status:       statuses[i%len(statuses)],
			VisitType:    models.VisitTypePreRegistered,
			VisitingDate: at,
		}
		if i%5 == 4 {
			v.VisitType = models.VisitTypeWalkIn
		}
		if v.Status == visitstatus.Cancelled {
			v.CancellationReason = "Rescheduled"
		}
		out = append(out, v)
	}
	return out
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	loc, err := location()
	if err != nil {
		return err
	}
	day, err := parseDay(seedDate, loc)
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

	log := newLogger()
	store := visits.New(db)
	for _, v := range demoVisits(seedCount, day) {
		created, err := store.Create(ctx, v)
		if err != nil {
			return fmt.Errorf("insert %s: %w", v.Name, err)
		}
		log.Debug("seeded visit",
			zap.String("id", created.ID.Hex()),
			zap.String("status", created.Status),
			zap.Time("visiting_date", created.VisitingDate))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d visits on %s\n", seedCount, day.Format("2006-01-02"))
	return nil
}
