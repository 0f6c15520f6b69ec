package visitstore

import (
	"context"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
)

// TodayCounts counts visits per status for the current day. It satisfies
// the dashboard's counts provider.
type TodayCounts struct {
	Store *Store
	Clock func() time.Time
}

func (t TodayCounts) StatusCounts(ctx context.Context) (visitstatus.Counts, error) {
	now := time.Now()
	if t.Clock != nil {
		now = t.Clock()
	}
	return t.Store.CountForDay(ctx, now)
}
