// internal/app/system/workers/autocheckout.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAutoCheckOutSchedule runs five minutes before local midnight.
const DefaultAutoCheckOutSchedule = "55 23 * * *"

// CheckOuter closes visits that are still checked in.
type CheckOuter interface {
	AutoCheckOut(ctx context.Context, cutoff time.Time) (int64, error)
}

// AutoCheckOut is a cron worker that checks out visitors who never
// scanned out, so the next day starts with nobody on site.
type AutoCheckOut struct {
	visits   CheckOuter
	log      *zap.Logger
	schedule string
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// NewAutoCheckOut creates the worker. The schedule is evaluated in loc.
//
// Parameters:
//   - visits: the store that performs the check-out
//   - logger: zap logger for logging
//   - schedule: five-field cron expression (e.g., "55 23 * * *")
//   - loc: time zone for both the schedule and "now"
//   - timeout: bound for one run
func NewAutoCheckOut(visits CheckOuter, logger *zap.Logger, schedule string, loc *time.Location, timeout time.Duration) *AutoCheckOut {
	if loc == nil {
		loc = time.Local
	}
	if schedule == "" {
		schedule = DefaultAutoCheckOutSchedule
	}
	return &AutoCheckOut{
		visits:   visits,
		log:      logger,
		schedule: schedule,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().In(loc) },
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// Start registers the job and starts the scheduler.
func (w *AutoCheckOut) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		_, _ = w.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule auto check-out: %w", err)
	}
	w.entryID = id
	w.cron.Start()

	w.log.Info("auto check-out worker started",
		zap.String("schedule", w.schedule),
		zap.Time("next_run", w.cron.Entry(id).Next))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (w *AutoCheckOut) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	<-w.cron.Stop().Done()
	w.log.Info("auto check-out worker stopped")
}

// RunOnce checks out every visit that started before now and is still
// open. It returns how many were closed.
func (w *AutoCheckOut) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now()
	n, err := w.visits.AutoCheckOut(ctx, cutoff)
	if err != nil {
		w.log.Error("auto check-out failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		w.log.Info("auto checked out visitors", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
