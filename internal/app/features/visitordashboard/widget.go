// internal/app/features/visitordashboard/widget.go
package visitordashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"go.uber.org/zap"
)

// CountsProvider returns per-status visit totals.
type CountsProvider interface {
	StatusCounts(ctx context.Context) (visitstatus.Counts, error)
}

// QueryFilter is the shared filter object of the list view the widget sits in.
type QueryFilter interface {
	ClearAll() error
	Install(p predicate.Predicate) error
}

// ErrUnknownStatus is returned by ToggleStatus and RestoreState for a status
// outside the visit lifecycle.
var ErrUnknownStatus = errors.New("unknown visit status")

// Widget shows visit counts by status and filters its list view to one
// status for today when a status is toggled on.
//
// Invariant: Selected() is empty exactly when the widget has no predicate
// installed on its QueryFilter.
type Widget struct {
	provider CountsProvider
	query    QueryFilter
	now      func() time.Time
	log      *zap.Logger

	mu        sync.Mutex
	selected  string
	counts    visitstatus.Counts
	loaded    bool
	destroyed bool
	subs      []func()
}

// Option configures a Widget.
type Option func(*Widget)

// WithClock sets the wall clock used for day boundaries. The location of the
// returned time decides what "today" means.
func WithClock(now func() time.Time) Option {
	return func(w *Widget) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the widget's logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Widget) {
		if l != nil {
			w.log = l
		}
	}
}

// New builds a Widget over the given collaborators.
func New(provider CountsProvider, query QueryFilter, opts ...Option) *Widget {
	w := &Widget{
		provider: provider,
		query:    query,
		now:      time.Now,
		log:      zap.NewNop(),
		counts:   visitstatus.NewCounts(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Initialize fetches the status counts once and replaces the current counts
// wholesale. Errors are returned unchanged in meaning; there is no fallback.
// A result that arrives after Destroy is discarded.
func (w *Widget) Initialize(ctx context.Context) error {
	counts, err := w.provider.StatusCounts(ctx)
	if err != nil {
		return fmt.Errorf("fetch status counts: %w", err)
	}

	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		w.log.Debug("visitor dashboard destroyed before counts arrived; discarding")
		return nil
	}
	w.counts = counts.Complete()
	w.loaded = true
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs)
	return nil
}

// ToggleStatus selects status and filters the list to it for today, or
// clears the filter when status is already selected.
//
// Selecting always clears every predicate on the query object first, so
// filters installed by anything else are dropped as well.
func (w *Widget) ToggleStatus(status string) error {
	if !visitstatus.Valid(status) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	if w.IsActive(status) {
		if err := w.query.ClearAll(); err != nil {
			return fmt.Errorf("clear filter: %w", err)
		}
		w.setSelected("")
		return nil
	}

	p := predicate.StatusForDay(status, w.now())

	if err := w.query.ClearAll(); err != nil {
		return fmt.Errorf("clear filter: %w", err)
	}
	if err := w.query.Install(p); err != nil {
		// The old predicate is gone; selection must not claim otherwise.
		w.setSelected("")
		return fmt.Errorf("install %s filter: %w", status, err)
	}

	w.setSelected(status)
	w.log.Debug("visitor dashboard filter installed",
		zap.String("status", status),
		zap.String("from", p[1].Value),
		zap.String("to", p[2].Value))
	return nil
}

// IsActive reports whether status is the current selection.
func (w *Widget) IsActive(status string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected != "" && w.selected == status
}

// Selected returns the selected status, or "" for none.
func (w *Widget) Selected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// Counts returns a copy of the last fetched counts.
func (w *Widget) Counts() visitstatus.Counts {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts.Complete()
}

// Loaded reports whether Initialize has completed successfully.
func (w *Widget) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

// Subscribe registers fn to run after each state change (counts replaced or
// selection changed).
func (w *Widget) Subscribe(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return
	}
	w.subs = append(w.subs, fn)
}

// Destroy detaches subscribers and makes later Initialize results no-ops.
func (w *Widget) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	w.subs = nil
}

// SaveState returns the selection so the host can persist it.
func (w *Widget) SaveState() string {
	return w.Selected()
}

// RestoreState re-applies a saved selection. The matching predicate is
// restored by the host on the query object; nothing is installed here.
func (w *Widget) RestoreState(s string) error {
	if s != "" && !visitstatus.Valid(s) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = s
	return nil
}

func (w *Widget) setSelected(s string) {
	w.mu.Lock()
	if w.selected == s {
		w.mu.Unlock()
		return
	}
	w.selected = s
	var subs []func()
	if !w.destroyed {
		subs = w.subscribers()
	}
	w.mu.Unlock()

	notify(subs)
}

func (w *Widget) subscribers() []func() {
	out := make([]func(), len(w.subs))
	copy(out, w.subs)
	return out
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
