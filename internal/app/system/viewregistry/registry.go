// Package viewregistry maps stable names to embeddable widgets and list view
// variants. Registration is explicit: bootstrap creates a Registry, passes it
// to each feature's Register function, and hands it to the handlers that
// mount views. There is no package-level registry.
package viewregistry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/searchmodel"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"go.uber.org/zap"
)

var (
	ErrDuplicate = errors.New("already registered")
	ErrNotFound  = errors.New("not registered")
)

// Widget is a component a view embeds next to its rows.
type Widget interface {
	// Initialize loads whatever the widget needs before first render.
	Initialize(ctx context.Context) error
	// Destroy tears the widget down; results arriving afterwards are dropped.
	Destroy()
	// SaveState and RestoreState carry widget state between requests.
	SaveState() string
	RestoreState(s string) error
}

// CountsSource supplies per-status totals.
type CountsSource interface {
	StatusCounts(ctx context.Context) (visitstatus.Counts, error)
}

// Env is what a view shares with the widgets it embeds.
type Env struct {
	Search *searchmodel.Model
	Counts CountsSource
	Clock  func() time.Time
	Log    *zap.Logger
}

// WidgetFactory builds a widget bound to env.
type WidgetFactory func(env Env) Widget

// View describes a list view variant.
type View struct {
	Key           string
	Title         string
	PageTemplate  string   // full page
	TableTemplate string   // rows only, for HTMX swaps
	Widgets       []string // widget names, in render order
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]WidgetFactory
	views   map[string]View
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		widgets: make(map[string]WidgetFactory),
		views:   make(map[string]View),
	}
}

// RegisterWidget adds a widget factory under name.
func (r *Registry) RegisterWidget(name string, f WidgetFactory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register widget: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.widgets[name]; ok {
		return fmt.Errorf("widget %q: %w", name, ErrDuplicate)
	}
	r.widgets[name] = f
	return nil
}

// RegisterView adds a list view variant under v.Key. Every widget the view
// embeds must already be registered.
func (r *Registry) RegisterView(v View) error {
	if v.Key == "" {
		return fmt.Errorf("register view: key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[v.Key]; ok {
		return fmt.Errorf("view %q: %w", v.Key, ErrDuplicate)
	}
	for _, name := range v.Widgets {
		if _, ok := r.widgets[name]; !ok {
			return fmt.Errorf("view %q embeds widget %q: %w", v.Key, name, ErrNotFound)
		}
	}
	r.views[v.Key] = v
	return nil
}

// View looks up a registered view by key.
func (r *Registry) View(key string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[key]
	return v, ok
}

// NewWidget instantiates the widget registered under name.
func (r *Registry) NewWidget(name string, env Env) (Widget, error) {
	r.mu.RLock()
	f, ok := r.widgets[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("widget %q: %w", name, ErrNotFound)
	}
	return f(env), nil
}

// Mount instantiates the view's widgets against env and restores their
// saved state (keyed by widget name).
func (r *Registry) Mount(key string, env Env, saved map[string]string) (*Mounted, error) {
	v, ok := r.View(key)
	if !ok {
		return nil, fmt.Errorf("view %q: %w", key, ErrNotFound)
	}

	m := &Mounted{View: v, widgets: make(map[string]Widget, len(v.Widgets))}
	for _, name := range v.Widgets {
		w, err := r.NewWidget(name, env)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		if s := saved[name]; s != "" {
			if err := w.RestoreState(s); err != nil {
				w.Destroy()
				m.Destroy()
				return nil, fmt.Errorf("restore widget %q: %w", name, err)
			}
		}
		m.widgets[name] = w
	}
	return m, nil
}

// Mounted is a view with live widget instances.
type Mounted struct {
	View    View
	widgets map[string]Widget
}

// Widget returns the live instance of the named widget, or nil.
func (m *Mounted) Widget(name string) Widget {
	return m.widgets[name]
}

// Initialize initializes every widget in render order, stopping at the
// first failure.
func (m *Mounted) Initialize(ctx context.Context) error {
	for _, name := range m.View.Widgets {
		if err := m.widgets[name].Initialize(ctx); err != nil {
			return fmt.Errorf("initialize widget %q: %w", name, err)
		}
	}
	return nil
}

// SaveStates collects non-empty widget state keyed by widget name.
func (m *Mounted) SaveStates() map[string]string {
	out := make(map[string]string)
	for name, w := range m.widgets {
		if s := w.SaveState(); s != "" {
			out[name] = s
		}
	}
	return out
}

// Destroy tears down every widget.
func (m *Mounted) Destroy() {
	for _, w := range m.widgets {
		w.Destroy()
	}
}
