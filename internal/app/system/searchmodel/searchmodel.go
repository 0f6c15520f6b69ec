// Package searchmodel holds the active filter set for a list view.
//
// A Model is the object list views and their embedded widgets share: widgets
// install or clear predicates, and the list view reads the resulting Mongo
// filter when it queries. Observers registered with OnChange run after every
// mutation so the host can persist state or schedule a re-render.
package searchmodel

import (
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"go.mongodb.org/mongo-driver/bson"
)

// Model is safe for concurrent use.
type Model struct {
	mu    sync.Mutex
	preds predicate.Predicate
	subs  []func()
}

// New returns a Model seeded with initial, which must validate.
func New(initial predicate.Predicate) (*Model, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("seed search model: %w", err)
	}
	return &Model{preds: initial.Clone()}, nil
}

// ClearAll removes every active predicate, including ones installed by
// other widgets or the search bar.
func (m *Model) ClearAll() error {
	m.mu.Lock()
	m.preds = nil
	subs := m.subscribers()
	m.mu.Unlock()

	notify(subs)
	return nil
}

// Install validates p and appends its triples to the active conjunction.
// Callers that want replacement semantics call ClearAll first.
func (m *Model) Install(p predicate.Predicate) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("install predicate: %w", err)
	}

	m.mu.Lock()
	m.preds = append(m.preds, p...)
	subs := m.subscribers()
	m.mu.Unlock()

	notify(subs)
	return nil
}

// ReplaceField removes every active triple on field, then appends p. Other
// fields are left alone. p must only name field.
func (m *Model) ReplaceField(field string, p predicate.Predicate) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("replace %s predicate: %w", field, err)
	}
	for _, t := range p {
		if t.Field != field {
			return fmt.Errorf("replace %s predicate: triple on %q", field, t.Field)
		}
	}

	m.mu.Lock()
	kept := make(predicate.Predicate, 0, len(m.preds)+len(p))
	for _, t := range m.preds {
		if t.Field != field {
			kept = append(kept, t)
		}
	}
	m.preds = append(kept, p...)
	subs := m.subscribers()
	m.mu.Unlock()

	notify(subs)
	return nil
}

// Predicates returns a copy of the active conjunction.
func (m *Model) Predicates() predicate.Predicate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preds.Clone()
}

// Len returns the number of active triples.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.preds)
}

// Filter translates the active conjunction into a Mongo filter, reading
// timestamps as wall-clock time in loc.
func (m *Model) Filter(loc *time.Location) (bson.M, error) {
	return predicate.ToBSON(m.Predicates(), loc)
}

// OnChange registers fn to run after every mutation.
func (m *Model) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Model) subscribers() []func() {
	out := make([]func(), len(m.subs))
	copy(out, m.subs)
	return out
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
