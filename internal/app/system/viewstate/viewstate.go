// Package viewstate keeps per-browser list-view state (the active filter
// predicate and each widget's saved state) in a signed cookie session.
package viewstate

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// DefaultSessionName is used when no session name is configured.
const DefaultSessionName = "visitdesk-view"

// State is what a list view restores on each request.
type State struct {
	Predicate predicate.Predicate `json:"predicate,omitempty"`
	Widgets   map[string]string   `json:"widgets,omitempty"`
}

// Store reads and writes State per view key.
type Store struct {
	sessions sessions.Store
	name     string
	log      *zap.Logger
}

// Options configure the cookie store.
type Options struct {
	Key    string // signing key; empty generates a random one (dev only)
	Name   string
	Domain string
	Secure bool
}

// New builds a cookie-backed Store.
//
// In production (Secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, Secure=false and SameSite=Lax.
func New(o Options, logger *zap.Logger) (*Store, error) {
	key := []byte(o.Key)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("generate session key: no randomness available")
		}
		logger.Warn("view state session key not set; using a random key (state resets on restart)")
	} else if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(key)))
	}

	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Domain:   o.Domain,
		Path:     "/",
		Secure:   o.Secure,
		HttpOnly: true,
	}
	if o.Secure {
		cs.Options.SameSite = http.SameSiteNoneMode
	} else {
		cs.Options.SameSite = http.SameSiteLaxMode
	}

	name := o.Name
	if name == "" {
		name = DefaultSessionName
	}

	logger.Info("view state store initialized",
		zap.Bool("secure", o.Secure),
		zap.String("domain", o.Domain))

	return NewWithSessions(cs, name, logger), nil
}

// NewWithSessions wraps an existing gorilla sessions.Store.
func NewWithSessions(s sessions.Store, name string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{sessions: s, name: name, log: logger}
}

// Load returns the saved state for viewKey. A missing, tampered, or
// unreadable cookie yields an empty State, and so does a predicate that no
// longer validates: widget state is only meaningful alongside its filter.
func (s *Store) Load(r *http.Request, viewKey string) State {
	sess, err := s.sessions.Get(r, s.name)
	if err != nil {
		s.logSessionErr(err, viewKey)
	}

	raw, _ := sess.Values[viewKey].(string)
	if raw == "" {
		return State{}
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.log.Warn("discarding unreadable view state",
			zap.String("view", viewKey), zap.Error(err))
		return State{}
	}
	if err := st.Predicate.Validate(); err != nil {
		s.log.Warn("discarding view state with invalid predicate",
			zap.String("view", viewKey), zap.Error(err))
		return State{}
	}
	return st
}

// Save writes st for viewKey onto the response.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, viewKey string, st State) error {
	sess, err := s.sessions.Get(r, s.name)
	if err != nil {
		s.logSessionErr(err, viewKey)
	}

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	sess.Values[viewKey] = string(b)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

// Clear removes the saved state for viewKey.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request, viewKey string) error {
	sess, err := s.sessions.Get(r, s.name)
	if err != nil {
		s.logSessionErr(err, viewKey)
	}
	delete(sess.Values, viewKey)
	return sess.Save(r, w)
}

func (s *Store) logSessionErr(err error, viewKey string) {
	if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
		s.log.Warn("view state cookie invalid, using fresh session",
			zap.String("view", viewKey), zap.Error(err))
		return
	}
	s.log.Error("view state session error, using fresh session",
		zap.String("view", viewKey), zap.Error(err))
}
