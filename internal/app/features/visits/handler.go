// internal/app/features/visits/handler.go
package visits

import (
	"time"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/mailer"
	"github.com/dalemusser/visitdesk/internal/app/system/paging"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
	"github.com/dalemusser/visitdesk/internal/app/system/viewstate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Mailer sends visitor notifications. *mailer.Mailer satisfies it.
type Mailer interface {
	Enabled() bool
	Send(e mailer.Email) error
}

// Config carries the settings the visits pages need from bootstrap.
type Config struct {
	Location *time.Location // zone that decides what "today" means
	PageSize int
	SiteName string
	BaseURL  string // absolute, used in emailed badge links
}

// Handler owns the staff-facing visit pages: the dashboard list view,
// registration, and the approve/cancel/check-in/check-out actions.
//
// It is constructed once at startup in bootstrap. Each request mounts its
// own copy of the list view from the shared Registry.
type Handler struct {
	Visits   *visitstore.Store
	Registry *viewregistry.Registry
	Views    *viewstate.Store
	Mail     Mailer
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	Loc      *time.Location
	Pager    paging.Pager
	SiteName string
	BaseURL  string

	// Clock returns the current time; tests pin it.
	Clock func() time.Time
}

// NewHandler constructs a Handler bound to db.
func NewHandler(db *mongo.Database, reg *viewregistry.Registry, views *viewstate.Store, mail Mailer, errLog *uierrors.ErrorLogger, cfg Config, logger *zap.Logger) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	siteName := cfg.SiteName
	if siteName == "" {
		siteName = "VisitDesk"
	}
	return &Handler{
		Visits:   visitstore.New(db),
		Registry: reg,
		Views:    views,
		Mail:     mail,
		ErrLog:   errLog,
		Log:      logger,
		Loc:      loc,
		Pager:    paging.New(cfg.PageSize),
		SiteName: siteName,
		BaseURL:  cfg.BaseURL,
	}
}

// now is the current time in the configured zone.
func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().In(h.Loc)
	}
	return time.Now().In(h.Loc)
}
