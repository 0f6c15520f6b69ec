// internal/app/features/visitorapi/handler.go
package visitorapi

import (
	"time"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the JSON endpoints used by the visitor kiosk and the
// self-registration form.
type Handler struct {
	Visits *visitstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
	Loc    *time.Location

	// DeviceID, when set, must match the "device" field of kiosk requests.
	DeviceID string

	// Limit throttles self-registration; nil disables it.
	Limit *ratelimit.SubmitLimiter

	// Clock returns the current time; tests pin it.
	Clock func() time.Time
}

// NewHandler constructs a Handler bound to db.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, loc *time.Location, deviceID string, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		Visits:   visitstore.New(db),
		ErrLog:   errLog,
		Log:      logger,
		Loc:      loc,
		DeviceID: deviceID,
		Limit:    ratelimit.NewSubmitLimiter(),
	}
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().In(h.Loc)
	}
	return time.Now().In(h.Loc)
}

// response is the envelope every endpoint answers with. Errors use the
// shared {"status":"error","message":...} shape from the error logger.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
