package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB       Pinger
	Location *time.Location
	Log      *zap.Logger
}

// NewHandler constructs a health Handler. loc is reported so operators can
// confirm which zone "today" is computed in.
func NewHandler(db Pinger, loc *time.Location, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Location: loc, Log: logger}
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	TimeZone  string `json:"time_zone,omitempty"`
	LocalDate string `json:"local_date,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "time_zone":"America/New_York", "local_date":"2024-03-15" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{Status: "ok", Database: "connected"}
	if h.Location != nil {
		resp.TimeZone = h.Location.String()
		resp.LocalDate = time.Now().In(h.Location).Format("2006-01-02")
	}

	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
	}

	_ = json.NewEncoder(w).Encode(resp)
}
