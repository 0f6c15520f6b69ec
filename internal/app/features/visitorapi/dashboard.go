// internal/app/features/visitorapi/dashboard.go
package visitorapi

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
)

type dashboardData struct {
	Date   string             `json:"date"`
	Counts visitstatus.Counts `json:"counts"`
}

// ServeDashboard returns today's visit counts per status.
//
//	{ "status":"ok", "data": { "date":"2024-03-15", "counts": {"pending":4,"approved":10,"cancelled":0} } }
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	now := h.now()
	counts, err := h.Visits.CountForDay(ctx, now)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count today's visits failed", err, "Unable to load counts.", "")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, response{
		Status: "ok",
		Data:   dashboardData{Date: now.Format("2006-01-02"), Counts: counts},
	})
}
