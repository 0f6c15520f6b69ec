// internal/app/features/visits/view.go
package visits

import (
	"context"
	"errors"
	"net/http"

	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeView shows one visit with its actions.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, ok := h.loadVisit(ctx, w, r)
	if !ok {
		return
	}

	templates.Render(w, r, "visit_view", visitData{
		Title:     v.Name,
		CSRFToken: csrf.Token(r),
		BackURL:   httpnav.ResolveBackURL(r, "/visits"),
		Visit:     toRow(v, h.Loc, h.now()),
		Email:     v.Email,
		Phone:     v.Phone,
		QRToken:   v.QRToken,
		Reason:    v.CancellationReason,
	})
}

// ServeBadge shows the printable badge for a visit's QR token. Anyone
// holding the token can see it; it carries no contact details.
func (h *Handler) ServeBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token := chi.URLParam(r, "token")
	v, err := h.Visits.GetByQRToken(ctx, token)
	if errors.Is(err, visitstore.ErrNotFound) {
		h.ErrLog.LogNotFound(w, r, "badge not found", err, "Badge not found.", "/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load badge failed", err, "A database error occurred.", "/")
		return
	}

	templates.Render(w, r, "visit_badge", badgeData{
		Title:        "Visitor badge",
		Name:         v.Name,
		Company:      v.Company,
		Host:         v.Host,
		VisitingDate: v.VisitingDate.In(h.Loc).Format(displayLayout),
		QRToken:      v.QRToken,
		Approved:     v.Status == visitstatus.Approved,
	})
}

// loadVisit resolves the {id} URL param, writing the error response itself
// when it returns false.
func (h *Handler) loadVisit(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Visit, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid visit id", err, "Invalid visit ID.", "/visits")
		return models.Visit{}, false
	}
	v, err := h.Visits.GetByID(ctx, id)
	if errors.Is(err, visitstore.ErrNotFound) {
		h.ErrLog.LogNotFound(w, r, "visit not found", err, "Visit not found.", "/visits")
		return models.Visit{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load visit failed", err, "A database error occurred.", "/visits")
		return models.Visit{}, false
	}
	return v, true
}
