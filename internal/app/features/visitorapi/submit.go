// internal/app/features/visitorapi/submit.go
package visitorapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/visitdesk/internal/app/system/inputval"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"go.uber.org/zap"
)

const maxBody = 64 << 10

// submitRequest is the self-registration payload. Unknown keys are ignored.
type submitRequest struct {
	Name         string `json:"name" validate:"required,max=200" label:"Name"`
	Company      string `json:"company" validate:"max=200" label:"Company"`
	Email        string `json:"email" validate:"omitempty,email" label:"Email"`
	Phone        string `json:"phone" validate:"required,phone" label:"Phone"`
	Purpose      string `json:"purpose" validate:"max=500" label:"Purpose"`
	Host         string `json:"host" validate:"max=200" label:"Host"`
	VisitingDate string `json:"visiting_date" validate:"omitempty,datetime=2006-01-02" label:"Visiting date"`
	WalkIn       bool   `json:"walk_in"`
}

type submitData struct {
	ID          string `json:"id"`
	QRToken     string `json:"qr_token"`
	VisitStatus string `json:"visit_status"`
	Updated     bool   `json:"updated"`
}

// HandleSubmit registers a visitor. A visitor who already has a visit today
// under the same phone number updates that visit instead of adding another.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode submit payload failed", err, "Request body must be a JSON object.", "")
		return
	}

	req.Name = htmlsanitize.Text(req.Name)
	req.Company = htmlsanitize.Text(req.Company)
	req.Purpose = htmlsanitize.Text(req.Purpose)
	req.Host = htmlsanitize.Text(req.Host)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.VisitingDate = strings.TrimSpace(req.VisitingDate)

	if res := inputval.Validate(req); res.HasErrors() {
		h.ErrLog.LogBadRequest(w, r, "invalid submit payload", errors.New(res.All()), res.First(), "")
		return
	}
	if h.Limit != nil {
		if ok, reason := h.Limit.Check(r, req.Phone); !ok {
			h.ErrLog.LogTooManyRequests(w, r, "visitor submit rate limited", reason)
			return
		}
	}

	now := h.now()
	visitingDate := now
	if req.VisitingDate != "" && !req.WalkIn {
		d, _ := time.ParseInLocation("2006-01-02", req.VisitingDate, h.Loc)
		y, m, dd := now.Date()
		if d.Before(time.Date(y, m, dd, 0, 0, 0, 0, h.Loc)) {
			h.ErrLog.LogBadRequest(w, r, "visiting date in the past", nil, "Visiting date cannot be in the past.", "")
			return
		}
		if !d.Equal(time.Date(y, m, dd, 0, 0, 0, 0, h.Loc)) {
			visitingDate = d
		}
	}

	visit := models.Visit{
		Name:         req.Name,
		Company:      req.Company,
		Email:        req.Email,
		Phone:        req.Phone,
		Purpose:      req.Purpose,
		Host:         req.Host,
		VisitingDate: visitingDate,
		VisitType:    models.VisitTypePreRegistered,
	}
	if req.WalkIn {
		visit.VisitType = models.VisitTypeWalkIn
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	existing, err := h.Visits.FindTodayByPhone(ctx, req.Phone, now)
	switch {
	case err == nil && visitingDate.Equal(now):
		visit.VisitingDate = time.Time{} // keep the original arrival time
		if err := h.Visits.Update(ctx, existing.ID, visit); err != nil {
			h.ErrLog.LogServerError(w, r, "update today's visit failed", err, "The visit could not be saved.", "")
			return
		}
		h.Log.Info("visitor resubmitted", zap.String("visit_id", existing.ID.Hex()))
		uierrors.WriteJSON(w, http.StatusOK, response{
			Status:  "ok",
			Message: "Visit updated.",
			Data: submitData{
				ID:          existing.ID.Hex(),
				QRToken:     existing.QRToken,
				VisitStatus: existing.Status,
				Updated:     true,
			},
		})
		return
	case err != nil && !errors.Is(err, visitstore.ErrNotFound):
		h.ErrLog.LogServerError(w, r, "look up today's visit failed", err, "The visit could not be saved.", "")
		return
	}

	created, err := h.Visits.Create(ctx, visit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create visit failed", err, "The visit could not be saved.", "")
		return
	}
	h.Log.Info("visitor submitted",
		zap.String("visit_id", created.ID.Hex()),
		zap.String("visit_type", created.VisitType))

	uierrors.WriteJSON(w, http.StatusCreated, response{
		Status:  "ok",
		Message: "Visit submitted.",
		Data: submitData{
			ID:          created.ID.Hex(),
			QRToken:     created.QRToken,
			VisitStatus: created.Status,
		},
	})
}
