// internal/app/features/visitorapi/verify.go
package visitorapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/inputval"
	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errDeviceMismatch = errors.New("device id does not match")

type kioskRequest struct {
	Device string `json:"device"`
}

type attendanceRequest struct {
	Device  string `json:"device"`
	VisitID string `json:"visit_id" validate:"required,objectid" label:"Visit ID"`
	Action  string `json:"action" validate:"required,oneof=checkin checkout" label:"Action"`
}

type attendanceData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Action   string `json:"action"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
}

// HandleVerify scans a badge at the kiosk. An approved visit for today is
// checked in, or checked out when the visitor is already on site.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req kioskRequest
	if !h.decodeKiosk(w, r, &req) || !h.checkDevice(w, r, req.Device) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Visits.GetByQRToken(ctx, chi.URLParam(r, "token"))
	if errors.Is(err, visitstore.ErrNotFound) || (err == nil && v.Status != visitstatus.Approved) {
		h.ErrLog.LogNotFound(w, r, "badge not recognised", err, "QR does not match any approved visitor.", "")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "look up badge failed", err, "Internal server error.", "")
		return
	}
	if !h.isToday(v) {
		h.ErrLog.LogConflict(w, r, "badge scanned on wrong day", visitstore.ErrNotToday, "Visitor registered, but not scheduled for today.", "")
		return
	}

	action := "checkin"
	if v.IsCheckedIn() {
		action = "checkout"
	}
	h.attend(ctx, w, r, v.ID, action)
}

// HandleCheckInOut records a kiosk check-in or check-out by visit ID.
func (h *Handler) HandleCheckInOut(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !h.decodeKiosk(w, r, &req) || !h.checkDevice(w, r, req.Device) {
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		h.ErrLog.LogBadRequest(w, r, "invalid attendance payload", errors.New(res.All()), res.First(), "")
		return
	}
	id, _ := primitive.ObjectIDFromHex(req.VisitID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if req.Action == "checkin" {
		v, err := h.Visits.GetByID(ctx, id)
		if errors.Is(err, visitstore.ErrNotFound) {
			h.ErrLog.LogNotFound(w, r, "visit not found", err, "Visitor not found.", "")
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load visit failed", err, "Internal server error.", "")
			return
		}
		if !h.isToday(v) {
			h.ErrLog.LogConflict(w, r, "check in on wrong day", visitstore.ErrNotToday, "Visitor registered, but not scheduled for today.", "")
			return
		}
	}
	h.attend(ctx, w, r, id, req.Action)
}

func (h *Handler) attend(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID, action string) {
	var (
		v   models.Visit
		err error
	)
	now := h.now()
	if action == "checkin" {
		v, err = h.Visits.CheckIn(ctx, id, now)
	} else {
		v, err = h.Visits.CheckOut(ctx, id, now)
	}

	switch {
	case errors.Is(err, visitstore.ErrNotFound):
		h.ErrLog.LogNotFound(w, r, "visit not found", err, "Visitor not found.", "")
		return
	case errors.Is(err, visitstore.ErrNotApproved),
		errors.Is(err, visitstore.ErrAlreadyCheckedIn),
		errors.Is(err, visitstore.ErrAlreadyCheckedOut),
		errors.Is(err, visitstore.ErrNotCheckedIn):
		h.ErrLog.LogConflict(w, r, action+" rejected", err, conflictMessage(err), "")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, action+" failed", err, "Internal server error.", "")
		return
	}

	h.Log.Info("kiosk attendance",
		zap.String("visit_id", v.ID.Hex()),
		zap.String("action", action))

	data := attendanceData{ID: v.ID.Hex(), Name: v.Name, Action: action}
	if v.CheckIn != nil {
		data.CheckIn = predicate.FormatTimestamp(v.CheckIn.In(h.Loc))
	}
	if v.CheckOut != nil {
		data.CheckOut = predicate.FormatTimestamp(v.CheckOut.In(h.Loc))
	}
	msg := "Visitor check-in successful."
	if action == "checkout" {
		msg = "Visitor check-out successful."
	}
	uierrors.WriteJSON(w, http.StatusOK, response{Status: "ok", Message: msg, Data: data})
}

// decodeKiosk reads an optional JSON body into dst. An empty body is
// allowed so kiosks without a device id can post nothing.
func (h *Handler) decodeKiosk(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		h.ErrLog.LogBadRequest(w, r, "decode kiosk payload failed", err, "Request body must be a JSON object.", "")
		return false
	}
	return true
}

func (h *Handler) checkDevice(w http.ResponseWriter, r *http.Request, device string) bool {
	if h.DeviceID == "" || device == h.DeviceID {
		return true
	}
	h.ErrLog.LogForbidden(w, r, "kiosk device rejected", errDeviceMismatch, "Device id not matched.", "")
	return false
}

func (h *Handler) isToday(v models.Visit) bool {
	start, end := predicate.DayBounds(h.now())
	d := v.VisitingDate.In(h.Loc)
	return !d.Before(start) && !d.After(end)
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, visitstore.ErrNotApproved):
		return "Visitor not approved yet."
	case errors.Is(err, visitstore.ErrAlreadyCheckedIn):
		return "Already checked in."
	case errors.Is(err, visitstore.ErrAlreadyCheckedOut):
		return "Already checked out."
	case errors.Is(err, visitstore.ErrNotCheckedIn):
		return "Cannot check out before check-in."
	}
	return "Request could not be completed."
}
