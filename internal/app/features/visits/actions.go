// internal/app/features/visits/actions.go
package visits

import (
	"context"
	"errors"
	"net/http"
	"strings"

	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/visitdesk/internal/app/system/inputval"
	"github.com/dalemusser/visitdesk/internal/app/system/mailer"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// cancelInput defines validation rules for cancelling a visit.
type cancelInput struct {
	Reason string `validate:"required,max=500" label:"Reason"`
}

// HandleApprove approves a visit and emails the visitor. Walk-ins are
// checked in by the store at the same time.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, ok := h.loadVisit(ctx, w, r)
	if !ok {
		return
	}
	v, err := h.Visits.Approve(ctx, v.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "approve visit failed", err, "The visit could not be approved.", "/visits")
		return
	}

	h.Log.Info("visit approved",
		zap.String("visit_id", v.ID.Hex()),
		zap.String("visit_type", v.VisitType))
	h.notify(mailer.BuildApprovalEmail(h.emailData(v)), v)

	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// ServeCancel shows the cancel form asking for a reason.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, ok := h.loadVisit(ctx, w, r)
	if !ok {
		return
	}
	h.renderCancelForm(w, r, v, "", "")
}

// HandleCancel cancels a visit with the submitted reason and emails the
// visitor.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse cancel form failed", err, "Invalid form data.", "/visits")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, ok := h.loadVisit(ctx, w, r)
	if !ok {
		return
	}

	reason := htmlsanitize.Text(strings.TrimSpace(r.FormValue("reason")))
	if res := inputval.Validate(cancelInput{Reason: reason}); res.HasErrors() {
		h.renderCancelForm(w, r, v, reason, res.First())
		return
	}

	v, err := h.Visits.Cancel(ctx, v.ID, reason)
	switch {
	case errors.Is(err, visitstore.ErrAlreadyCancelled):
		h.ErrLog.LogConflict(w, r, "cancel cancelled visit", err, "This visit is already cancelled.", "/visits")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "cancel visit failed", err, "The visit could not be cancelled.", "/visits")
		return
	}

	h.Log.Info("visit cancelled", zap.String("visit_id", v.ID.Hex()))
	h.notify(mailer.BuildCancellationEmail(h.emailData(v)), v)

	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// HandleCheckIn records a visitor's arrival. Only approved visits for
// today can be checked in.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, ok := h.loadVisit(ctx, w, r)
	if !ok {
		return
	}
	now := h.now()
	if !sameDay(v.VisitingDate.In(h.Loc), now) {
		h.ErrLog.LogConflict(w, r, "check in outside visiting day", visitstore.ErrNotToday, "This visit is not scheduled for today.", "/visits")
		return
	}
	if _, err := h.Visits.CheckIn(ctx, v.ID, now); err != nil {
		h.transitionFailed(w, r, "check in", err)
		return
	}
	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// HandleCheckOut records a visitor's departure.
func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, ok := h.loadVisit(ctx, w, r)
	if !ok {
		return
	}
	if _, err := h.Visits.CheckOut(ctx, v.ID, h.now()); err != nil {
		h.transitionFailed(w, r, "check out", err)
		return
	}
	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

func (h *Handler) transitionFailed(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, visitstore.ErrNotApproved),
		errors.Is(err, visitstore.ErrAlreadyCheckedIn),
		errors.Is(err, visitstore.ErrAlreadyCheckedOut),
		errors.Is(err, visitstore.ErrNotCheckedIn):
		h.ErrLog.LogConflict(w, r, action+" rejected", err, userMessage(err), "/visits")
	default:
		h.ErrLog.LogServerError(w, r, action+" failed", err, "A database error occurred.", "/visits")
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, visitstore.ErrNotApproved):
		return "Only approved visits can be checked in or out."
	case errors.Is(err, visitstore.ErrAlreadyCheckedIn):
		return "This visitor is already checked in."
	case errors.Is(err, visitstore.ErrAlreadyCheckedOut):
		return "This visitor has already checked out."
	case errors.Is(err, visitstore.ErrNotCheckedIn):
		return "This visitor has not checked in yet."
	}
	return "The visit could not be updated."
}

func (h *Handler) renderCancelForm(w http.ResponseWriter, r *http.Request, v models.Visit, reason, msg string) {
	templates.Render(w, r, "visit_cancel", cancelFormData{
		Title:     "Cancel visit",
		CSRFToken: csrf.Token(r),
		Error:     msg,
		Visit:     toRow(v, h.Loc, h.now()),
		Reason:    reason,
		Return:    returnURL(r),
	})
}

// notify sends e to the visitor. Mail failures are logged; the action that
// triggered the email has already succeeded.
func (h *Handler) notify(e mailer.Email, v models.Visit) {
	if h.Mail == nil || v.Email == "" {
		return
	}
	e.To = v.Email
	if err := h.Mail.Send(e); err != nil {
		h.Log.Warn("visitor email failed",
			zap.String("visit_id", v.ID.Hex()),
			zap.String("subject", e.Subject),
			zap.Error(err))
	}
}

func (h *Handler) emailData(v models.Visit) mailer.VisitEmailData {
	d := mailer.VisitEmailData{
		SiteName:     h.SiteName,
		VisitorName:  v.Name,
		VisitingDate: v.VisitingDate.In(h.Loc).Format(displayLayout),
		Host:         v.Host,
		Reason:       v.CancellationReason,
	}
	if h.BaseURL != "" {
		d.BadgeURL = strings.TrimRight(h.BaseURL, "/") + "/badge/" + v.QRToken
	}
	return d
}

func returnURL(r *http.Request) string {
	return urlutil.SafeReturn(r.FormValue("return"), "", "/visits")
}
