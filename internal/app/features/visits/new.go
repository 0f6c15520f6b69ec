// internal/app/features/visits/new.go
package visits

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/visitdesk/internal/app/system/inputval"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// createVisitInput defines validation rules for registering a visitor.
type createVisitInput struct {
	Name    string `validate:"required,max=200" label:"Name"`
	Company string `validate:"max=200" label:"Company"`
	Email   string `validate:"omitempty,email" label:"Email"`
	Phone   string `validate:"required,phone" label:"Phone"`
	Purpose string `validate:"max=500" label:"Purpose"`
	Host    string `validate:"max=200" label:"Host"`
}

// ServeNew shows the staff registration form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	h.renderNewForm(w, r, visitFormData{VisitingDate: h.now().Format(dateLayout)}, "", nil)
}

// HandleCreate registers a visitor. Walk-ins are dated now; pre-registered
// visits take the chosen date. New visits start pending.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/visits")
		return
	}

	form := visitFormData{
		Name:         htmlsanitize.Text(r.FormValue("name")),
		Company:      htmlsanitize.Text(r.FormValue("company")),
		Email:        strings.TrimSpace(r.FormValue("email")),
		Phone:        strings.TrimSpace(r.FormValue("phone")),
		Purpose:      htmlsanitize.Text(r.FormValue("purpose")),
		Host:         htmlsanitize.Text(r.FormValue("host")),
		VisitingDate: strings.TrimSpace(r.FormValue("visiting_date")),
		WalkIn:       r.FormValue("walk_in") != "",
	}

	input := createVisitInput{
		Name:    form.Name,
		Company: form.Company,
		Email:   form.Email,
		Phone:   form.Phone,
		Purpose: form.Purpose,
		Host:    form.Host,
	}
	if res := inputval.Validate(input); res.HasErrors() {
		h.renderNewForm(w, r, form, res.First(), res.ByField())
		return
	}

	now := h.now()
	visit := models.Visit{
		Name:    form.Name,
		Company: form.Company,
		Email:   form.Email,
		Phone:   form.Phone,
		Purpose: form.Purpose,
		Host:    form.Host,
	}
	if form.WalkIn {
		visit.VisitType = models.VisitTypeWalkIn
		visit.VisitingDate = now
	} else {
		day, err := visitingDay(form.VisitingDate, now)
		if err != nil {
			h.renderNewForm(w, r, form, "Visiting date must be a date (YYYY-MM-DD).", nil)
			return
		}
		if day.Before(startOfDay(now)) {
			h.renderNewForm(w, r, form, "Visiting date cannot be in the past.", nil)
			return
		}
		visit.VisitType = models.VisitTypePreRegistered
		visit.VisitingDate = day
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Visits.Create(ctx, visit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create visit failed", err, "The visit could not be saved.", "/visits")
		return
	}
	h.Log.Info("visit registered",
		zap.String("visit_id", created.ID.Hex()),
		zap.String("visit_type", created.VisitType))

	http.Redirect(w, r, "/visits/"+created.ID.Hex(), http.StatusSeeOther)
}

func (h *Handler) renderNewForm(w http.ResponseWriter, r *http.Request, form visitFormData, msg string, byField map[string]string) {
	form.Title = "Register visitor"
	form.CSRFToken = csrf.Token(r)
	form.Error = msg
	form.Errors = byField
	templates.Render(w, r, "visit_new", form)
}

// visitingDay parses a YYYY-MM-DD date as the start of that day in now's
// zone. An empty value means today; a date that is today keeps the current
// time so the visit sorts after earlier arrivals.
func visitingDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	if sameDay(d, now) {
		return now, nil
	}
	return d, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
