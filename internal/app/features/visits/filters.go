// internal/app/features/visits/filters.go
package visits

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	"github.com/dalemusser/visitdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
)

// HandleToggle handles a click on a dashboard status card.
//
// The session only changes when the toggle succeeds; an unknown status is a
// 400 and a rejected predicate a 500.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse toggle form failed", err, "Invalid form data.", "/visits")
		return
	}
	status := visitstatus.Normalize(r.FormValue("status"))

	lv, err := h.mountList(r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mount visits list failed", err, "The visits list could not be loaded.", "/visits")
		return
	}
	defer lv.close()

	if err := lv.dashboard().ToggleStatus(status); err != nil {
		if errors.Is(err, visitordashboard.ErrUnknownStatus) {
			h.ErrLog.LogBadRequest(w, r, "toggle unknown status", err, "Unknown visit status.", "/visits")
			return
		}
		h.ErrLog.LogServerError(w, r, "toggle status filter failed", err, "The filter could not be applied.", "/visits")
		return
	}

	h.finishFilterChange(w, r, lv)
}

// HandleClearFilters removes every active filter. When the dashboard owns
// the filter it is toggled off so its selection clears with it.
func (h *Handler) HandleClearFilters(w http.ResponseWriter, r *http.Request) {
	lv, err := h.mountList(r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mount visits list failed", err, "The visits list could not be loaded.", "/visits")
		return
	}
	defer lv.close()

	dash := lv.dashboard()
	if sel := dash.Selected(); sel != "" {
		err = dash.ToggleStatus(sel)
	} else {
		err = lv.search.ClearAll()
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "clear filters failed", err, "The filters could not be cleared.", "/visits")
		return
	}

	h.finishFilterChange(w, r, lv)
}

// HandleCompanyFilter narrows the list to one company. It replaces any
// earlier company condition and keeps the rest; a later status toggle
// replaces everything.
func (h *Handler) HandleCompanyFilter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse company filter failed", err, "Invalid form data.", "/visits")
		return
	}
	company := htmlsanitize.Text(strings.TrimSpace(r.FormValue("company")))
	if company == "" {
		http.Redirect(w, r, "/visits", http.StatusSeeOther)
		return
	}

	lv, err := h.mountList(r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mount visits list failed", err, "The visits list could not be loaded.", "/visits")
		return
	}
	defer lv.close()

	p := predicate.Predicate{{Field: predicate.FieldCompany, Op: predicate.OpEq, Value: company}}
	if err := lv.search.ReplaceField(predicate.FieldCompany, p); err != nil {
		h.ErrLog.LogBadRequest(w, r, "install company filter failed", err, "That filter is not valid.", "/visits")
		return
	}

	h.finishFilterChange(w, r, lv)
}

// finishFilterChange saves the new state, then re-renders the page
// fragment for HTMX or redirects back to the list.
func (h *Handler) finishFilterChange(w http.ResponseWriter, r *http.Request, lv *listView) {
	if err := h.saveList(w, r, lv); err != nil {
		h.ErrLog.LogServerError(w, r, "save list state failed", err, "The filter could not be saved.", "/visits")
		return
	}
	if r.Header.Get("HX-Request") != "" {
		h.renderList(w, r, lv)
		return
	}
	http.Redirect(w, r, "/visits", http.StatusSeeOther)
}
