// internal/app/features/visits/routes.go
package visits

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the staff visit pages under whatever base path the caller
// chooses (typically "/visits" from bootstrap).
//
// Example from bootstrap:
//
//	visitsH := visits.NewHandler(db, reg, views, mail, errLog, cfg, logger)
//	r.Mount("/visits", visits.Routes(visitsH))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// LIST + dashboard (HTMX swaps #visits-page / #visits-table-wrap)
	r.Get("/", h.ServeList)
	r.Post("/dashboard/toggle", h.HandleToggle)
	r.Post("/filters/clear", h.HandleClearFilters)
	r.Post("/filters/company", h.HandleCompanyFilter)

	// CREATE
	r.Get("/new", h.ServeNew)
	r.Post("/", h.HandleCreate)

	// VIEW + actions
	r.Route("/{id}", func(vr chi.Router) {
		vr.Get("/", h.ServeView)
		vr.Post("/approve", h.HandleApprove)
		vr.Get("/cancel", h.ServeCancel)
		vr.Post("/cancel", h.HandleCancel)
		vr.Post("/checkin", h.HandleCheckIn)
		vr.Post("/checkout", h.HandleCheckOut)
	})

	return r
}

// BadgeRoutes mounts the public badge page (typically at "/badge").
func BadgeRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.ServeBadge)
	return r
}
