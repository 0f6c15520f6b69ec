// internal/app/features/visitorapi/routes.go
package visitorapi

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the visitor API (typically at "/api/visitor"). These
// routes are exempt from CSRF; kiosk calls are gated by DeviceID instead.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/dashboard", h.ServeDashboard)
	r.Post("/submit", h.HandleSubmit)
	r.Post("/verify/{token}", h.HandleVerify)
	r.Post("/checkin_out", h.HandleCheckInOut)

	return r
}
