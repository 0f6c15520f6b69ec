// internal/app/features/errors/errors.go
package errors

import (
	"embed"
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

// error_page and error_inline are registered on import so any feature that
// logs through ErrorLogger can render them.
func init() {
	templates.Register(templates.Set{Name: "errors", FS: FS, Patterns: []string{"templates/*.gohtml"}})
}

// pageData is the basic view model for error pages.
type pageData struct {
	Title   string
	Status  int
	Message string
	BackURL string
}

// Handler serves the standalone error pages.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the 404 page (or JSON for API callers).
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, pageData{
		Title:   "Not found",
		Message: "We couldn't find that page.",
		BackURL: httpnav.ResolveBackURL(r, "/visits"),
	})
}

// MethodNotAllowed renders a 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusMethodNotAllowed, pageData{
		Title:   "Not allowed",
		Message: "That action isn't available here.",
		BackURL: httpnav.ResolveBackURL(r, "/visits"),
	})
}
