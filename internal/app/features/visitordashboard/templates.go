// internal/app/features/visitordashboard/templates.go
package visitordashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.gohtml
var FS embed.FS

// The widget renders itself so any host view can embed it as HTML.
var tmpl = template.Must(template.ParseFS(FS, "templates/*.gohtml"))

// HTML renders the "visitor_dashboard" fragment.
func (f Fragment) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "visitor_dashboard", f); err != nil {
		return "", fmt.Errorf("render visitor dashboard: %w", err)
	}
	return template.HTML(buf.String()), nil
}
