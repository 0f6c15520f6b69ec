// internal/app/features/visits/register.go
package visits

import (
	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
)

// ViewKey is the stable key of the visits list with the dashboard on top.
const ViewKey = "visitor_dashboard_list"

// Register adds the dashboard list view to reg. The dashboard widget must
// already be registered.
func Register(reg *viewregistry.Registry) error {
	return reg.RegisterView(viewregistry.View{
		Key:           ViewKey,
		Title:         "Visitors",
		PageTemplate:  "visits_list",
		TableTemplate: "visits_table",
		Widgets:       []string{visitordashboard.WidgetName},
	})
}
