// internal/app/features/visitordashboard/register.go
package visitordashboard

import (
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
)

// WidgetName is the stable name the dashboard is registered under.
const WidgetName = "visitor_management.VisitorDashboard"

// Register adds the dashboard widget to reg. Views that embed it get a fresh
// instance per mount, bound to the view's shared search model.
func Register(reg *viewregistry.Registry) error {
	return reg.RegisterWidget(WidgetName, func(env viewregistry.Env) viewregistry.Widget {
		return New(env.Counts, env.Search,
			WithClock(env.Clock),
			WithLogger(env.Log),
		)
	})
}
