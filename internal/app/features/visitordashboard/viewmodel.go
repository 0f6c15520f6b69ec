// internal/app/features/visitordashboard/viewmodel.go
package visitordashboard

import "github.com/dalemusser/visitdesk/internal/app/system/visitstatus"

// StatusCard is one clickable count on the dashboard.
type StatusCard struct {
	Status string
	Label  string
	Count  int64
	Active bool
}

// Fragment is the data for the "visitor_dashboard" template.
type Fragment struct {
	Cards     []StatusCard
	Selected  string
	Loaded    bool
	ToggleURL string // POST target for a status click
	CSRFToken string
}

// Fragment builds the render data for the widget's current state.
func (w *Widget) Fragment(toggleURL, csrfToken string) Fragment {
	counts := w.Counts()
	selected := w.Selected()

	cards := make([]StatusCard, 0, len(counts))
	for _, s := range visitstatus.All() {
		cards = append(cards, StatusCard{
			Status: s,
			Label:  visitstatus.Label(s),
			Count:  counts[s],
			Active: s == selected,
		})
	}

	return Fragment{
		Cards:     cards,
		Selected:  selected,
		Loaded:    w.Loaded(),
		ToggleURL: toggleURL,
		CSRFToken: csrfToken,
	}
}
