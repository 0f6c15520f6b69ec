// internal/app/features/visits/mount.go
package visits

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/searchmodel"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
	"github.com/dalemusser/visitdesk/internal/app/system/viewstate"
	"go.uber.org/zap"
)

// listView is one request's live copy of the dashboard list: the shared
// search model and the widgets bound to it.
type listView struct {
	search  *searchmodel.Model
	mounted *viewregistry.Mounted
}

// dashboard returns the embedded dashboard widget.
func (lv *listView) dashboard() *visitordashboard.Widget {
	w, _ := lv.mounted.Widget(visitordashboard.WidgetName).(*visitordashboard.Widget)
	return w
}

func (lv *listView) close() { lv.mounted.Destroy() }

// mountList restores the list view from the browser's saved state. State
// that no longer validates is dropped and the view starts unfiltered.
func (h *Handler) mountList(r *http.Request) (*listView, error) {
	st := h.Views.Load(r, ViewKey)

	search, err := searchmodel.New(st.Predicate)
	if err != nil {
		h.Log.Warn("discarding saved list filter", zap.Error(err))
		search, _ = searchmodel.New(nil)
		st = viewstate.State{}
	}
	if search.Len() == 0 && st.Widgets[visitordashboard.WidgetName] != "" {
		h.Log.Warn("discarding dashboard selection saved without its filter",
			zap.String("selected", st.Widgets[visitordashboard.WidgetName]))
		st.Widgets = nil
	}

	env := viewregistry.Env{
		Search: search,
		Counts: visitstore.TodayCounts{Store: h.Visits, Clock: h.now},
		Clock:  h.now,
		Log:    h.Log,
	}
	mounted, err := h.Registry.Mount(ViewKey, env, st.Widgets)
	if err != nil {
		h.Log.Warn("discarding saved widget state", zap.Error(err))
		if err := search.ClearAll(); err != nil {
			return nil, err
		}
		mounted, err = h.Registry.Mount(ViewKey, env, nil)
		if err != nil {
			return nil, fmt.Errorf("mount %s: %w", ViewKey, err)
		}
	}

	lv := &listView{search: search, mounted: mounted}
	if lv.dashboard() == nil {
		lv.close()
		return nil, fmt.Errorf("mount %s: dashboard widget missing", ViewKey)
	}
	return lv, nil
}

// saveList persists the active filter and widget state for the next request.
func (h *Handler) saveList(w http.ResponseWriter, r *http.Request, lv *listView) error {
	return h.Views.Save(w, r, ViewKey, viewstate.State{
		Predicate: lv.search.Predicates(),
		Widgets:   lv.mounted.SaveStates(),
	})
}
