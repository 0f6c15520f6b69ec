package visits

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	uierrors "github.com/dalemusser/visitdesk/internal/app/features/errors"
	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
	"github.com/dalemusser/visitdesk/internal/app/system/viewstate"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/testutil"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// now is 10:00 in UTC+5, which is still the previous evening in UTC.
var listNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))

func newListHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	reg := viewregistry.New()
	if err := visitordashboard.Register(reg); err != nil {
		t.Fatalf("register widget: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("register view: %v", err)
	}
	views := viewstate.NewWithSessions(sessions.NewCookieStore(securecookie.GenerateRandomKey(32)), "test-view", logger)

	h := NewHandler(db, reg, views, nil, uierrors.NewErrorLogger(logger), Config{
		Location: listNow.Location(),
		PageSize: 2,
	}, logger)
	h.Clock = func() time.Time { return listNow }
	return h, testutil.NewFixtures(t, db)
}

func names(rows []visitRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestLoadList_ToggleNarrowsRowsToToday(t *testing.T) {
	h, fx := newListHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	loc := listNow.Location()
	fx.CreateVisit(ctx, "Alice", visitstatus.Pending, time.Date(2024, 3, 15, 0, 0, 0, 0, loc))
	fx.CreateVisit(ctx, "Bob", visitstatus.Pending, time.Date(2024, 3, 15, 23, 59, 59, int(500*time.Millisecond), loc))
	fx.CreateVisit(ctx, "Carol", visitstatus.Pending, time.Date(2024, 3, 14, 23, 59, 59, 0, loc))
	fx.CreateVisit(ctx, "Dave", visitstatus.Approved, time.Date(2024, 3, 15, 12, 0, 0, 0, loc))
	fx.CreateVisit(ctx, "Erin", visitstatus.Cancelled, time.Date(2024, 3, 16, 0, 0, 0, 0, loc))

	req := testutil.NewRequest(http.MethodGet, "/visits")
	lv, err := h.mountList(req)
	if err != nil {
		t.Fatalf("mountList: %v", err)
	}
	defer lv.close()

	data, err := h.loadList(ctx, req, lv)
	if err != nil {
		t.Fatalf("loadList: %v", err)
	}
	if data.Total != 5 {
		t.Errorf("unfiltered total = %d, want 5", data.Total)
	}
	if len(data.Items) != 2 || !data.HasNext {
		t.Errorf("first page = %v (HasNext=%v), want 2 rows and a next page", names(data.Items), data.HasNext)
	}

	counts := map[string]int64{}
	for _, c := range data.Dashboard.Cards {
		counts[c.Status] = c.Count
	}
	want := map[string]int64{visitstatus.Pending: 2, visitstatus.Approved: 1, visitstatus.Cancelled: 0}
	for s, n := range want {
		if counts[s] != n {
			t.Errorf("today's %s count = %d, want %d", s, counts[s], n)
		}
	}
	if len(data.Dashboard.Cards) != 3 {
		t.Errorf("dashboard has %d cards, want 3", len(data.Dashboard.Cards))
	}

	if err := lv.dashboard().ToggleStatus(visitstatus.Pending); err != nil {
		t.Fatalf("ToggleStatus: %v", err)
	}
	data, err = h.loadList(ctx, req, lv)
	if err != nil {
		t.Fatalf("loadList after toggle: %v", err)
	}
	got := names(data.Items)
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("filtered rows = %v, want [Alice Bob]", got)
	}
	if data.Total != 2 {
		t.Errorf("filtered total = %d, want 2", data.Total)
	}
	if len(data.Filters) != 3 {
		t.Errorf("filter chips = %v, want 3", data.Filters)
	}
	if data.Dashboard.Selected != visitstatus.Pending {
		t.Errorf("selected = %q, want pending", data.Dashboard.Selected)
	}
}

func TestLoadList_NameSearchWithFilter(t *testing.T) {
	h, fx := newListHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateVisit(ctx, "Zoe Adams", visitstatus.Approved, listNow)
	fx.CreateVisit(ctx, "Zack Brown", visitstatus.Pending, listNow)
	fx.CreateVisit(ctx, "Amy Clark", visitstatus.Approved, listNow)

	req := testutil.NewRequest(http.MethodGet, "/visits?q=z")
	lv, err := h.mountList(req)
	if err != nil {
		t.Fatalf("mountList: %v", err)
	}
	defer lv.close()

	if err := lv.dashboard().ToggleStatus(visitstatus.Approved); err != nil {
		t.Fatalf("ToggleStatus: %v", err)
	}
	data, err := h.loadList(ctx, req, lv)
	if err != nil {
		t.Fatalf("loadList: %v", err)
	}
	if got := names(data.Items); len(got) != 1 || got[0] != "Zoe Adams" {
		t.Errorf("rows = %v, want [Zoe Adams]", got)
	}
}

func TestLoadList_PagesForward(t *testing.T) {
	h, fx := newListHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, n := range []string{"a", "b", "c", "d", "e"} {
		fx.CreateVisit(ctx, n, visitstatus.Pending, listNow)
	}

	var seen []string
	after := ""
	for i := 0; i < 5; i++ {
		req := testutil.NewRequest(http.MethodGet, "/visits?after="+url.QueryEscape(after))
		lv, err := h.mountList(req)
		if err != nil {
			t.Fatalf("mountList: %v", err)
		}
		data, err := h.loadList(ctx, req, lv)
		lv.close()
		if err != nil {
			t.Fatalf("loadList: %v", err)
		}
		seen = append(seen, names(data.Items)...)
		if !data.HasNext {
			break
		}
		after = data.NextCursor
	}

	if len(seen) != 5 || seen[0] != "a" || seen[4] != "e" {
		t.Errorf("paged rows = %v, want a..e", seen)
	}
}

func TestMountList_DropsCorruptWidgetState(t *testing.T) {
	h, _ := newListHandler(t)

	req := testutil.NewRequest(http.MethodGet, "/visits")
	rec := httptest.NewRecorder()
	if err := h.Views.Save(rec, req, ViewKey, viewstate.State{
		Widgets: map[string]string{visitordashboard.WidgetName: "archived"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	next := testutil.CarryCookies(testutil.NewRequest(http.MethodGet, "/visits"), rec)
	lv, err := h.mountList(next)
	if err != nil {
		t.Fatalf("mountList: %v", err)
	}
	defer lv.close()
	if sel := lv.dashboard().Selected(); sel != "" {
		t.Errorf("selected = %q, want none", sel)
	}
	if lv.search.Len() != 0 {
		t.Errorf("search model has %d triples, want 0", lv.search.Len())
	}
}

func TestMountList_SelectionWithoutFilterIsDropped(t *testing.T) {
	tests := []struct {
		name string
		pred predicate.Predicate
	}{
		{"invalid predicate", predicate.Predicate{{Field: "state", Op: "=", Value: "pending"}}},
		{"no predicate", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newListHandler(t)

			rec := httptest.NewRecorder()
			if err := h.Views.Save(rec, testutil.NewRequest(http.MethodGet, "/visits"), ViewKey, viewstate.State{
				Predicate: tt.pred,
				Widgets:   map[string]string{visitordashboard.WidgetName: visitstatus.Pending},
			}); err != nil {
				t.Fatalf("Save: %v", err)
			}

			lv, err := h.mountList(testutil.CarryCookies(testutil.NewRequest(http.MethodGet, "/visits"), rec))
			if err != nil {
				t.Fatalf("mountList: %v", err)
			}
			defer lv.close()

			if sel := lv.dashboard().Selected(); sel != "" {
				t.Errorf("selected = %q with %d triples installed, want none", sel, lv.search.Len())
			}
			if lv.search.Len() != 0 {
				t.Errorf("search model has %d triples, want 0", lv.search.Len())
			}
		})
	}
}
