// internal/app/features/visits/list.go
package visits

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/visitdesk/internal/app/system/paging"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	toggleURL     = "/visits/dashboard/toggle"
	pageTarget    = "visits-page"
	tableTarget   = "visits-table-wrap"
	listSortField = "name_ci"
)

// ServeList shows the dashboard above the visits table. Both read the
// same search model, so a status toggle narrows the table as well.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	lv, err := h.mountList(r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mount visits list failed", err, "The visits list could not be loaded.", "/")
		return
	}
	defer lv.close()

	h.renderList(w, r, lv)
}

// renderList loads counts and rows for lv and writes the page, or only the
// fragment an HTMX request targets.
func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, lv *listView) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := h.loadList(ctx, r, lv)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load visits list failed", err, "A database error occurred.", "/")
		return
	}

	if r.Header.Get("HX-Request") != "" {
		switch r.Header.Get("HX-Target") {
		case tableTarget:
			templates.RenderSnippet(w, lv.mounted.View.TableTemplate, data)
			return
		case pageTarget:
			templates.RenderSnippet(w, "visits_page", data)
			return
		}
	}
	templates.Render(w, r, lv.mounted.View.PageTemplate, data)
}

// loadList initializes the widgets and runs the filtered, paged query.
func (h *Handler) loadList(ctx context.Context, r *http.Request, lv *listView) (listData, error) {
	initCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	err := lv.mounted.Initialize(initCtx)
	cancel()
	if err != nil {
		return listData{}, err
	}

	q := query.Search(r, "q")
	after := query.Get(r, "after")
	before := query.Get(r, "before")
	start := paging.ParseStart(r)

	base, err := lv.search.Filter(h.Loc)
	if err != nil {
		return listData{}, fmt.Errorf("build filter: %w", err)
	}
	if lo, hi := text.PrefixRange(q); lo != "" {
		base = and(base, bson.M{listSortField: bson.M{"$gte": lo, "$lt": hi}})
	}

	total, err := h.Visits.Count(ctx, base)
	if err != nil {
		return listData{}, fmt.Errorf("count visits: %w", err)
	}

	ks := paging.ParseKeyset(before, after)
	find := options.Find()
	ks.ApplyToFind(h.Pager, find, listSortField)

	f := base
	if win := ks.Window(listSortField); win != nil {
		f = and(base, win)
	}

	rows, err := h.Visits.Find(ctx, f, find)
	if err != nil {
		return listData{}, fmt.Errorf("find visits: %w", err)
	}
	if ks.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := paging.TrimPage(h.Pager, &rows, before, after)
	rng := h.Pager.ComputeRange(start, len(rows))
	prevCur, nextCur := paging.BuildCursors(rows,
		func(v models.Visit) string { return v.NameCI },
		func(v models.Visit) primitive.ObjectID { return v.ID })

	now := h.now()
	items := make([]visitRow, 0, len(rows))
	for _, v := range rows {
		items = append(items, toRow(v, h.Loc, now))
	}

	token := csrf.Token(r)
	frag := lv.dashboard().Fragment(toggleURL, token)
	dashHTML, err := frag.HTML()
	if err != nil {
		return listData{}, err
	}

	return listData{
		Title:         lv.mounted.View.Title,
		CSRFToken:     token,
		Dashboard:     frag,
		DashboardHTML: dashHTML,
		Filters:       chips(lv.search.Predicates()),
		Q:             q,
		Items:         items,

		Shown:      len(items),
		Total:      total,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: prevCur,
		NextCursor: nextCur,
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
		PrevStart:  rng.PrevStart,
		NextStart:  rng.NextStart,
	}, nil
}

// and joins two conditions. Separate documents keep a name prefix and a
// keyset window on the same key from overwriting each other.
func and(a, b bson.M) bson.M {
	if len(a) == 0 {
		return b
	}
	return bson.M{"$and": []bson.M{a, b}}
}
