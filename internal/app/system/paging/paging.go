// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize is the number of rows shown in paged lists.
const DefaultPageSize = 50

// Pager holds the page size for one list.
type Pager struct {
	Size int
}

// New returns a Pager, falling back to DefaultPageSize for size < 1.
func New(size int) Pager {
	if size < 1 {
		size = DefaultPageSize
	}
	return Pager{Size: size}
}

// LimitPlusOne is Size+1 for look-ahead pagination (fetch one extra row to
// detect another page).
func (p Pager) LimitPlusOne() int64 { return int64(p.Size + 1) }

// ParseStart extracts the 1-based "start" query parameter. Returns 1 if
// missing or invalid.
func ParseStart(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "start"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Result reports whether neighbouring pages exist.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims rows fetched with LimitPlusOne.
//
// Going backwards (before != ""), the extra row is at the front and a next
// page always exists. Going forwards, the extra row is at the end and a
// previous page exists only when after != "".
func TrimPage[T any](p Pager, rows *[]T, before, after string) Result {
	var res Result
	over := len(*rows) > p.Size

	if before != "" {
		if over {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}

	if over {
		*rows = (*rows)[:p.Size]
		res.HasNext = true
	}
	res.HasPrev = after != ""
	return res
}

// Range holds the 1-based display range of a page.
type Range struct {
	Start     int
	End       int
	PrevStart int
	NextStart int
}

// ComputeRange derives the display range from the current start and the
// number of rows shown.
func (p Pager) ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{PrevStart: 1, NextStart: 1}
	}
	prev := start - p.Size
	if prev < 1 {
		prev = 1
	}
	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prev,
		NextStart: start + shown,
	}
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // ascending, cursor uses $gt
	Backward                  // descending, cursor uses $lt
)

// Keyset is the decoded cursor and sort direction of one request.
type Keyset struct {
	Direction Direction
	Cursor    *wafflemongo.Cursor
}

// ParseKeyset decodes before/after cursors. An undecodable cursor starts
// from the first page.
func ParseKeyset(before, after string) Keyset {
	ks := Keyset{Direction: Forward}
	raw := after
	if before != "" {
		ks.Direction = Backward
		raw = before
	}
	if raw != "" {
		if c, ok := wafflemongo.DecodeCursor(raw); ok {
			ks.Cursor = &c
		}
	}
	return ks
}

func (ks Keyset) sortOrder() int {
	if ks.Direction == Backward {
		return -1
	}
	return 1
}

// ApplyToFind sets sort (sortField, _id) and the look-ahead limit.
func (ks Keyset) ApplyToFind(p Pager, find *options.FindOptions, sortField string) {
	o := ks.sortOrder()
	find.SetSort(bson.D{{Key: sortField, Value: o}, {Key: "_id", Value: o}}).
		SetLimit(p.LimitPlusOne())
}

// Window returns the cursor condition to AND into the filter, or nil.
func (ks Keyset) Window(sortField string) bson.M {
	if ks.Cursor == nil {
		return nil
	}
	dir := "gt"
	if ks.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, ks.Cursor.CI, ks.Cursor.ID)
}

// Reverse reverses rows in place; used after fetching a backward page.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors encodes the first and last rows as prev/next cursors.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first, last := rows[0], rows[len(rows)-1]
	return wafflemongo.EncodeCursor(keyFn(first), idFn(first)),
		wafflemongo.EncodeCursor(keyFn(last), idFn(last))
}
