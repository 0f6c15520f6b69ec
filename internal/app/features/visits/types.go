// internal/app/features/visits/types.go
package visits

import (
	"html/template"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const displayLayout = "Mon Jan 2, 2006 3:04 PM"

// visitRow is one line of the visits table.
type visitRow struct {
	ID           primitive.ObjectID
	Name         string
	NameCI       string // cursor key
	Company      string
	Host         string
	Purpose      string
	Status       string
	StatusLabel  string
	WalkIn       bool
	VisitingDate string
	CheckIn      string
	CheckOut     string

	CanApprove  bool
	CanCancel   bool
	CanCheckIn  bool
	CanCheckOut bool
}

// filterChip shows one active predicate triple above the table.
type filterChip struct {
	Field string
	Op    string
	Value string
}

// listData is the template data for the dashboard list page.
type listData struct {
	Title         string
	CSRFToken     string
	Dashboard     visitordashboard.Fragment
	DashboardHTML template.HTML
	Filters       []filterChip

	Q     string
	Items []visitRow

	// Pagination
	Shown      int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
	RangeStart int
	RangeEnd   int
	PrevStart  int
	NextStart  int
}

// visitData is the template data for a single visit page.
type visitData struct {
	Title     string
	CSRFToken string
	BackURL   string
	Visit     visitRow
	Email     string
	Phone     string
	QRToken   string
	Reason    string
}

// visitFormData backs the registration form.
type visitFormData struct {
	Title     string
	CSRFToken string
	Error     string
	Errors    map[string]string

	Name         string
	Company      string
	Email        string
	Phone        string
	Purpose      string
	Host         string
	VisitingDate string // yyyy-mm-dd
	WalkIn       bool
}

// cancelFormData backs the cancel-with-reason form.
type cancelFormData struct {
	Title     string
	CSRFToken string
	Error     string
	Visit     visitRow
	Reason    string
	Return    string
}

// badgeData is the printable badge shown to an approved visitor.
type badgeData struct {
	Title        string
	Name         string
	Company      string
	Host         string
	VisitingDate string
	QRToken      string
	Approved     bool
}

func toRow(v models.Visit, loc *time.Location, now time.Time) visitRow {
	row := visitRow{
		ID:           v.ID,
		Name:         v.Name,
		NameCI:       v.NameCI,
		Company:      v.Company,
		Host:         v.Host,
		Purpose:      v.Purpose,
		Status:       v.Status,
		StatusLabel:  visitstatus.Label(v.Status),
		WalkIn:       v.VisitType == models.VisitTypeWalkIn,
		VisitingDate: v.VisitingDate.In(loc).Format(displayLayout),
	}
	if v.CheckIn != nil {
		row.CheckIn = v.CheckIn.In(loc).Format(displayLayout)
	}
	if v.CheckOut != nil {
		row.CheckOut = v.CheckOut.In(loc).Format(displayLayout)
	}

	today := sameDay(v.VisitingDate.In(loc), now)
	row.CanApprove = v.Status == visitstatus.Pending
	row.CanCancel = v.Status != visitstatus.Cancelled
	row.CanCheckIn = v.Status == visitstatus.Approved && today && v.CheckIn == nil
	row.CanCheckOut = v.IsCheckedIn()
	return row
}

func chips(p predicate.Predicate) []filterChip {
	out := make([]filterChip, 0, len(p))
	for _, t := range p {
		out = append(out, filterChip{Field: t.Field, Op: t.Op, Value: t.Value})
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
