// internal/domain/models/visit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visit types.
const (
	VisitTypePreRegistered = "pre"
	VisitTypeWalkIn        = "walkin"
)

// Visit is a single visitor appointment.
//
// NOTE:
//   - Status is one of the visitstatus labels (pending, approved, cancelled).
//   - VisitingDate is stored in UTC; "today" filters convert from the
//     configured local zone before querying.
type Visit struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // folded for search/sort

	Company string `bson:"company,omitempty" json:"company,omitempty"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone" json:"phone"`
	Purpose string `bson:"purpose,omitempty" json:"purpose,omitempty"`
	Host    string `bson:"host,omitempty" json:"host,omitempty"` // employee being visited

	Status             string `bson:"status" json:"status"`
	VisitType          string `bson:"visit_type" json:"visit_type"`
	CancellationReason string `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	QRToken            string `bson:"qr_token" json:"qr_token"`

	VisitingDate time.Time  `bson:"visiting_date" json:"visiting_date"`
	CheckIn      *time.Time `bson:"check_in,omitempty" json:"check_in,omitempty"`
	CheckOut     *time.Time `bson:"check_out,omitempty" json:"check_out,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsCheckedIn reports whether the visitor is currently on site.
func (v Visit) IsCheckedIn() bool {
	return v.CheckIn != nil && v.CheckOut == nil
}
