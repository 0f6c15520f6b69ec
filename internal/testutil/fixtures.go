package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateVisit inserts a pre-registered visit with the given status and
// visiting date. The phone number is derived from the ID so it is unique.
func (f *Fixtures) CreateVisit(ctx context.Context, name, status string, visitingDate time.Time) models.Visit {
	f.t.Helper()

	id := primitive.NewObjectID()
	return f.InsertVisit(ctx, models.Visit{
		ID:           id,
		Name:         name,
		Phone:        "55" + id.Hex()[16:24],
		Status:       status,
		VisitType:    models.VisitTypePreRegistered,
		VisitingDate: visitingDate,
	})
}

// CreateWalkIn inserts a pending walk-in visit for now.
func (f *Fixtures) CreateWalkIn(ctx context.Context, name string) models.Visit {
	f.t.Helper()

	id := primitive.NewObjectID()
	return f.InsertVisit(ctx, models.Visit{
		ID:           id,
		Name:         name,
		Phone:        "66" + id.Hex()[16:24],
		Status:       "pending",
		VisitType:    models.VisitTypeWalkIn,
		VisitingDate: time.Now(),
	})
}

// InsertVisit writes v as-is, filling in IDs, folded name, token, and
// timestamps when they are empty.
func (f *Fixtures) InsertVisit(ctx context.Context, v models.Visit) models.Visit {
	f.t.Helper()

	now := time.Now().UTC()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	v.NameCI = text.Fold(v.Name)
	if v.QRToken == "" {
		v.QRToken = uuid.NewString()
	}
	if v.VisitType == "" {
		v.VisitType = models.VisitTypePreRegistered
	}
	v.VisitingDate = v.VisitingDate.UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	if _, err := f.db.Collection("visits").InsertOne(ctx, v); err != nil {
		f.t.Fatalf("failed to create test visit: %v", err)
	}
	return v
}
