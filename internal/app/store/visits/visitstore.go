// internal/app/store/visits/visitstore.go
package visitstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/predicate"
	"github.com/dalemusser/visitdesk/internal/app/system/visitstatus"
	"github.com/dalemusser/visitdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound          = errors.New("visit not found")
	ErrNotApproved       = errors.New("visit is not approved")
	ErrNotToday          = errors.New("visit is not scheduled for today")
	ErrAlreadyCheckedIn  = errors.New("visitor is already checked in")
	ErrAlreadyCheckedOut = errors.New("visitor is already checked out")
	ErrNotCheckedIn      = errors.New("visitor is not checked in")
	ErrAlreadyCancelled  = errors.New("visit is already cancelled")
	ErrReasonRequired    = errors.New("a cancellation reason is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("visits")}
}

// Create inserts a visit. Status defaults to pending and VisitType to
// pre-registered; a QR token is always generated.
func (s *Store) Create(ctx context.Context, v models.Visit) (models.Visit, error) {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.NameCI = text.Fold(v.Name)
	if v.Status == "" {
		v.Status = visitstatus.Pending
	}
	if v.VisitType == "" {
		v.VisitType = models.VisitTypePreRegistered
	}
	v.QRToken = uuid.NewString()
	if v.VisitingDate.IsZero() {
		v.VisitingDate = now
	}
	v.VisitingDate = v.VisitingDate.UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return models.Visit{}, err
	}
	return v, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Visit, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByQRToken looks a visit up by the token printed on its badge.
func (s *Store) GetByQRToken(ctx context.Context, token string) (models.Visit, error) {
	return s.findOne(ctx, bson.M{"qr_token": token})
}

// FindTodayByPhone returns the most recent visit for phone whose visiting
// date falls on now's calendar day.
func (s *Store) FindTodayByPhone(ctx context.Context, phone string, now time.Time) (models.Visit, error) {
	start, end := predicate.DayBounds(now)
	filter := bson.M{
		"phone":         phone,
		"visiting_date": bson.M{"$gte": start.UTC(), "$lte": end.UTC()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "visiting_date", Value: -1}})
	var v models.Visit
	err := s.c.FindOne(ctx, filter, opts).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return models.Visit{}, ErrNotFound
	}
	if err != nil {
		return models.Visit{}, err
	}
	return v, nil
}

// Find returns visits matching filter. The caller builds paging and sort.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Visit, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var visits []models.Visit
	if err := cur.All(ctx, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// Count returns the number of visits matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// CountByStatus groups the visits matching filter by status. Every status
// label is present in the result.
func (s *Store) CountByStatus(ctx context.Context, filter bson.M) (visitstatus.Counts, error) {
	if filter == nil {
		filter = bson.M{}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := visitstatus.NewCounts()
	for _, r := range rows {
		if visitstatus.Valid(r.Status) {
			counts[r.Status] = r.N
		}
	}
	return counts, nil
}

// CountForDay counts visits per status whose visiting date is on now's
// calendar day, in now's location.
func (s *Store) CountForDay(ctx context.Context, now time.Time) (visitstatus.Counts, error) {
	start, end := predicate.DayBounds(now)
	return s.CountByStatus(ctx, bson.M{
		"visiting_date": bson.M{"$gte": start.UTC(), "$lte": end.UTC()},
	})
}

// Update rewrites the visitor-editable fields of a visit.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, v models.Visit) error {
	set := bson.M{
		"name":       v.Name,
		"name_ci":    text.Fold(v.Name),
		"company":    v.Company,
		"email":      v.Email,
		"phone":      v.Phone,
		"purpose":    v.Purpose,
		"host":       v.Host,
		"updated_at": time.Now().UTC(),
	}
	if !v.VisitingDate.IsZero() {
		set["visiting_date"] = v.VisitingDate.UTC()
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Approve marks a visit approved. Walk-in visitors are already on site, so
// they are checked in at the same time. The updated visit is returned.
func (s *Store) Approve(ctx context.Context, id primitive.ObjectID) (models.Visit, error) {
	v, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Visit{}, err
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":     visitstatus.Approved,
		"updated_at": now,
	}
	if v.VisitType == models.VisitTypeWalkIn && v.CheckIn == nil {
		set["check_in"] = now
		v.CheckIn = &now
	}
	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return models.Visit{}, err
	}
	v.Status = visitstatus.Approved
	v.UpdatedAt = now
	return v, nil
}

// Cancel marks a visit cancelled with a reason.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID, reason string) (models.Visit, error) {
	if reason == "" {
		return models.Visit{}, ErrReasonRequired
	}
	v, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Visit{}, err
	}
	if v.Status == visitstatus.Cancelled {
		return models.Visit{}, ErrAlreadyCancelled
	}

	now := time.Now().UTC()
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":              visitstatus.Cancelled,
		"cancellation_reason": reason,
		"updated_at":          now,
	}})
	if err != nil {
		return models.Visit{}, err
	}
	v.Status = visitstatus.Cancelled
	v.CancellationReason = reason
	v.UpdatedAt = now
	return v, nil
}

// CheckIn records arrival. The visit must be approved and not yet checked in
// or out.
func (s *Store) CheckIn(ctx context.Context, id primitive.ObjectID, at time.Time) (models.Visit, error) {
	at = at.UTC()
	filter := bson.M{
		"_id":       id,
		"status":    visitstatus.Approved,
		"check_in":  bson.M{"$exists": false},
		"check_out": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"check_in": at, "updated_at": at}}
	return s.transition(ctx, id, filter, update, classifyCheckIn)
}

// CheckOut records departure. The visit must be approved and checked in.
func (s *Store) CheckOut(ctx context.Context, id primitive.ObjectID, at time.Time) (models.Visit, error) {
	at = at.UTC()
	filter := bson.M{
		"_id":       id,
		"status":    visitstatus.Approved,
		"check_in":  bson.M{"$exists": true},
		"check_out": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"check_out": at, "updated_at": at}}
	return s.transition(ctx, id, filter, update, classifyCheckOut)
}

// AutoCheckOut checks out every visitor still on site whose visit started
// before cutoff. It returns the number of visits closed.
func (s *Store) AutoCheckOut(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx, bson.M{
		"check_in":      bson.M{"$exists": true},
		"check_out":     bson.M{"$exists": false},
		"visiting_date": bson.M{"$lt": cutoff.UTC()},
	}, bson.M{"$set": bson.M{"check_out": now, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes a visit by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Visit, error) {
	var v models.Visit
	err := s.c.FindOne(ctx, filter).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return models.Visit{}, ErrNotFound
	}
	if err != nil {
		return models.Visit{}, err
	}
	return v, nil
}

// transition applies a guarded update and, when the guard does not match,
// reloads the visit to report which precondition failed.
func (s *Store) transition(ctx context.Context, id primitive.ObjectID, filter, update bson.M, classify func(models.Visit) error) (models.Visit, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var v models.Visit
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&v)
	if err == nil {
		return v, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Visit{}, err
	}

	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Visit{}, err
	}
	return models.Visit{}, classify(cur)
}

func classifyCheckIn(v models.Visit) error {
	switch {
	case v.Status != visitstatus.Approved:
		return ErrNotApproved
	case v.CheckOut != nil:
		return ErrAlreadyCheckedOut
	case v.CheckIn != nil:
		return ErrAlreadyCheckedIn
	}
	return errors.New("check-in did not apply")
}

func classifyCheckOut(v models.Visit) error {
	switch {
	case v.Status != visitstatus.Approved:
		return ErrNotApproved
	case v.CheckIn == nil:
		return ErrNotCheckedIn
	case v.CheckOut != nil:
		return ErrAlreadyCheckedOut
	}
	return errors.New("check-out did not apply")
}
