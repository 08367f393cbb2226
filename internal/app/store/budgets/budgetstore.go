// internal/app/store/budgets/budgetstore.go
package budgetstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the budgets collection.
const Collection = "budgets"

// Store provides access to the budgets collection. A user has at most one
// budget per month, enforced by a unique (created_by, month) index.
type Store struct {
	c *mongo.Collection
}

// New creates a new budget store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// monthKey normalizes any instant to the first instant of its UTC month.
func monthKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Upsert sets the owner's budget for the month containing month.
func (s *Store) Upsert(ctx context.Context, ownerID primitive.ObjectID, month time.Time, amount float64, description string) (*models.Budget, error) {
	key := monthKey(month)
	update := bson.M{
		"$set": bson.M{
			"amount":      amount,
			"description": description,
			"updated_at":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_by": ownerID,
			"month":      key,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var b models.Budget
	err := s.c.FindOneAndUpdate(ctx, bson.M{"created_by": ownerID, "month": key}, update, opts).Decode(&b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get returns the owner's budget for the month containing month, or nil if
// none was set.
func (s *Store) Get(ctx context.Context, ownerID primitive.ObjectID, month time.Time) (*models.Budget, error) {
	var b models.Budget
	err := s.c.FindOne(ctx, bson.M{"created_by": ownerID, "month": monthKey(month)}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Amount returns the budgeted amount for the month, zero when unset.
func (s *Store) Amount(ctx context.Context, ownerID primitive.ObjectID, month time.Time) (float64, error) {
	b, err := s.Get(ctx, ownerID, month)
	if err != nil || b == nil {
		return 0, err
	}
	return b.Amount, nil
}
