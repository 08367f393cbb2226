// internal/app/store/expenses/expensestore.go
package expensestore

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the expenses collection.
const Collection = "expenses"

// Store provides access to the expenses collection. Every query is scoped to
// an owner; another user's expense behaves as missing.
type Store struct {
	c *mongo.Collection
}

// New creates a new expense store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Input holds the editable fields of an expense.
type Input struct {
	Description   string
	Category      string
	Amount        float64
	Date          time.Time
	ModeOfPayment string
}

// Create inserts a new expense.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, input Input) (*models.Expense, error) {
	e := models.Expense{
		ID:            primitive.NewObjectID(),
		Description:   input.Description,
		Category:      input.Category,
		Amount:        input.Amount,
		Date:          input.Date,
		ModeOfPayment: input.ModeOfPayment,
		CreatedBy:     ownerID,
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the owner's expense fields. Returns mongo.ErrNoDocuments
// if the owner has no such expense.
func (s *Store) Update(ctx context.Context, ownerID, id primitive.ObjectID, input Input) (*models.Expense, error) {
	set := bson.M{
		"description":     input.Description,
		"category":        input.Category,
		"amount":          input.Amount,
		"date":            input.Date,
		"mode_of_payment": input.ModeOfPayment,
	}

	var e models.Expense
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "created_by": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the owner's expense. Returns mongo.ErrNoDocuments if the
// owner has no such expense.
func (s *Store) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "created_by": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func rangeMatch(ownerID primitive.ObjectID, from, to time.Time) bson.M {
	return bson.M{
		"created_by": ownerID,
		"date":       bson.M{"$gte": from, "$lt": to},
	}
}

// List returns the owner's expenses dated in [from, to), newest first.
func (s *Store) List(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, rangeMatch(ownerID, from, to), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Expense{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category    string  `bson:"_id" json:"category"`
	TotalAmount float64 `bson:"total" json:"totalAmount"`
}

// CategoryTotals sums the owner's spending in [from, to) per category,
// ordered by category name.
func (s *Store) CategoryTotals(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]CategoryTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeMatch(ownerID, from, to)}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "total": bson.M{"$sum": "$amount"}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []CategoryTotal{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Total sums the owner's spending in [from, to).
func (s *Store) Total(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeMatch(ownerID, from, to)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// MonthlyTotals sums the owner's spending per calendar month (UTC) of year.
// Index 0 is January.
func (s *Store) MonthlyTotals(ctx context.Context, ownerID primitive.ObjectID, year int) ([12]float64, error) {
	var out [12]float64

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeMatch(ownerID, from, from.AddDate(1, 0, 0))}},
		{{Key: "$group", Value: bson.M{"_id": bson.M{"$month": "$date"}, "total": bson.M{"$sum": "$amount"}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Month int     `bson:"_id"`
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return out, err
	}
	for _, r := range rows {
		if r.Month >= 1 && r.Month <= 12 {
			out[r.Month-1] = r.Total
		}
	}
	return out, nil
}
