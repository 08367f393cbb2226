// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the events collection.
const Collection = "events"

// Store provides access to the events collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new event store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Input holds the editable fields of an event.
type Input struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// Create inserts a new event owned by createdBy.
func (s *Store) Create(ctx context.Context, createdBy primitive.ObjectID, input Input) (*models.Event, error) {
	now := time.Now().UTC()
	ev := models.Event{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// GetByID retrieves an event. Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var ev models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// List returns the owner's events ordered by start date. With a non-zero
// window only events overlapping [from, to) are returned.
func (s *Store) List(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]models.Event, error) {
	filter := bson.M{"created_by": ownerID}
	if !from.IsZero() && !to.IsZero() {
		filter["start_date"] = bson.M{"$lt": to}
		filter["end_date"] = bson.M{"$gte": from}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update replaces the event's editable fields and returns the result.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input Input) (*models.Event, error) {
	set := bson.M{
		"event_name":        input.Name,
		"event_description": input.Description,
		"start_date":        input.StartDate,
		"end_date":          input.EndDate,
		"updated_at":        time.Now().UTC(),
	}

	var ev models.Event
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Delete removes an event.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountByOwner returns the number of events owned by a user.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_by": ownerID})
}
