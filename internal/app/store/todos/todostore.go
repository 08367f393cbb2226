// internal/app/store/todos/todostore.go
package todostore

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the todos collection.
const Collection = "todos"

// Store provides access to the todos collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new todo store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// CreateInput contains the input for creating a todo.
type CreateInput struct {
	Name        string
	Description string
	DueDate     time.Time
	Label       string
	Priority    bool
	CreatedBy   primitive.ObjectID
}

// Create inserts a new, open todo.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Todo, error) {
	now := time.Now().UTC()
	todo := models.Todo{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Description: input.Description,
		DueDate:     input.DueDate,
		Label:       input.Label,
		Priority:    input.Priority,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// GetByID retrieves a todo. Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Todo, error) {
	var todo models.Todo
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// ListDue returns the owner's todos due in [from, to), soonest first.
func (s *Store) ListDue(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]models.Todo, error) {
	filter := bson.M{
		"created_by": ownerID,
		"due_date":   bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	todos := []models.Todo{}
	if err := cur.All(ctx, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// UpdateInput holds the optional todo fields. nil means unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	Label       *string
	Priority    *bool
	Done        *bool
}

// Update applies input and returns the updated todo.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*models.Todo, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if input.Name != nil {
		set["todo_name"] = *input.Name
	}
	if input.Description != nil {
		set["todo_description"] = *input.Description
	}
	if input.DueDate != nil {
		set["due_date"] = *input.DueDate
	}
	if input.Label != nil {
		set["label"] = *input.Label
	}
	if input.Priority != nil {
		set["priority"] = *input.Priority
	}
	if input.Done != nil {
		set["done"] = *input.Done
	}

	var todo models.Todo
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// Delete removes a todo.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountByOwner returns the number of todos owned by a user.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_by": ownerID})
}
