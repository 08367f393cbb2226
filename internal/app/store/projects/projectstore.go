// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the projects collection.
const Collection = "projects"

// Store provides access to the projects collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new project store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// withTaskIDs returns tasks with a fresh UUID on every task that lacks an ID
// and the default column on every task that lacks one.
func withTaskIDs(tasks []models.ProjectTask) []models.ProjectTask {
	out := make([]models.ProjectTask, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Column == "" {
			t.Column = models.ColumnTodo
		}
		out[i] = t
	}
	return out
}

// CreateInput contains the input for creating a project.
type CreateInput struct {
	Name        string
	Description string
	Tasks       []models.ProjectTask
	CreatedBy   primitive.ObjectID
}

// Create inserts a new project board.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Description: input.Description,
		Tasks:       withTaskIDs(input.Tasks),
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a project. Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSummaries returns the owner's projects, oldest first, with names only.
func (s *Store) ListSummaries(ctx context.Context, ownerID primitive.ObjectID) ([]models.ProjectSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{"project_name": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, bson.M{"created_by": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ProjectSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDetails sets the project's name and description.
func (s *Store) UpdateDetails(ctx context.Context, id primitive.ObjectID, name, description string) (*models.Project, error) {
	return s.update(ctx, id, bson.M{
		"project_name":        name,
		"project_description": description,
	})
}

// ReplaceTasks overwrites the project's kanban tasks.
func (s *Store) ReplaceTasks(ctx context.Context, id primitive.ObjectID, tasks []models.ProjectTask) (*models.Project, error) {
	return s.update(ctx, id, bson.M{"project_tasks": withTaskIDs(tasks)})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Project, error) {
	set["updated_at"] = time.Now().UTC()

	var p models.Project
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a project.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountByOwner returns the number of projects owned by a user.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_by": ownerID})
}
