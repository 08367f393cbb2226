// internal/app/store/songs/songstore.go
package songstore

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the songs collection.
const Collection = "songs"

// Store provides access to the songs collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new song store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// CreateInput contains the input for recording an uploaded song.
type CreateInput struct {
	Name         string
	SongURL      string
	StoragePath  string
	SongImageURL string
	Metadata     models.SongMetadata
	CreatedBy    primitive.ObjectID
}

// Create records an uploaded song.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Song, error) {
	song := models.Song{
		ID:           primitive.NewObjectID(),
		Name:         input.Name,
		SongURL:      input.SongURL,
		StoragePath:  input.StoragePath,
		SongImageURL: input.SongImageURL,
		Metadata:     input.Metadata,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, song); err != nil {
		return nil, err
	}
	return &song, nil
}

// GetByID retrieves a song. Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Song, error) {
	var song models.Song
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&song); err != nil {
		return nil, err
	}
	return &song, nil
}

// ListByOwner returns the owner's songs in upload order.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Song, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, bson.M{"created_by": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Song{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a song record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountByOwner returns the number of songs owned by a user.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_by": ownerID})
}
