// internal/app/store/playlists/playliststore.go
package playliststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/normalize"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the playlists collection.
const Collection = "playlists"

// ErrDuplicateName is returned when the user already has a playlist with the name.
var ErrDuplicateName = errors.New("a playlist with this name already exists")

// Store provides access to the playlists collection. Every query is scoped
// to an owner; another user's playlist behaves as missing.
type Store struct {
	c *mongo.Collection
}

// New creates a new playlist store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts an empty playlist. Names are unique per owner, compared
// case- and diacritic-insensitively.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, name string) (*models.Playlist, error) {
	name = normalize.Name(name)
	p := models.Playlist{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Songs:     []primitive.ObjectID{},
		CreatedBy: ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &p, nil
}

// GetByName finds the owner's playlist by name. Returns
// mongo.ErrNoDocuments if there is none.
func (s *Store) GetByName(ctx context.Context, ownerID primitive.ObjectID, name string) (*models.Playlist, error) {
	var p models.Playlist
	err := s.c.FindOne(ctx, bson.M{
		"created_by":        ownerID,
		"play_list_name_ci": text.Fold(normalize.Name(name)),
	}).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns the owner's playlists sorted by name.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Playlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "play_list_name_ci", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, bson.M{"created_by": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Playlist{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSong appends a song to the owner's playlist if it is not already there.
// Returns mongo.ErrNoDocuments if the owner has no such playlist.
func (s *Store) AddSong(ctx context.Context, ownerID, playlistID, songID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": playlistID, "created_by": ownerID},
		bson.M{"$addToSet": bson.M{"songs": songID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveSong takes a song out of the owner's playlist.
// Returns mongo.ErrNoDocuments if the owner has no such playlist.
func (s *Store) RemoveSong(ctx context.Context, ownerID, playlistID, songID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": playlistID, "created_by": ownerID},
		bson.M{"$pull": bson.M{"songs": songID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PullSong removes a song from every playlist that references it.
func (s *Store) PullSong(ctx context.Context, songID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"songs": songID},
		bson.M{"$pull": bson.M{"songs": songID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes the owner's playlist. Songs are kept.
// Returns mongo.ErrNoDocuments if the owner has no such playlist.
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
