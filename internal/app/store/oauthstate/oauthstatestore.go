// internal/app/store/oauthstate/oauthstatestore.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TTL is how long a sign-in attempt may take between redirect and callback.
const TTL = 10 * time.Minute

// ErrUnknownState is returned when a callback carries a state that was never
// issued, has expired, or was already used.
var ErrUnknownState = errors.New("unknown or expired oauth state")

// State is one pending OAuth sign-in: the CSRF state value plus the PKCE
// verifier the callback needs to redeem the code.
type State struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	Verifier  string             `bson:"verifier"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the oauth_states collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("oauth_states"),
	}
}

// Create records a pending sign-in.
func (s *Store) Create(ctx context.Context, state, verifier string) error {
	now := time.Now().UTC()
	_, err := s.c.InsertOne(ctx, State{
		ID:        primitive.NewObjectID(),
		State:     state,
		Verifier:  verifier,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	})
	return err
}

// Consume deletes a pending sign-in and returns its PKCE verifier. A state
// can be consumed once.
func (s *Store) Consume(ctx context.Context, state string) (string, error) {
	filter := bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	var st State
	if err := s.c.FindOneAndDelete(ctx, filter).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUnknownState
		}
		return "", err
	}
	return st.Verifier, nil
}

// DeleteExpired removes abandoned sign-ins.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
