// internal/app/store/passwordreset/passwordresetstore.go
package passwordreset

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/authutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidToken is returned when a reset token is unknown, used, or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// Reset represents a password reset request. The raw token is only ever
// handed to the user; the record keeps its hash.
type Reset struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Email     string             `bson:"email"`
	TokenHash string             `bson:"token_hash"`
	Used      bool               `bson:"used"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the password_resets collection.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a new password reset store. Tokens expire after expiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	return &Store{
		c:      db.Collection("password_resets"),
		expiry: expiry,
	}
}

// Create records a new reset request and returns the raw token to send to
// the user. Any earlier unused tokens for this user are invalidated.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string) (string, *Reset, error) {
	if _, err := s.c.UpdateMany(
		ctx,
		bson.M{"user_id": userID, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	); err != nil {
		return "", nil, err
	}

	token, err := authutil.NewToken()
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	r := Reset{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Email:     email,
		TokenHash: authutil.HashToken(token),
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return "", nil, err
	}
	return token, &r, nil
}

// Consume verifies a raw token and marks it used in one step, so a link
// works exactly once. Returns ErrInvalidToken if it is unknown, used, or
// expired.
func (s *Store) Consume(ctx context.Context, token string) (*Reset, error) {
	filter := bson.M{
		"token_hash": authutil.HashToken(token),
		"used":       false,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	var r Reset
	err := s.c.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"used": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &r, nil
}

// DeleteStale removes used records and records past their expiry. The TTL
// index also expires records; this catches used ones sooner.
func (s *Store) DeleteStale(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": []bson.M{
		{"used": true},
		{"expires_at": bson.M{"$lte": time.Now().UTC()}},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
