// internal/app/store/ratelimit/store.go

// Package ratelimit tracks failed sign-in attempts per email and locks an
// email out after too many failures in a window.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the login attempts collection.
const Collection = "login_attempts"

// Attempt tracks failed sign-ins for one email.
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`         // normalized
	AttemptCount int                `bson:"attempt_count"` // failures in current window
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"` // nil if not locked
	LastAttempt  time.Time          `bson:"last_attempt"` // for TTL cleanup
}

// Status is the sign-in standing of one email.
type Status struct {
	Allowed     bool
	Remaining   int        // attempts left before lockout
	LockedUntil *time.Time // set while locked
}

// Store manages failed sign-in tracking.
type Store struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
}

// New creates a Store that locks an email for lockout after maxAttempts
// failures within window.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:               db.Collection(Collection),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
	}
}

func (s *Store) status(a Attempt, now time.Time) Status {
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return Status{Allowed: false, LockedUntil: a.LockedUntil}
	}
	if now.After(a.WindowStart.Add(s.windowDuration)) {
		return Status{Allowed: true, Remaining: s.maxAttempts}
	}
	remaining := s.maxAttempts - a.AttemptCount
	if remaining <= 0 {
		return Status{Allowed: false}
	}
	return Status{Allowed: true, Remaining: remaining}
}

// Check reports whether email may attempt to sign in.
func (s *Store) Check(ctx context.Context, email string) (Status, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Status{Allowed: true, Remaining: s.maxAttempts}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return s.status(a, time.Now().UTC()), nil
}

// RecordFailure counts a failed sign-in and locks the email once the limit
// is reached. The returned status reflects the failure just recorded.
func (s *Store) RecordFailure(ctx context.Context, email string) (Status, error) {
	email = normalize.Email(email)
	now := time.Now().UTC()

	// Count within the current window.
	var a Attempt
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email, "window_start": bson.M{"$gt": now.Add(-s.windowDuration)}},
		bson.M{"$inc": bson.M{"attempt_count": 1}, "$set": bson.M{"last_attempt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)

	if errors.Is(err, mongo.ErrNoDocuments) {
		// No record, or its window lapsed: start a new window.
		a = Attempt{Email: email, AttemptCount: 1, WindowStart: now, LastAttempt: now}
		_, err = s.c.UpdateOne(ctx,
			bson.M{"email": email},
			bson.M{"$set": bson.M{
				"attempt_count": 1,
				"window_start":  now,
				"locked_until":  nil,
				"last_attempt":  now,
			}},
			options.Update().SetUpsert(true),
		)
	}
	if err != nil {
		return Status{}, err
	}

	if a.AttemptCount >= s.maxAttempts && (a.LockedUntil == nil || !now.Before(*a.LockedUntil)) {
		until := now.Add(s.lockoutDuration)
		if _, err := s.c.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"locked_until": until}}); err != nil {
			return Status{}, err
		}
		a.LockedUntil = &until
	}
	return s.status(a, now), nil
}

// Clear forgets failures for email. Called after a successful sign-in.
func (s *Store) Clear(ctx context.Context, email string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"email": normalize.Email(email)})
	return err
}

// DeleteStale removes records whose last failure is older than age.
func (s *Store) DeleteStale(ctx context.Context, age time.Duration) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"last_attempt": bson.M{"$lt": time.Now().UTC().Add(-age)}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
