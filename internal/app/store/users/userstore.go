// internal/app/store/users/userstore.go
package userstore

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

// Collection is the name of the users collection.
const Collection = "users"

var (
	// ErrDuplicateEmail is returned when creating a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateLabel is returned when a user already has a label with the same name.
	ErrDuplicateLabel = errors.New("label already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by email address (case-insensitive).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateInput holds the fields for creating a new user.
type CreateInput struct {
	Name         string
	Email        string
	PasswordHash *string // nil for third-party accounts
	ProfilePic   string
	IsThirdParty bool
	IsVerified   bool
}

// Create inserts a new user. Returns ErrDuplicateEmail if the email is taken.
func (s *Store) Create(ctx context.Context, input CreateInput) (models.User, error) {
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         normalize.Name(input.Name),
		Email:        normalize.Email(input.Email),
		ProfilePic:   input.ProfilePic,
		IsVerified:   input.IsVerified,
		PasswordHash: input.PasswordHash,
		IsThirdParty: input.IsThirdParty,
		Labels:       []models.Label{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpsertThirdParty returns the user with the given email, creating a
// verified third-party account if none exists. Existing accounts are linked
// as they are; their password and profile are left untouched.
func (s *Store) UpsertThirdParty(ctx context.Context, email, name, profilePic string) (*models.User, error) {
	now := time.Now().UTC()
	email = normalize.Email(email)

	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":            primitive.NewObjectID(),
			"name":           normalize.Name(name),
			"email":          email,
			"profile_pic":    profilePic,
			"is_verified":    true,
			"is_third_party": true,
			"labels":         []models.Label{},
			"created_at":     now,
			"updated_at":     now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			// Lost an insert race; the other writer created the account.
			return s.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return &u, nil
}

// SetRefreshTokenHash records the hash of the user's current refresh token.
// A nil hash revokes it.
func (s *Store) SetRefreshTokenHash(ctx context.Context, id primitive.ObjectID, hash *string) error {
	var update bson.M
	if hash == nil {
		update = bson.M{"$unset": bson.M{"refresh_token_hash": ""}}
	} else {
		update = bson.M{"$set": bson.M{"refresh_token_hash": *hash}}
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// UpdatePassword replaces the password hash and revokes any refresh token so
// existing sessions must sign in again.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"refresh_token_hash": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ProfileUpdate holds the optional profile fields. nil means unchanged.
type ProfileUpdate struct {
	Name       *string
	ProfilePic *string
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if upd.ProfilePic != nil {
		set["profile_pic"] = *upd.ProfilePic
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Labels returns the user's labels in creation order.
func (s *Store) Labels(ctx context.Context, id primitive.ObjectID) ([]models.Label, error) {
	var u models.User
	opts := options.FindOne().SetProjection(bson.M{"labels": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&u); err != nil {
		return nil, err
	}
	if u.Labels == nil {
		return []models.Label{}, nil
	}
	return u.Labels, nil
}

// AddLabel appends a label to the user. Names are unique per user, compared
// case- and diacritic-insensitively. Returns ErrDuplicateLabel on a clash and
// mongo.ErrNoDocuments if the user does not exist.
func (s *Store) AddLabel(ctx context.Context, userID primitive.ObjectID, name, color string) (models.Label, error) {
	name = normalize.Name(name)
	label := models.Label{
		ID:     primitive.NewObjectID(),
		Name:   name,
		NameCI: text.Fold(name),
		Color:  color,
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "labels.label_name_ci": bson.M{"$ne": label.NameCI}},
		bson.M{"$push": bson.M{"labels": label}},
	)
	if err != nil {
		return models.Label{}, err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": userID})
		if err != nil {
			return models.Label{}, err
		}
		if n == 0 {
			return models.Label{}, mongo.ErrNoDocuments
		}
		return models.Label{}, ErrDuplicateLabel
	}
	return label, nil
}

// RemoveLabel deletes a label. Reports whether the label existed.
func (s *Store) RemoveLabel(ctx context.Context, userID, labelID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "labels._id": labelID},
		bson.M{"$pull": bson.M{"labels": bson.M{"_id": labelID}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Delete deletes a user by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
