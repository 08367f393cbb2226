// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account holder. Every other resource references its owner by
// User.ID.
//
// Auth fields:
//   - Email: login identifier (stored lowercase, unique)
//   - PasswordHash: bcrypt hash; nil for third-party accounts
//   - RefreshTokenHash: sha256 hex of the currently valid refresh token
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	ProfilePic string             `bson:"profile_pic" json:"profilePic"`
	IsVerified bool               `bson:"is_verified" json:"isVerified"`

	PasswordHash     *string `bson:"password_hash,omitempty" json:"-"`
	IsThirdParty     bool    `bson:"is_third_party" json:"isThirdParty"`
	RefreshTokenHash *string `bson:"refresh_token_hash,omitempty" json:"-"`

	Labels []Label `bson:"labels" json:"labels"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Label is a user-defined tag applied to todos and bookmarks.
type Label struct {
	ID     primitive.ObjectID `bson:"_id" json:"_id"`
	Name   string             `bson:"label_name" json:"labelName"`
	NameCI string             `bson:"label_name_ci" json:"-"`
	Color  string             `bson:"label_color,omitempty" json:"labelColor"`
}
