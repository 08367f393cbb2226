package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is a leaf node in a user's explorer tree. Data holds the file's
// content as an opaque string.
type File struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"-"`
	ParentID    *primitive.ObjectID `bson:"parent_id" json:"parentId"` // nil = root level
	OwnerID     primitive.ObjectID  `bson:"owner_id" json:"ownerId"`
	Deleted     bool                `bson:"deleted" json:"deleted"`
	DeletedAt   *time.Time          `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	Data        string              `bson:"data" json:"data"`
	ContentType string              `bson:"content_type,omitempty" json:"contentType,omitempty"`
	Size        int64               `bson:"size" json:"size"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsInRoot returns true if the file is at the root level (not in any folder).
func (f *File) IsInRoot() bool {
	return f.ParentID == nil
}
