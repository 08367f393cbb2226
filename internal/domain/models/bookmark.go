package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bookmark is a saved link. URLs are unique per user.
type Bookmark struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	URL       string             `bson:"url" json:"url"`
	Labels    []string           `bson:"labels" json:"labels"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
