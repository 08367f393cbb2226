package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a calendar entry. Events are plain records; there is no
// recurrence.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"event_name" json:"eventName"`
	Description string             `bson:"event_description" json:"eventDescription"`
	StartDate   time.Time          `bson:"start_date" json:"startDate"`
	EndDate     time.Time          `bson:"end_date" json:"endDate"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
