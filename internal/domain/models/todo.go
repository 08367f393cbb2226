package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Todo is a single to-do item.
type Todo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"todo_name" json:"todoName"`
	Description string             `bson:"todo_description" json:"todoDescription"`
	DueDate     time.Time          `bson:"due_date" json:"dueDate"`
	Label       string             `bson:"label" json:"label"`
	Done        bool               `bson:"done" json:"done"`
	Priority    bool               `bson:"priority" json:"priority"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
