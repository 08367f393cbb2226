package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Expense is a single spending record.
type Expense struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Amount        float64            `bson:"amount" json:"amount"`
	Date          time.Time          `bson:"date" json:"date"`
	ModeOfPayment string             `bson:"mode_of_payment,omitempty" json:"modeOfPayment,omitempty"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"-"`
}

// Budget is a user's spending budget for one calendar month. Month is the
// first instant of that month in UTC.
type Budget struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	Month       time.Time          `bson:"month" json:"date"`
	Description string             `bson:"description" json:"description"`
	Amount      float64            `bson:"amount" json:"amount"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
