package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kanban columns a project task can sit in.
const (
	ColumnBacklog = "backlog"
	ColumnTodo    = "todo"
	ColumnDoing   = "doing"
	ColumnDone    = "done"
)

// TaskColumns lists the valid kanban columns in board order.
var TaskColumns = []string{ColumnBacklog, ColumnTodo, ColumnDoing, ColumnDone}

// Project is a kanban board.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"project_name" json:"projectName"`
	Description string             `bson:"project_description" json:"projectDescription"`
	Tasks       []ProjectTask      `bson:"project_tasks" json:"projectTasks"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ProjectTask is a card on a project board. IDs are client-visible strings
// (UUIDs when generated server-side).
type ProjectTask struct {
	ID     string `bson:"_id" json:"_id"`
	Title  string `bson:"title" json:"title"`
	Column string `bson:"column" json:"column"`
}

// ProjectSummary is the name-only projection used by project lists.
type ProjectSummary struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"project_name" json:"projectName"`
}
