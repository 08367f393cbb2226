package projectstore

import (
	"testing"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_AssignsTaskIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, CreateInput{
		Name: "Launch",
		Tasks: []models.ProjectTask{
			{Title: "plan"},
			{ID: "keep-me", Title: "ship", Column: models.ColumnDoing},
		},
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := uuid.Parse(p.Tasks[0].ID); err != nil {
		t.Errorf("generated task ID %q is not a UUID", p.Tasks[0].ID)
	}
	if p.Tasks[0].Column != models.ColumnTodo {
		t.Errorf("default column = %q, want todo", p.Tasks[0].Column)
	}
	if p.Tasks[1].ID != "keep-me" {
		t.Errorf("client task ID = %q, want keep-me", p.Tasks[1].ID)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Tasks) != 2 {
		t.Errorf("stored %d tasks, want 2", len(got.Tasks))
	}
}

func TestStore_ListSummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	store.Create(ctx, CreateInput{Name: "One", Description: "long text", CreatedBy: owner})
	store.Create(ctx, CreateInput{Name: "Two", CreatedBy: owner})
	store.Create(ctx, CreateInput{Name: "Other", CreatedBy: primitive.NewObjectID()})

	list, err := store.ListSummaries(ctx, owner)
	if err != nil {
		t.Fatalf("ListSummaries() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "One" || list[1].Name != "Two" {
		t.Errorf("ListSummaries() = %+v, want [One Two]", list)
	}
}

func TestStore_UpdateDetailsAndTasks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, _ := store.Create(ctx, CreateInput{Name: "Old", CreatedBy: primitive.NewObjectID()})

	got, err := store.UpdateDetails(ctx, p.ID, "New", "desc")
	if err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if got.Name != "New" || got.Description != "desc" {
		t.Errorf("UpdateDetails() = %+v", got)
	}

	got, err = store.ReplaceTasks(ctx, p.ID, []models.ProjectTask{{Title: "a", Column: models.ColumnDone}})
	if err != nil {
		t.Fatalf("ReplaceTasks() error = %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID == "" || got.Tasks[0].Column != models.ColumnDone {
		t.Errorf("ReplaceTasks() tasks = %+v", got.Tasks)
	}

	if _, err := store.ReplaceTasks(ctx, primitive.NewObjectID(), nil); err != mongo.ErrNoDocuments {
		t.Errorf("ReplaceTasks(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_DeleteAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	p, _ := store.Create(ctx, CreateInput{Name: "A", CreatedBy: owner})

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n, _ := store.CountByOwner(ctx, owner); n != 0 {
		t.Errorf("CountByOwner() = %d, want 0", n)
	}
}
