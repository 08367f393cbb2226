package file

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	parentID := primitive.NewObjectID()
	input := CreateInput{
		Name:        "Notes.txt",
		ParentID:    &parentID,
		OwnerID:     primitive.NewObjectID(),
		Data:        "hello world",
		ContentType: "text/plain",
	}

	f, err := store.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if f.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if f.NameCI != "notes.txt" {
		t.Errorf("NameCI = %q, want notes.txt", f.NameCI)
	}
	if f.Size != int64(len(input.Data)) {
		t.Errorf("Size = %d, want %d", f.Size, len(input.Data))
	}
	if f.IsInRoot() {
		t.Error("file with a parent should not be in root")
	}
}

func TestStore_GetMany_OmitsData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	a, _ := store.Create(ctx, CreateInput{Name: "a", OwnerID: ownerID, Data: "AAAA"})
	b, _ := store.Create(ctx, CreateInput{Name: "b", OwnerID: ownerID, Data: "BBBB"})

	files, err := store.GetMany(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("GetMany() = %d files, want 2", len(files))
	}
	for _, f := range files {
		if f.Data != "" {
			t.Errorf("file %s Data = %q, want omitted", f.Name, f.Data)
		}
		if f.Size != 4 {
			t.Errorf("file %s Size = %d, want 4", f.Name, f.Size)
		}
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f, _ := store.Create(ctx, CreateInput{Name: "old.txt", OwnerID: primitive.NewObjectID(), Data: "x"})

	data := "longer content"
	if err := store.Update(ctx, f.ID, UpdateInput{Data: &data}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := store.GetByID(ctx, f.ID)
	if got.Name != "old.txt" {
		t.Errorf("Name = %q, want unchanged", got.Name)
	}
	if got.Data != data || got.Size != int64(len(data)) {
		t.Errorf("Data = %q Size = %d, want %q / %d", got.Data, got.Size, data, len(data))
	}
}

func TestStore_SetDeletedByParents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	p1, p2 := primitive.NewObjectID(), primitive.NewObjectID()
	store.Create(ctx, CreateInput{Name: "1", ParentID: &p1, OwnerID: ownerID})
	store.Create(ctx, CreateInput{Name: "2", ParentID: &p1, OwnerID: ownerID})
	store.Create(ctx, CreateInput{Name: "3", ParentID: &p2, OwnerID: ownerID})
	loose, _ := store.Create(ctx, CreateInput{Name: "4", OwnerID: ownerID})

	n, err := store.SetDeletedByParents(ctx, []primitive.ObjectID{p1, p2}, true)
	if err != nil {
		t.Fatalf("SetDeletedByParents() error = %v", err)
	}
	if n != 3 {
		t.Errorf("SetDeletedByParents() = %d, want 3", n)
	}
	got, _ := store.GetByID(ctx, loose.ID)
	if got.Deleted {
		t.Error("root file should not be touched")
	}

	count, _ := store.CountByOwner(ctx, ownerID)
	if count != 1 {
		t.Errorf("CountByOwner() = %d, want 1 active", count)
	}
}

func TestStore_DeleteByParents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	a, _ := store.Create(ctx, CreateInput{Name: "a", ParentID: &parent, OwnerID: ownerID})
	store.Create(ctx, CreateInput{Name: "b", ParentID: &parent, OwnerID: ownerID})

	ids, err := store.IDsByParents(ctx, []primitive.ObjectID{parent})
	if err != nil {
		t.Fatalf("IDsByParents() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("IDsByParents() = %d, want 2", len(ids))
	}

	n, err := store.DeleteByParents(ctx, []primitive.ObjectID{parent})
	if err != nil {
		t.Fatalf("DeleteByParents() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteByParents() = %d, want 2", n)
	}
	if _, err := store.GetByID(ctx, a.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID() after delete error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListByParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	store.Create(ctx, CreateInput{Name: "root.txt", OwnerID: ownerID, Data: "r"})
	store.Create(ctx, CreateInput{Name: "inner.txt", ParentID: &parent, OwnerID: ownerID})
	gone, _ := store.Create(ctx, CreateInput{Name: "gone.txt", OwnerID: ownerID})
	store.SetDeleted(ctx, gone.ID, true)

	roots, err := store.ListByParent(ctx, ownerID, nil, ListOptions{})
	if err != nil {
		t.Fatalf("ListByParent() error = %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "root.txt" {
		t.Errorf("ListByParent() = %+v, want root.txt", roots)
	}
	if roots[0].Data != "" {
		t.Error("listing should not load data")
	}

	trash, _ := store.ListByOwner(ctx, ownerID, ListOptions{Deleted: true})
	if len(trash) != 1 || trash[0].ID != gone.ID {
		t.Errorf("ListByOwner(deleted) = %+v, want gone.txt", trash)
	}
}
