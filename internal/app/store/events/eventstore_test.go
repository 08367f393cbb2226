package eventstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev, err := store.Create(ctx, primitive.NewObjectID(), Input{Name: "Standup", StartDate: day(2), EndDate: day(2)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Standup" || !got.StartDate.Equal(day(2)) {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestStore_List_Overlap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	store.Create(ctx, owner, Input{Name: "before", StartDate: day(1), EndDate: day(3)})
	store.Create(ctx, owner, Input{Name: "spanning", StartDate: day(4), EndDate: day(20)})
	store.Create(ctx, owner, Input{Name: "inside", StartDate: day(10), EndDate: day(11)})
	store.Create(ctx, owner, Input{Name: "after", StartDate: day(25), EndDate: day(26)})
	store.Create(ctx, primitive.NewObjectID(), Input{Name: "foreign", StartDate: day(10), EndDate: day(11)})

	got, err := store.List(ctx, owner, day(8), day(15))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "spanning" || got[1].Name != "inside" {
		names := make([]string, len(got))
		for i, e := range got {
			names[i] = e.Name
		}
		t.Errorf("List() = %v, want [spanning inside]", names)
	}

	all, err := store.List(ctx, owner, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List(all) returned %d events, want 4", len(all))
	}
}

func TestStore_UpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	ev, _ := store.Create(ctx, owner, Input{Name: "a", StartDate: day(1), EndDate: day(1)})

	got, err := store.Update(ctx, ev.ID, Input{Name: "b", Description: "d", StartDate: day(2), EndDate: day(3)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != "b" || !got.EndDate.Equal(day(3)) {
		t.Errorf("Update() = %+v", got)
	}

	if err := store.Delete(ctx, ev.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByID(ctx, ev.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if n, _ := store.CountByOwner(ctx, owner); n != 0 {
		t.Errorf("CountByOwner() = %d, want 0", n)
	}
}
