package budgetstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	mid := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

	first, err := store.Upsert(ctx, owner, mid, 500, "groceries")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !first.Month.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Month = %v, want first of March", first.Month)
	}

	second, err := store.Upsert(ctx, owner, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 650, "more")
	if err != nil {
		t.Fatalf("Upsert() second error = %v", err)
	}
	if second.ID != first.ID || second.Amount != 650 {
		t.Errorf("second Upsert() = %+v, want same document with amount 650", second)
	}

	n, _ := db.Collection(Collection).CountDocuments(ctx, bson.M{"created_by": owner})
	if n != 1 {
		t.Errorf("stored %d budgets, want 1", n)
	}
}

func TestStore_GetAndAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := store.Get(ctx, owner, march)
	if err != nil || got != nil {
		t.Fatalf("Get(unset) = %v, %v; want nil, nil", got, err)
	}

	store.Upsert(ctx, owner, march, 300, "")

	amt, err := store.Amount(ctx, owner, time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC))
	if err != nil || amt != 300 {
		t.Errorf("Amount(march) = %v, %v; want 300", amt, err)
	}
	amt, err = store.Amount(ctx, owner, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	if err != nil || amt != 0 {
		t.Errorf("Amount(february) = %v, %v; want 0", amt, err)
	}
}
