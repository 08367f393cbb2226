package ratelimit

import (
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestStore(t *testing.T, max int, window, lockout time.Duration) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return New(db, max, window, lockout)
}

func TestStore_Check_NoRecord(t *testing.T) {
	store := newTestStore(t, 5, time.Minute, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := store.Check(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !st.Allowed || st.Remaining != 5 {
		t.Errorf("Check() = %+v, want allowed with 5 remaining", st)
	}
}

func TestStore_RecordFailure_CountsDown(t *testing.T) {
	store := newTestStore(t, 5, time.Minute, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 1; i <= 3; i++ {
		st, err := store.RecordFailure(ctx, "User@Example.com")
		if err != nil {
			t.Fatalf("RecordFailure() #%d error = %v", i, err)
		}
		if st.Remaining != 5-i {
			t.Errorf("after %d failures Remaining = %d, want %d", i, st.Remaining, 5-i)
		}
	}

	// Lookups are case-insensitive.
	st, _ := store.Check(ctx, "user@example.com")
	if st.Remaining != 2 {
		t.Errorf("Check() Remaining = %d, want 2", st.Remaining)
	}
}

func TestStore_RecordFailure_LocksOut(t *testing.T) {
	store := newTestStore(t, 3, time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var st Status
	for i := 0; i < 3; i++ {
		st, _ = store.RecordFailure(ctx, "user@example.com")
	}
	if st.Allowed || st.LockedUntil == nil {
		t.Fatalf("RecordFailure() = %+v, want locked", st)
	}
	if time.Until(*st.LockedUntil) < 14*time.Minute {
		t.Errorf("LockedUntil = %v, want about 15m out", st.LockedUntil)
	}

	st, err := store.Check(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if st.Allowed {
		t.Error("Check() should refuse a locked email")
	}
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t, 3, time.Minute, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "user@example.com")
	store.RecordFailure(ctx, "user@example.com")
	if err := store.Clear(ctx, "USER@example.com"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	st, _ := store.Check(ctx, "user@example.com")
	if st.Remaining != 3 {
		t.Errorf("Remaining after Clear = %d, want 3", st.Remaining)
	}
}

func TestStore_WindowExpiry_ResetsCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, time.Minute, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "user@example.com")
	store.RecordFailure(ctx, "user@example.com")

	// Age the window past its duration.
	_, err := db.Collection(Collection).UpdateOne(ctx, bson.M{"email": "user@example.com"},
		bson.M{"$set": bson.M{"window_start": time.Now().Add(-2 * time.Minute)}})
	if err != nil {
		t.Fatalf("UpdateOne() error = %v", err)
	}

	st, err := store.RecordFailure(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	if !st.Allowed || st.Remaining != 2 {
		t.Errorf("RecordFailure() = %+v, want fresh window with 2 remaining", st)
	}
}

func TestStore_DeleteStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, time.Minute, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "old@example.com")
	store.RecordFailure(ctx, "new@example.com")
	_, err := db.Collection(Collection).UpdateOne(ctx, bson.M{"email": "old@example.com"},
		bson.M{"$set": bson.M{"last_attempt": time.Now().Add(-48 * time.Hour)}})
	if err != nil {
		t.Fatalf("UpdateOne() error = %v", err)
	}

	n, err := store.DeleteStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteStale() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteStale() = %d, want 1", n)
	}
}
