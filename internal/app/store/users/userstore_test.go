package userstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// newTestStore returns a store over a fresh database. SetupTestDB installs
// the production indexes, including the unique email index.
func newTestStore(t *testing.T) (*Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return New(db), db
}

func strPtr(s string) *string { return &s }

func TestStore_Create(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, CreateInput{
		Name:         "  Test User ",
		Email:        " Test@Example.COM ",
		PasswordHash: strPtr("hash"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID.IsZero() {
		t.Error("Create() did not assign ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if created.Email != "test@example.com" {
		t.Errorf("Email = %q, want normalized", created.Email)
	}
	if created.Name != "Test User" {
		t.Errorf("Name = %q, want trimmed", created.Name)
	}
	if created.Labels == nil {
		t.Error("Labels should be an empty slice, not nil")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, CreateInput{Name: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, CreateInput{Name: "B", Email: "DUP@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, _ := store.Create(ctx, CreateInput{Name: "A", Email: "a@example.com"})

	got, err := store.GetByEmail(ctx, "A@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %v, want %v", got.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByEmail(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_UpsertThirdParty(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.UpsertThirdParty(ctx, "g@example.com", "Google User", "https://img")
	if err != nil {
		t.Fatalf("UpsertThirdParty() error = %v", err)
	}
	if !first.IsThirdParty || !first.IsVerified {
		t.Errorf("new account = %+v, want verified third-party", first)
	}

	second, err := store.UpsertThirdParty(ctx, "G@example.com", "Other Name", "")
	if err != nil {
		t.Fatalf("UpsertThirdParty() second error = %v", err)
	}
	if second.ID != first.ID {
		t.Error("second sign-in should return the same account")
	}
	if second.Name != "Google User" {
		t.Errorf("Name = %q, existing profile should be kept", second.Name)
	}
}

func TestStore_UpsertThirdParty_LinksPasswordAccount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing, _ := store.Create(ctx, CreateInput{Name: "Pw", Email: "pw@example.com", PasswordHash: strPtr("h")})

	got, err := store.UpsertThirdParty(ctx, "pw@example.com", "Pw", "")
	if err != nil {
		t.Fatalf("UpsertThirdParty() error = %v", err)
	}
	if got.ID != existing.ID {
		t.Error("should link to the existing account")
	}
	if got.PasswordHash == nil || *got.PasswordHash != "h" {
		t.Error("password hash should be untouched")
	}
}

func TestStore_RefreshTokenHash(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, CreateInput{Name: "A", Email: "a@example.com"})

	if err := store.SetRefreshTokenHash(ctx, u.ID, strPtr("abc")); err != nil {
		t.Fatalf("SetRefreshTokenHash() error = %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.RefreshTokenHash == nil || *got.RefreshTokenHash != "abc" {
		t.Errorf("RefreshTokenHash = %v, want abc", got.RefreshTokenHash)
	}

	if err := store.SetRefreshTokenHash(ctx, u.ID, nil); err != nil {
		t.Fatalf("SetRefreshTokenHash(nil) error = %v", err)
	}
	got, _ = store.GetByID(ctx, u.ID)
	if got.RefreshTokenHash != nil {
		t.Error("RefreshTokenHash should be cleared")
	}
}

func TestStore_UpdatePassword(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, CreateInput{Name: "A", Email: "a@example.com", PasswordHash: strPtr("old")})
	store.SetRefreshTokenHash(ctx, u.ID, strPtr("session"))

	if err := store.UpdatePassword(ctx, u.ID, "new"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if *got.PasswordHash != "new" {
		t.Errorf("PasswordHash = %q, want new", *got.PasswordHash)
	}
	if got.RefreshTokenHash != nil {
		t.Error("UpdatePassword() should revoke the refresh token")
	}

	if err := store.UpdatePassword(ctx, primitive.NewObjectID(), "x"); err != mongo.ErrNoDocuments {
		t.Errorf("UpdatePassword(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, CreateInput{Name: "A", Email: "a@example.com", ProfilePic: "old.png"})

	got, err := store.UpdateProfile(ctx, u.ID, ProfileUpdate{Name: strPtr(" New Name ")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("Name = %q, want New Name", got.Name)
	}
	if got.ProfilePic != "old.png" {
		t.Errorf("ProfilePic = %q, should be unchanged", got.ProfilePic)
	}
}

func TestStore_Labels(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, CreateInput{Name: "A", Email: "a@example.com"})

	work, err := store.AddLabel(ctx, u.ID, "Work", "#ff0000")
	if err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}
	if _, err := store.AddLabel(ctx, u.ID, "Home", ""); err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}

	if _, err := store.AddLabel(ctx, u.ID, " WORK ", ""); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("AddLabel(duplicate) error = %v, want ErrDuplicateLabel", err)
	}
	if _, err := store.AddLabel(ctx, primitive.NewObjectID(), "X", ""); err != mongo.ErrNoDocuments {
		t.Errorf("AddLabel(missing user) error = %v, want ErrNoDocuments", err)
	}

	labels, err := store.Labels(ctx, u.ID)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}
	if len(labels) != 2 || labels[0].Name != "Work" || labels[1].Name != "Home" {
		t.Errorf("Labels() = %+v, want [Work Home]", labels)
	}

	removed, err := store.RemoveLabel(ctx, u.ID, work.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveLabel() = %v, %v; want true, nil", removed, err)
	}
	removed, _ = store.RemoveLabel(ctx, u.ID, work.ID)
	if removed {
		t.Error("RemoveLabel() twice should report false")
	}

	labels, _ = store.Labels(ctx, u.ID)
	if len(labels) != 1 {
		t.Errorf("Labels() after remove = %d, want 1", len(labels))
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, CreateInput{Name: "A", Email: "a@example.com"})
	n, err := store.Delete(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v; want 1, nil", n, err)
	}
	if _, err := store.GetByID(ctx, u.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID() after delete error = %v, want ErrNoDocuments", err)
	}
}
