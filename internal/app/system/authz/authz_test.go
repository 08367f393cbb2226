package authz

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadaily/internal/app/system/auth"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name   string
		user   *auth.User
		wantOK bool
		wantID primitive.ObjectID
	}{
		{"authenticated", &auth.User{ID: id, Email: "a@example.com"}, true, id},
		{"no user", nil, false, primitive.NilObjectID},
		{"zero id", &auth.User{}, false, primitive.NilObjectID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, *tt.user)
			}
			gotID, ok := UserCtx(req)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if gotID != tt.wantID {
				t.Errorf("id = %v, want %v", gotID, tt.wantID)
			}
		})
	}
}

func TestCaller_Unauthenticated(t *testing.T) {
	_, err := Caller(httptest.NewRequest("GET", "/", nil))
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("Caller() error = %v, want unauthorized", err)
	}
}

func TestRequireOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	if err := RequireOwner(owner, owner); err != nil {
		t.Errorf("RequireOwner(owner, owner) = %v, want nil", err)
	}
	if err := RequireOwner(owner, other); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("RequireOwner(owner, other) = %v, want forbidden", err)
	}
	if err := RequireOwner(primitive.NilObjectID, primitive.NilObjectID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("RequireOwner(nil, nil) = %v, want forbidden", err)
	}
}
