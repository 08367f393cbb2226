// Package authz answers "who is calling, and may they touch this record?"
// for feature handlers. Authentication itself happens in the auth
// middleware; this package only reads its result.
package authz

import (
	"net/http"

	"github.com/dalemusser/stratadaily/internal/app/system/auth"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's ObjectID and a found flag. ok=false means
// the request carries no authenticated user and id is NilObjectID.
func UserCtx(r *http.Request) (id primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID.IsZero() {
		return primitive.NilObjectID, false
	}
	return user.ID, true
}

// Caller returns the authenticated caller's ID or an Unauthorized error.
// Routes mounted behind auth.RequireUser always have a caller; this guards
// handlers that are mounted incorrectly.
func Caller(r *http.Request) (primitive.ObjectID, error) {
	id, ok := UserCtx(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthorized("Unauthorized request")
	}
	return id, nil
}

// RequireOwner returns Forbidden unless callerID owns the record.
func RequireOwner(ownerID, callerID primitive.ObjectID) error {
	if ownerID.IsZero() || ownerID != callerID {
		return apperr.Forbidden("Unauthorized access")
	}
	return nil
}

// IsOwner reports whether callerID owns the record.
func IsOwner(ownerID, callerID primitive.ObjectID) bool {
	return RequireOwner(ownerID, callerID) == nil
}
