package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// User is the authenticated caller, as carried in the request context.
type User struct {
	ID    primitive.ObjectID
	Email string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user, if any.
func CurrentUser(r *http.Request) (User, bool) {
	u, ok := r.Context().Value(currentUserKey).(User)
	return u, ok
}

// UserID returns the authenticated user's ID, or NilObjectID if the request
// is unauthenticated.
func UserID(r *http.Request) primitive.ObjectID {
	u, _ := CurrentUser(r)
	return u.ID
}

func withUser(r *http.Request, u User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user into the request context (for tests).
func WithTestUser(r *http.Request, u User) *http.Request {
	return withUser(r, u)
}

// tokenFromRequest extracts the access token from the Authorization header
// ("Bearer <token>") or, failing that, the access token cookie.
func tokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid Authorization format (expected: Bearer <token>)")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("missing access token")
}

// RequireUser returns middleware that rejects requests without a valid
// access token and injects the caller into the context otherwise.
//
// Usage in routes.go:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(auth.RequireUser(tokens, logger))
//	    r.Mount("/folders", foldersfeature.Routes(h))
//	})
func RequireUser(tokens *TokenManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := tokenFromRequest(r)
			if err != nil {
				logger.Debug("request rejected: no token",
					zap.String("path", r.URL.Path),
					zap.String("reason", err.Error()),
				)
				jsonutil.Unauthorized(w, "Unauthorized request")
				return
			}

			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					jsonutil.Unauthorized(w, "Access token expired")
					return
				}
				logger.Warn("request rejected: invalid access token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				jsonutil.Unauthorized(w, "Invalid access token")
				return
			}

			id, _ := claims.UserID() // validated in VerifyAccess
			next.ServeHTTP(w, withUser(r, User{ID: id, Email: claims.Email}))
		})
	}
}
