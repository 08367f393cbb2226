package jsonutil

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PathID parses the chi URL parameter key as an ObjectID. A malformed ID is
// a validation error naming the parameter.
func PathID(r *http.Request, key string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, key)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid "+key, apperr.FieldError{Field: key, Message: "must be a valid id"})
	}
	return id, nil
}

// ParseID parses an ObjectID from a request field. Blank input is
// rejected the same way as malformed input.
func ParseID(field, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid "+field, apperr.FieldError{Field: field, Message: "must be a valid id"})
	}
	return id, nil
}

// QueryInt reads a positive integer query parameter, falling back to def
// when it is absent or not a positive number.
func QueryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
