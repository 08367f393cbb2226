// Package apperr defines the error taxonomy shared by stores, the explorer
// engine, and HTTP handlers.
//
// Every error that reaches a handler is classified into one Kind, which
// determines the HTTP status and whether the message is shown to the client.
// Internal errors never expose their cause.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// Sentinel errors, usable with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

// FieldError is a single field-level problem reported with a validation error.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error // underlying cause, logged but never sent to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// StatusCode returns the HTTP status for the error's kind.
func (e *Error) StatusCode() int {
	return Status(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindTooManyRequests:
		return ErrTooManyRequests
	default:
		return ErrInternal
	}
}

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns a 400 error with an optional list of field problems.
func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Unauthorized returns a 401 error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden returns a 403 error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound returns a 404 error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict returns a 409 error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// TooManyRequests returns a 429 error.
func TooManyRequests(msg string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: msg}
}

// Internal wraps an unexpected failure. The message is what clients see.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// From classifies an arbitrary error. Classified errors pass through,
// ozzo-validation errors become Validation with per-field messages, and
// Mongo duplicate-key errors become Conflict. Anything else is Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fromValidation(verrs)
	}

	if mongo.IsDuplicateKeyError(err) {
		return &Error{Kind: KindConflict, Message: "Resource already exists", Err: err}
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return &Error{Kind: KindNotFound, Message: "Resource not found", Err: err}
	case errors.Is(err, ErrValidation):
		return &Error{Kind: KindValidation, Message: err.Error()}
	case errors.Is(err, ErrForbidden):
		return &Error{Kind: KindForbidden, Message: "Unauthorized access", Err: err}
	case errors.Is(err, ErrConflict):
		return &Error{Kind: KindConflict, Message: err.Error()}
	}

	return &Error{Kind: KindInternal, Message: "Internal error", Err: err}
}

func fromValidation(verrs validation.Errors) *Error {
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]FieldError, 0, len(keys))
	for _, k := range keys {
		if verrs[k] == nil {
			continue
		}
		fields = append(fields, FieldError{Field: k, Message: verrs[k].Error()})
	}

	msg := "Invalid input"
	if len(fields) == 1 {
		msg = fields[0].Field + ": " + fields[0].Message
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// KindOf returns the kind of err after classification.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return From(err).Kind
}
