// Package jsonutil provides helper functions for JSON API responses.
//
// Every response uses one of two envelopes:
//
//	{"success": true,  "message": "...", "data": ...}
//	{"success": false, "message": "...", "errors": [...]}
//
// Handlers return domain errors and let Fail pick the status code.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds JSON request bodies. File contents travel in JSON, so
// the limit is generous.
const MaxBodyBytes = 30 << 20

// Envelope is the success response body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorEnvelope is the failure response body.
type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// OK writes a 200 success envelope.
//
// Usage:
//
//	jsonutil.OK(w, "Folder created", folder)
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope with the given status.
func Error(w http.ResponseWriter, status int, message string, fields ...apperr.FieldError) {
	if fields == nil {
		fields = []apperr.FieldError{}
	}
	JSON(w, status, ErrorEnvelope{Success: false, Message: message, Errors: fields})
}

// BadRequest writes a 400 failure envelope.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 failure envelope.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 failure envelope.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Responder writes errors for one environment. In dev, the cause of an
// internal error is attached to the envelope to ease debugging; in any other
// environment causes are only logged.
type Responder struct {
	Log *zap.Logger
	Dev bool
}

// Fail classifies err, logs internal failures, and writes the matching
// failure envelope.
func (rs Responder) Fail(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	status := ae.StatusCode()

	fields := ae.Fields
	if ae.Kind == apperr.KindInternal {
		if rs.Log != nil {
			rs.Log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		if rs.Dev && ae.Err != nil {
			fields = append(fields, apperr.FieldError{Message: ae.Err.Error()})
		}
	}

	Error(w, status, ae.Message, fields...)
}

// Decode reads a JSON body into v. Unknown fields are ignored; malformed or
// oversized bodies return a validation error ready for Fail.
//
// Usage:
//
//	var req createFolderRequest
//	if err := jsonutil.Decode(w, r, &req); err != nil {
//	    h.rs.Fail(w, r, err)
//	    return
//	}
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required")
		case errors.As(err, &maxErr):
			return apperr.Validation(fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
		default:
			return apperr.Validation("Malformed JSON: " + err.Error())
		}
	}
	return nil
}
