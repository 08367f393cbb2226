package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratadaily/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    primitive.ObjectID
	Email string
}

// NewTestUser returns a TestUser with a fresh ID.
func NewTestUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID(),
		Email: "user@test.com",
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the token middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, auth.User{ID: user.ID, Email: user.Email})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request whose body is v encoded as JSON.
// A string body is sent as-is, which lets tests post malformed JSON.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader
	switch b := v.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates a JSON request with a user in context.
func NewAuthenticatedRequest(t *testing.T, method, target string, v any, user TestUser) *http.Request {
	t.Helper()
	return WithUser(NewJSONRequest(t, method, target, v), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// Envelope mirrors the API response body for decoding in tests.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// Envelope decodes the response body.
func (r *ResponseRecorder) Envelope(t *testing.T) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response envelope: %v (body: %s)", err, r.Body.String())
	}
	return env
}

// Data decodes the envelope's data field into v.
func (r *ResponseRecorder) Data(t *testing.T, v any) {
	t.Helper()
	env := r.Envelope(t)
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode response data: %v (data: %s)", err, string(env.Data))
	}
}
