package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadaily/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type downPinger struct{}

func (downPinger) Ping(context.Context, *readpref.ReadPref) error {
	return errors.New("connection refused")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandler_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decode(t, rec)
	if resp.Status != "ok" {
		t.Errorf("response status = %q, want %q", resp.Status, "ok")
	}
	if resp.Services["mongodb"] != "ok" {
		t.Errorf("mongodb status = %q, want %q", resp.Services["mongodb"], "ok")
	}
}

func TestHandler_Check_Degraded(t *testing.T) {
	h := NewHandler(downPinger{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if resp := decode(t, rec); resp.Services["mongodb"] != "unavailable" {
		t.Errorf("mongodb status = %q, want unavailable", resp.Services["mongodb"])
	}
}

func TestHandler_Ready(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Ready() status = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp := decode(t, rec); resp.Status != "ready" {
		t.Errorf("Ready() status = %q, want ready", resp.Status)
	}
}

func TestHandler_Ready_Down(t *testing.T) {
	h := NewHandler(downPinger{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready() status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandler_Live(t *testing.T) {
	// Live doesn't need DB - just check the handler works
	h := NewHandler(downPinger{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Live() status = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp := decode(t, rec); resp.Status != "alive" {
		t.Errorf("Live() status = %q, want alive", resp.Status)
	}
}

func TestMountRootEndpoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())
	r := chi.NewRouter()
	MountRootEndpoints(r, h)

	for _, path := range []string{"/health", "/ready", "/live"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
			}
		})
	}
}
