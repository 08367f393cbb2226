package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadaily/internal/app/system/fstree"
	"github.com/dalemusser/stratadaily/internal/app/system/mailer"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func TestBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	deps := DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Mailer:        mailer.New(mailer.Config{Host: "localhost", Port: 1025, From: "noreply@example.com", FromName: "StrataDaily"}, logger),
		Tree:          fstree.New(db, logger),
	}
	cfg := validAppConfig()
	cfg.StorageType = "s3" // skip the local file server

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler() error = %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/api/v1/todos?filter=today", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/folders", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/user/currentUser", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/user/login", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/auth/google", http.StatusNotFound},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
