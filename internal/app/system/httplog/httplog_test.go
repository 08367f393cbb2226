package httplog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/folders", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	ok := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "GET", ok["method"])
	assert.Equal(t, "/api/v1/folders", ok["path"])
	assert.EqualValues(t, 200, ok["status"])
	assert.EqualValues(t, 5, ok["bytes"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 404, entries[1].ContextMap()["status"])
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, levelFor(503))
	assert.Equal(t, zapcore.WarnLevel, levelFor(429))
	assert.Equal(t, zapcore.InfoLevel, levelFor(204))
}
