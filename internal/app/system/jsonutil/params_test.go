package jsonutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPathID(t *testing.T) {
	want := primitive.NewObjectID()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", want.Hex())

	got, err := PathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "not-an-id")
	_, err = PathID(req, "id")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestParseID(t *testing.T) {
	want := primitive.NewObjectID()
	got, err := ParseID("songId", " "+want.Hex()+" ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseID("songId", "")
	require.Error(t, err)
	assert.Equal(t, "songId", apperr.From(err).Fields[0].Field)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&neg=-2", nil)
	assert.Equal(t, 3, QueryInt(req, "page", 1))
	assert.Equal(t, 9, QueryInt(req, "limit", 9))
	assert.Equal(t, 1, QueryInt(req, "neg", 1))
	assert.Equal(t, 5, QueryInt(req, "missing", 5))
}
