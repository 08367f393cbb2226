package playlists

import (
	"net/http"
	"testing"

	songstore "github.com/dalemusser/stratadaily/internal/app/store/songs"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func serve(t *testing.T, h http.Handler, method, target string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func TestPlaylists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := Routes(NewHandler(db, zap.NewNop(), false))
	user := testutil.NewTestUser()
	stranger := testutil.NewTestUser()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	songs := songstore.New(db)
	mine, _ := songs.Create(ctx, songstore.CreateInput{Name: "Mine", CreatedBy: user.ID})
	theirs, _ := songs.Create(ctx, songstore.CreateInput{Name: "Theirs", CreatedBy: stranger.ID})

	rec := serve(t, h, http.MethodPost, "/", map[string]string{"playListName": " Focus "}, user)
	rec.AssertStatus(t, http.StatusCreated)
	var p models.Playlist
	rec.Data(t, &p)
	if p.Name != "Focus" {
		t.Fatalf("playlist = %+v", p)
	}
	path := "/" + p.ID.Hex()

	t.Run("create validation", func(t *testing.T) {
		serve(t, h, http.MethodPost, "/", map[string]string{"playListName": "FOCUS"}, user).AssertStatus(t, http.StatusConflict)
		serve(t, h, http.MethodPost, "/", map[string]string{"playListName": "  "}, user).AssertStatus(t, http.StatusBadRequest)
		serve(t, h, http.MethodPost, "/", map[string]string{"playListName": "Focus"}, stranger).AssertStatus(t, http.StatusCreated)
	})

	t.Run("add song", func(t *testing.T) {
		serve(t, h, http.MethodPost, path+"/songs", map[string]string{"songId": mine.ID.Hex()}, user).AssertStatus(t, http.StatusOK)
		serve(t, h, http.MethodPost, path+"/songs", map[string]string{"songId": mine.ID.Hex()}, user).AssertStatus(t, http.StatusOK)
		serve(t, h, http.MethodPost, path+"/songs", map[string]string{"songId": theirs.ID.Hex()}, user).AssertStatus(t, http.StatusNotFound)
		serve(t, h, http.MethodPost, path+"/songs", map[string]string{"songId": "nope"}, user).AssertStatus(t, http.StatusBadRequest)
		serve(t, h, http.MethodPost, "/"+primitive.NewObjectID().Hex()+"/songs", map[string]string{"songId": mine.ID.Hex()}, user).
			AssertStatus(t, http.StatusNotFound)

		rec := serve(t, h, http.MethodGet, "/", nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var lists []models.Playlist
		rec.Data(t, &lists)
		if len(lists) != 1 || len(lists[0].Songs) != 1 || lists[0].Songs[0] != mine.ID {
			t.Errorf("playlists = %+v", lists)
		}
	})

	t.Run("remove song", func(t *testing.T) {
		serve(t, h, http.MethodDelete, path+"/songs/"+mine.ID.Hex(), nil, stranger).AssertStatus(t, http.StatusNotFound)
		serve(t, h, http.MethodDelete, path+"/songs/"+mine.ID.Hex(), nil, user).AssertStatus(t, http.StatusOK)
	})

	t.Run("delete", func(t *testing.T) {
		serve(t, h, http.MethodDelete, path, nil, stranger).AssertStatus(t, http.StatusNotFound)
		serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusOK)
		serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusNotFound)
	})
}
