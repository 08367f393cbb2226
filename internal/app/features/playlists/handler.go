// Package playlists serves named song lists. Another user's playlist or song
// is reported as missing.
package playlists

import (
	"errors"
	"net/http"
	"strings"

	playliststore "github.com/dalemusser/stratadaily/internal/app/store/playlists"
	songstore "github.com/dalemusser/stratadaily/internal/app/store/songs"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	playlists *playliststore.Store
	songs     *songstore.Store
	rs        jsonutil.Responder
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		playlists: playliststore.New(db),
		songs:     songstore.New(db),
		rs:        jsonutil.Responder{Log: logger, Dev: dev},
	}
}

// Routes returns the router mounted at /api/v1/playlists.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/songs", h.AddSong)
	r.Delete("/{id}/songs/{songId}", h.RemoveSong)
	return r
}

type createRequest struct {
	Name string `json:"playListName"`
}

func (r *createRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 100)),
	)
}

type songRequest struct {
	SongID string `json:"songId"`
}

// Create handles POST /playlists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req createRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	p, err := h.playlists.Create(r.Context(), caller, req.Name)
	if err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.Created(w, "Playlist created successfully", p)
}

// List handles GET /playlists.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	lists, err := h.playlists.ListByOwner(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Playlists fetched successfully", lists)
}

// Delete handles DELETE /playlists/{id}. The songs themselves are kept.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	id, err := jsonutil.PathID(r, "id")
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.playlists.Delete(r.Context(), caller, id); err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.OK(w, "Playlist deleted successfully", nil)
}

// AddSong handles POST /playlists/{id}/songs. Adding a song twice is a no-op.
func (h *Handler) AddSong(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	id, err := jsonutil.PathID(r, "id")
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req songRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	songID, err := jsonutil.ParseID("songId", req.SongID)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	song, err := h.songs.GetByID(ctx, songID)
	if err != nil || !authz.IsOwner(song.CreatedBy, caller) {
		if err == nil || errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFound("Song not found")
		}
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.playlists.AddSong(ctx, caller, id, song.ID); err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.OK(w, "Song added to playlist", nil)
}

// RemoveSong handles DELETE /playlists/{id}/songs/{songId}.
func (h *Handler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	id, err := jsonutil.PathID(r, "id")
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	songID, err := jsonutil.PathID(r, "songId")
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.playlists.RemoveSong(r.Context(), caller, id, songID); err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.OK(w, "Song removed from playlist", nil)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, playliststore.ErrDuplicateName):
		return apperr.Conflict("A playlist with this name already exists")
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("Playlist not found")
	}
	return err
}
