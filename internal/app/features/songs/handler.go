// Package songs serves uploaded audio. Files go to the configured storage
// backend; the database keeps the record and the client-facing URL.
package songs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	playliststore "github.com/dalemusser/stratadaily/internal/app/store/playlists"
	songstore "github.com/dalemusser/stratadaily/internal/app/store/songs"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxUploadSize is the largest song accepted (32 MB).
const maxUploadSize = 32 << 20

// ObjectStore is the part of storage.Store the handler uses.
type ObjectStore interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

type Handler struct {
	songs     *songstore.Store
	playlists *playliststore.Store
	files     ObjectStore
	rs        jsonutil.Responder
	log       *zap.Logger
}

func NewHandler(db *mongo.Database, files ObjectStore, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		songs:     songstore.New(db),
		playlists: playliststore.New(db),
		files:     files,
		rs:        jsonutil.Responder{Log: logger, Dev: dev},
		log:       logger,
	}
}

// Routes returns the router mounted at /api/v1/songs.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
	return r
}

type uploadForm struct {
	SongName     string
	SongImageURL string
	PlayListName string
}

func (f *uploadForm) Validate() error {
	f.SongName = strings.TrimSpace(f.SongName)
	f.SongImageURL = strings.TrimSpace(f.SongImageURL)
	f.PlayListName = strings.TrimSpace(f.PlayListName)
	return validation.ValidateStruct(f,
		validation.Field(&f.SongName, validation.Required.Error("songName is required"), validation.RuneLength(1, 200)),
		validation.Field(&f.SongImageURL, is.URL),
	)
}

// Upload handles POST /songs (multipart: songFile, songName, songImageUrl,
// playListName).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.rs.Fail(w, r, apperr.Validation("Upload must be multipart form data under 32 MB"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := uploadForm{
		SongName:     r.FormValue("songName"),
		SongImageURL: r.FormValue("songImageUrl"),
		PlayListName: r.FormValue("playListName"),
	}
	if err := form.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	file, header, err := r.FormFile("songFile")
	if err != nil {
		h.rs.Fail(w, r, apperr.Validation("songFile is required",
			apperr.FieldError{Field: "songFile", Message: "is required"}))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	storagePath := fmt.Sprintf("songs/%s/%s%s", caller.Hex(), uuid.New().String(), ext)

	if err := h.files.Put(ctx, storagePath, file, &storage.PutOptions{ContentType: contentType}); err != nil {
		h.rs.Fail(w, r, apperr.Internal("Failed to store song", err))
		return
	}

	song, err := h.songs.Create(ctx, songstore.CreateInput{
		Name:         form.SongName,
		SongURL:      h.files.URL(storagePath),
		StoragePath:  storagePath,
		SongImageURL: form.SongImageURL,
		Metadata: models.SongMetadata{
			OriginalName: header.Filename,
			ContentType:  contentType,
			Size:         header.Size,
		},
		CreatedBy: caller,
	})
	if err != nil {
		if derr := h.files.Delete(ctx, storagePath); derr != nil {
			h.log.Warn("orphaned song object", zap.String("path", storagePath), zap.Error(derr))
		}
		h.rs.Fail(w, r, err)
		return
	}

	if form.PlayListName != "" {
		if err := h.addToPlaylist(ctx, caller, form.PlayListName, song.ID); err != nil {
			h.rs.Fail(w, r, err)
			return
		}
	}

	jsonutil.Created(w, "Song uploaded successfully", song)
}

// addToPlaylist appends the song to the named playlist. A name the caller
// has no playlist for is ignored.
func (h *Handler) addToPlaylist(ctx context.Context, owner primitive.ObjectID, name string, songID primitive.ObjectID) error {
	p, err := h.playlists.GetByName(ctx, owner, name)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.playlists.AddSong(ctx, owner, p.ID, songID)
}

// List handles GET /songs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	songs, err := h.songs.ListByOwner(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Songs fetched successfully", songs)
}

// Delete handles DELETE /songs/{id}.
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
	ctx := r.Context()

	song, err := h.songs.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.rs.Fail(w, r, apperr.NotFound("Song not found"))
		return
	}
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := authz.RequireOwner(song.CreatedBy, caller); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	if song.StoragePath != "" {
		if err := h.files.Delete(ctx, song.StoragePath); err != nil {
			h.rs.Fail(w, r, apperr.Internal("Failed to delete song file", err))
			return
		}
	}
	if err := h.songs.Delete(ctx, song.ID); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if _, err := h.playlists.PullSong(ctx, song.ID); err != nil {
		h.log.Warn("pull deleted song from playlists", zap.String("song_id", song.ID.Hex()), zap.Error(err))
	}
	jsonutil.OK(w, "Song deleted successfully", nil)
}
