// Package bookmarks serves saved links. A user cannot bookmark the same URL
// twice; another user's bookmark is reported as missing.
package bookmarks

import (
	"errors"
	"net/http"
	"strings"

	bookmarkstore "github.com/dalemusser/stratadaily/internal/app/store/bookmarks"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/app/system/normalize"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultPageSize matches the client's three-by-three bookmark grid.
const defaultPageSize = 9

type Handler struct {
	bookmarks *bookmarkstore.Store
	rs        jsonutil.Responder
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		bookmarks: bookmarkstore.New(db),
		rs:        jsonutil.Responder{Log: logger, Dev: dev},
	}
}

// Routes returns the router mounted at /api/v1/bookmarks.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func cleanLabels(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

type createRequest struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Labels   []string `json:"labels"`
	Category string   `json:"category"`
}

func (r *createRequest) Validate() error {
	r.URL = normalize.URL(r.URL)
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Labels = cleanLabels(r.Labels)
	return validation.ValidateStruct(r,
		validation.Field(&r.URL, validation.Required, is.URL, validation.Length(1, 2048)),
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, 300)),
		validation.Field(&r.Category, validation.RuneLength(0, 100)),
		validation.Field(&r.Labels, validation.Length(0, 20)),
	)
}

type updateRequest struct {
	URL      *string   `json:"url"`
	Title    *string   `json:"title"`
	Labels   *[]string `json:"labels"`
	Category *string   `json:"category"`
}

func (r *updateRequest) Validate() error {
	if r.URL != nil {
		v := normalize.URL(*r.URL)
		r.URL = &v
	}
	if r.Title != nil {
		v := strings.TrimSpace(*r.Title)
		r.Title = &v
	}
	if r.Labels != nil {
		v := cleanLabels(*r.Labels)
		r.Labels = &v
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.URL, validation.NilOrNotEmpty, is.URL, validation.Length(1, 2048)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 300)),
	)
}

// Create handles POST /bookmarks.
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

	b, err := h.bookmarks.Create(r.Context(), caller, bookmarkstore.Input{
		Title:    req.Title,
		URL:      req.URL,
		Labels:   req.Labels,
		Category: req.Category,
	})
	if err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.Created(w, "Bookmark created successfully", b)
}

// List handles GET /bookmarks?page&limit.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	page := jsonutil.QueryInt(r, "page", 1)
	limit := jsonutil.QueryInt(r, "limit", defaultPageSize)

	res, err := h.bookmarks.List(r.Context(), caller, int64(page), int64(limit))
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Bookmarks fetched successfully", res)
}

// Update handles PATCH /bookmarks/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req updateRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if req.Category != nil {
		v := strings.TrimSpace(*req.Category)
		req.Category = &v
	}

	b, err := h.bookmarks.Update(r.Context(), caller, id, bookmarkstore.Patch{
		Title:    req.Title,
		URL:      req.URL,
		Labels:   req.Labels,
		Category: req.Category,
	})
	if err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.OK(w, "Bookmark updated successfully", b)
}

// Delete handles DELETE /bookmarks/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.bookmarks.Delete(r.Context(), caller, id); err != nil {
		h.rs.Fail(w, r, mapErr(err))
		return
	}
	jsonutil.OK(w, "Bookmark deleted successfully", nil)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, bookmarkstore.ErrDuplicateURL):
		return apperr.Conflict("You have already bookmarked this URL")
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("Bookmark not found")
	}
	return err
}

func target(r *http.Request) (id, caller primitive.ObjectID, err error) {
	caller, err = authz.Caller(r)
	if err != nil {
		return
	}
	id, err = jsonutil.PathID(r, "id")
	return
}
