// Package labels serves the signed-in user's labels, which tag todos and
// bookmarks. Labels are embedded in the user document.
package labels

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/stratadaily/internal/app/store/users"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	users *userstore.Store
	rs    jsonutil.Responder
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		users: userstore.New(db),
		rs:    jsonutil.Responder{Log: logger, Dev: dev},
	}
}

// Routes returns the router mounted at /api/v1/label.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{labelId}", h.Delete)
	return r
}

type createRequest struct {
	Name  string `json:"labelName"`
	Color string `json:"labelColor"`
}

func (r *createRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Color = strings.TrimSpace(r.Color)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&r.Color, validation.Length(0, 32)),
	)
}

// List handles GET /label.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	labels, err := h.users.Labels(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Labels fetched successfully", labels)
}

// Create handles POST /label.
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

	label, err := h.users.AddLabel(r.Context(), caller, req.Name, req.Color)
	switch {
	case errors.Is(err, userstore.ErrDuplicateLabel):
		h.rs.Fail(w, r, apperr.Conflict("Label already exists"))
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		h.rs.Fail(w, r, apperr.NotFound("User not found"))
		return
	case err != nil:
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "Label created successfully", label)
}

// Delete handles DELETE /label/{labelId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	labelID, err := jsonutil.PathID(r, "labelId")
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	removed, err := h.users.RemoveLabel(r.Context(), caller, labelID)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if !removed {
		h.rs.Fail(w, r, apperr.NotFound("Label not found"))
		return
	}
	jsonutil.OK(w, "Label deleted successfully", nil)
}
