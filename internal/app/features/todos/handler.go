// Package todos serves the signed-in user's to-do list.
//
// Listing takes either a named window (?filter=today|this-week|next-week)
// or an explicit ?startDate&endDate range, both inclusive of whole days in
// UTC. A request with neither gets an empty list.
package todos

import (
	"context"
	"errors"
	"net/http"
	"time"

	todostore "github.com/dalemusser/stratadaily/internal/app/store/todos"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/daterange"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/app/system/normalize"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	todos *todostore.Store
	rs    jsonutil.Responder
	now   func() time.Time
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		todos: todostore.New(db),
		rs:    jsonutil.Responder{Log: logger, Dev: dev},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Routes returns the router mounted at /api/v1/todos.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/statusupdate/{id}", h.SetStatus)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles POST /todos.
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

	todo, err := h.todos.Create(r.Context(), todostore.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.due(h.now()),
		Label:       req.Label,
		Priority:    req.Priority,
		CreatedBy:   caller,
	})
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "Todo created successfully", todo)
}

// List handles GET /todos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	window, ok, err := h.window(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if !ok {
		jsonutil.OK(w, "Todos fetched successfully", []models.Todo{})
		return
	}

	todos, err := h.todos.ListDue(r.Context(), caller, window.Start, window.End)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Todos fetched successfully", todos)
}

// window resolves the listing window from the query. ok is false when the
// request names no window.
func (h *Handler) window(r *http.Request) (daterange.Range, bool, error) {
	q := r.URL.Query()
	if f := normalize.Keyword(q.Get("filter")); f != "" {
		rng, ok := daterange.Named(f, h.now())
		if !ok {
			return rng, false, apperr.Validation("Unknown filter: use today, this-week or next-week",
				apperr.FieldError{Field: "filter", Message: "must be today, this-week or next-week"})
		}
		return rng, true, nil
	}

	start, end := normalize.QueryParam(q.Get("startDate")), normalize.QueryParam(q.Get("endDate"))
	if start == "" || end == "" {
		return daterange.Range{}, false, nil
	}
	from, err := daterange.Parse(start, time.UTC)
	if err != nil {
		return daterange.Range{}, false, apperr.Validation("Invalid startDate",
			apperr.FieldError{Field: "startDate", Message: err.Error()})
	}
	to, err := daterange.Parse(end, time.UTC)
	if err != nil {
		return daterange.Range{}, false, apperr.Validation("Invalid endDate",
			apperr.FieldError{Field: "endDate", Message: err.Error()})
	}
	if to.Before(from) {
		return daterange.Range{}, false, apperr.Validation("endDate must not be before startDate")
	}
	return daterange.Days(from, to), true, nil
}

// Update handles PATCH /todos/{id}.
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

	in := todostore.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Label:       req.Label,
		Priority:    req.Priority,
		Done:        req.Done,
	}
	if req.DueDate != nil {
		due, err := daterange.Parse(*req.DueDate, time.UTC)
		if err != nil {
			h.rs.Fail(w, r, apperr.Validation("Invalid dueDate"))
			return
		}
		due = due.UTC()
		in.DueDate = &due
	}
	h.update(w, r, id, caller, in, "Todo updated successfully")
}

// SetStatus handles PATCH /todos/statusupdate/{id}.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req statusRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	h.update(w, r, id, caller, todostore.UpdateInput{Done: req.Done}, "Todo status updated successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id, caller primitive.ObjectID, in todostore.UpdateInput, msg string) {
	if _, err := h.owned(r.Context(), id, caller); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	todo, err := h.todos.Update(r.Context(), id, in)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, msg, todo)
}

// Delete handles DELETE /todos/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if _, err := h.owned(r.Context(), id, caller); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.todos.Delete(r.Context(), id); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Todo deleted successfully", nil)
}

// owned loads a todo and checks that caller owns it.
func (h *Handler) owned(ctx context.Context, id, caller primitive.ObjectID) (*models.Todo, error) {
	todo, err := h.todos.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Todo not found")
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(todo.CreatedBy, caller); err != nil {
		return nil, err
	}
	return todo, nil
}

func target(r *http.Request) (id, caller primitive.ObjectID, err error) {
	caller, err = authz.Caller(r)
	if err != nil {
		return
	}
	id, err = jsonutil.PathID(r, "id")
	return
}
