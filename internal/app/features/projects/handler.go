// Package projects serves kanban project boards.
package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	projectstore "github.com/dalemusser/stratadaily/internal/app/store/projects"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/app/system/normalize"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	projects *projectstore.Store
	rs       jsonutil.Responder
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		projects: projectstore.New(db),
		rs:       jsonutil.Responder{Log: logger, Dev: dev},
	}
}

// Routes returns the router mounted at /api/v1/project.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/addProject", h.Save)
	r.Get("/getProjects", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.ReplaceTasks)
	r.Delete("/{id}", h.Delete)
	return r
}

var columns = func() []interface{} {
	out := make([]interface{}, len(models.TaskColumns))
	for i, c := range models.TaskColumns {
		out[i] = c
	}
	return out
}()

type taskInput struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Column string `json:"column"`
}

func (t *taskInput) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	t.Column = normalize.Keyword(t.Column)
	return validation.ValidateStruct(t,
		validation.Field(&t.Title, validation.Required, validation.RuneLength(1, 500)),
		validation.Field(&t.Column, validation.In(columns...)),
	)
}

func toTasks(in []taskInput) []models.ProjectTask {
	out := make([]models.ProjectTask, len(in))
	for i, t := range in {
		out[i] = models.ProjectTask{ID: strings.TrimSpace(t.ID), Title: t.Title, Column: t.Column}
	}
	return out
}

type saveRequest struct {
	ProjectID   string      `json:"projectId"`
	Name        string      `json:"projectName"`
	Description string      `json:"projectDescription"`
	Tasks       []taskInput `json:"projectTasks"`
}

func (r *saveRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = htmlsanitize.Text(r.Description)
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	for i := range r.Tasks {
		if err := r.Tasks[i].Validate(); err != nil {
			return validation.Errors{"projectTasks": err}
		}
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.By(objectID)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.Description, validation.RuneLength(0, 5000)),
	)
}

type tasksRequest struct {
	Tasks []taskInput `json:"projectTasks"`
}

func (r *tasksRequest) Validate() error {
	if r.Tasks == nil {
		return validation.Errors{"projectTasks": validation.ErrRequired}
	}
	for i := range r.Tasks {
		if err := r.Tasks[i].Validate(); err != nil {
			return validation.Errors{"projectTasks": err}
		}
	}
	return nil
}

func objectID(v interface{}) error {
	s, _ := v.(string)
	if s == "" || primitive.IsValidObjectID(s) {
		return nil
	}
	return validation.NewError("validation_object_id", "must be a valid id")
}

// Save handles POST /addProject. Without a projectId it creates a board;
// with one it updates that board's name and description.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req saveRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	if req.ProjectID != "" {
		id, _ := primitive.ObjectIDFromHex(req.ProjectID)
		if _, err := h.owned(ctx, id, caller); err != nil {
			h.rs.Fail(w, r, err)
			return
		}
		p, err := h.projects.UpdateDetails(ctx, id, req.Name, req.Description)
		if err != nil {
			h.rs.Fail(w, r, err)
			return
		}
		jsonutil.OK(w, "Project updated successfully", p)
		return
	}

	p, err := h.projects.Create(ctx, projectstore.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Tasks:       toTasks(req.Tasks),
		CreatedBy:   caller,
	})
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "Project created successfully", p)
}

// List handles GET /getProjects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	list, err := h.projects.ListSummaries(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Projects fetched successfully", list)
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	p, err := h.owned(r.Context(), id, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Project fetched successfully", p)
}

// ReplaceTasks handles PUT /{id}: the request carries the whole board.
func (h *Handler) ReplaceTasks(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req tasksRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if _, err := h.owned(r.Context(), id, caller); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	p, err := h.projects.ReplaceTasks(r.Context(), id, toTasks(req.Tasks))
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Project tasks updated successfully", p)
}

// Delete handles DELETE /{id}.
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
	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Project deleted successfully", nil)
}

func (h *Handler) owned(ctx context.Context, id, caller primitive.ObjectID) (*models.Project, error) {
	p, err := h.projects.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Project not found")
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(p.CreatedBy, caller); err != nil {
		return nil, err
	}
	return p, nil
}

func target(r *http.Request) (id, caller primitive.ObjectID, err error) {
	caller, err = authz.Caller(r)
	if err != nil {
		return
	}
	id, err = jsonutil.PathID(r, "id")
	return
}
