// Package events serves calendar events.
package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	eventstore "github.com/dalemusser/stratadaily/internal/app/store/events"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/daterange"
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
	events *eventstore.Store
	rs     jsonutil.Responder
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		events: eventstore.New(db),
		rs:     jsonutil.Responder{Log: logger, Dev: dev},
	}
}

// Routes returns the router mounted at /api/v1/event.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

type eventRequest struct {
	Name        string `json:"eventName"`
	Description string `json:"eventDescription"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// input validates the request and resolves its dates. A missing end date
// means a single-instant event.
func (r *eventRequest) input() (eventstore.Input, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = htmlsanitize.Text(r.Description)
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.Description, validation.RuneLength(0, 5000)),
		validation.Field(&r.StartDate, validation.Required, daterange.Valid),
		validation.Field(&r.EndDate, daterange.Valid),
	)
	if err != nil {
		return eventstore.Input{}, err
	}

	start, _ := daterange.Parse(r.StartDate, time.UTC)
	end, _ := daterange.ParseOr(r.EndDate, start, time.UTC)
	if end.Before(start) {
		return eventstore.Input{}, validation.Errors{
			"endDate": validation.NewError("validation_end_before_start", "must not be before startDate"),
		}
	}
	return eventstore.Input{
		Name:        r.Name,
		Description: r.Description,
		StartDate:   start.UTC(),
		EndDate:     end.UTC(),
	}, nil
}

// Create handles POST /event.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req eventRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ev, err := h.events.Create(r.Context(), caller, in)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "Event created successfully", ev)
}

// List handles GET /event. With ?start&end only overlapping events are
// returned; otherwise all of the caller's events.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var from, to time.Time
	q := r.URL.Query()
	if s, e := normalize.QueryParam(q.Get("start")), normalize.QueryParam(q.Get("end")); s != "" && e != "" {
		if from, err = daterange.Parse(s, time.UTC); err != nil {
			h.rs.Fail(w, r, apperr.Validation("Invalid start date"))
			return
		}
		if to, err = daterange.Parse(e, time.UTC); err != nil {
			h.rs.Fail(w, r, apperr.Validation("Invalid end date"))
			return
		}
	}

	events, err := h.events.List(r.Context(), caller, from, to)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Events fetched successfully", events)
}

// Update handles PUT /event/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req eventRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if _, err := h.owned(r.Context(), id, caller); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ev, err := h.events.Update(r.Context(), id, in)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Event updated successfully", ev)
}

// Delete handles DELETE /event/{id}.
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
	if err := h.events.Delete(r.Context(), id); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Event deleted successfully", nil)
}

func (h *Handler) owned(ctx context.Context, id, caller primitive.ObjectID) (*models.Event, error) {
	ev, err := h.events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Event not found")
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(ev.CreatedBy, caller); err != nil {
		return nil, err
	}
	return ev, nil
}

func target(r *http.Request) (id, caller primitive.ObjectID, err error) {
	caller, err = authz.Caller(r)
	if err != nil {
		return
	}
	id, err = jsonutil.PathID(r, "id")
	return
}
