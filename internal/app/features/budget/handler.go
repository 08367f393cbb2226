// Package budget serves the signed-in user's budget for the current month.
package budget

import (
	"net/http"
	"time"

	budgetstore "github.com/dalemusser/stratadaily/internal/app/store/budgets"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	budgets *budgetstore.Store
	rs      jsonutil.Responder
	now     func() time.Time
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		budgets: budgetstore.New(db),
		rs:      jsonutil.Responder{Log: logger, Dev: dev},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Routes returns the router mounted at /api/v1/budget.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Put("/", h.Set)
	return r
}

type setRequest struct {
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
}

func (r *setRequest) Validate() error {
	r.Description = htmlsanitize.Text(r.Description)
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.NotNil, validation.Min(0.0)),
		validation.Field(&r.Description, validation.RuneLength(0, 500)),
	)
}

// Set handles PUT /budget.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req setRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	b, err := h.budgets.Upsert(r.Context(), caller, h.now(), *req.Amount, req.Description)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Budget updated successfully", b)
}

// Get handles GET /budget. data is null when no budget is set this month.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	b, err := h.budgets.Get(r.Context(), caller, h.now())
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Budget fetched successfully", b)
}
