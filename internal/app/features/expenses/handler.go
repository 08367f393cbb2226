// Package expenses serves spending records and the reports built on them.
//
// All month arithmetic is done in UTC so that reports agree with the
// per-month budgets.
package expenses

import (
	"net/http"
	"strings"
	"time"

	budgetstore "github.com/dalemusser/stratadaily/internal/app/store/budgets"
	expensestore "github.com/dalemusser/stratadaily/internal/app/store/expenses"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/daterange"
	"github.com/dalemusser/stratadaily/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	expenses *expensestore.Store
	budgets  *budgetstore.Store
	rs       jsonutil.Responder
	now      func() time.Time
}

func NewHandler(db *mongo.Database, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		expenses: expensestore.New(db),
		budgets:  budgetstore.New(db),
		rs:       jsonutil.Responder{Log: logger, Dev: dev},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Routes returns the router mounted at /api/v1/expense.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/monthlyExpenses", h.Monthly)
	r.Get("/expenseSummary", h.Summary)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

type expenseRequest struct {
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
	ModeOfPayment string  `json:"modeOfPayment"`
}

func (r *expenseRequest) input() (expensestore.Input, error) {
	r.Category = strings.TrimSpace(r.Category)
	r.ModeOfPayment = strings.TrimSpace(r.ModeOfPayment)
	r.Description = htmlsanitize.Text(r.Description)
	err := validation.ValidateStruct(r,
		validation.Field(&r.Category, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Date, validation.Required, daterange.Valid),
		validation.Field(&r.Description, validation.RuneLength(0, 1000)),
		validation.Field(&r.ModeOfPayment, validation.RuneLength(0, 50)),
	)
	if err != nil {
		return expensestore.Input{}, err
	}
	date, _ := daterange.Parse(r.Date, time.UTC)
	return expensestore.Input{
		Description:   r.Description,
		Category:      r.Category,
		Amount:        r.Amount,
		Date:          date.UTC(),
		ModeOfPayment: r.ModeOfPayment,
	}, nil
}

// Create handles POST /expense.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req expenseRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	e, err := h.expenses.Create(r.Context(), caller, in)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "Expense added successfully", e)
}

// Update handles PATCH /expense/{id}. Another user's expense is reported as
// missing.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req expenseRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	e, err := h.expenses.Update(r.Context(), caller, id, in)
	if err != nil {
		h.rs.Fail(w, r, notFound(err))
		return
	}
	jsonutil.OK(w, "Expense updated successfully", e)
}

// Delete handles DELETE /expense/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), caller, id); err != nil {
		h.rs.Fail(w, r, notFound(err))
		return
	}
	jsonutil.OK(w, "Expense deleted successfully", nil)
}

// Report is the body of GET /expense.
type Report struct {
	Expenses     []models.Expense             `json:"expenses"`
	TotalSpent   float64                      `json:"totalSpent"`
	CategoryData []expensestore.CategoryTotal `json:"categoryData"`
}

// List handles GET /expense?startDate&endDate. Missing dates mean today and
// the end date is inclusive.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	now := h.now()
	q := r.URL.Query()
	from, err := daterange.ParseOr(q.Get("startDate"), now, time.UTC)
	if err != nil {
		h.rs.Fail(w, r, apperr.Validation("Invalid startDate",
			apperr.FieldError{Field: "startDate", Message: err.Error()}))
		return
	}
	to, err := daterange.ParseOr(q.Get("endDate"), now, time.UTC)
	if err != nil {
		h.rs.Fail(w, r, apperr.Validation("Invalid endDate",
			apperr.FieldError{Field: "endDate", Message: err.Error()}))
		return
	}
	window := daterange.Days(from.UTC(), to.UTC())
	ctx := r.Context()

	list, err := h.expenses.List(ctx, caller, window.Start, window.End)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	cats, err := h.expenses.CategoryTotals(ctx, caller, window.Start, window.End)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var total float64
	for _, c := range cats {
		total += c.TotalAmount
	}
	jsonutil.OK(w, "Expenses fetched successfully", Report{Expenses: list, TotalSpent: total, CategoryData: cats})
}

// MonthTotal compares one month's spending across two years.
type MonthTotal struct {
	Month string  `json:"month"`
	Curr  float64 `json:"curr"`
	Prev  float64 `json:"prev"`
}

// Monthly handles GET /expense/monthlyExpenses: this year against last,
// month by month.
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	year := h.now().Year()
	curr, err := h.expenses.MonthlyTotals(r.Context(), caller, year)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	prev, err := h.expenses.MonthlyTotals(r.Context(), caller, year-1)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	out := make([]MonthTotal, 12)
	for i := range out {
		out[i] = MonthTotal{Month: time.Month(i + 1).String()[:3], Curr: curr[i], Prev: prev[i]}
	}
	jsonutil.OK(w, "Monthly expenses fetched successfully", out)
}

// Summary is the body of GET /expense/expenseSummary.
type Summary struct {
	CurrentMonthBudget    float64 `json:"currentMonthBudget"`
	PrevMonthBudget       float64 `json:"prevMonthBudget"`
	CurrentMonthExpenses  float64 `json:"currentMonthExpenses"`
	PreviousMonthExpenses float64 `json:"previousMonthExpenses"`
	CurrentMonthSavings   float64 `json:"currentMonthSavings"`
	PrevMonthSavings      float64 `json:"prevMonthSavings"`
}

// Summary handles GET /expense/expenseSummary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()
	curr := daterange.Month(h.now())
	prev := daterange.Month(curr.Start.AddDate(0, -1, 0))

	var s Summary
	if s.CurrentMonthBudget, err = h.budgets.Amount(ctx, caller, curr.Start); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if s.PrevMonthBudget, err = h.budgets.Amount(ctx, caller, prev.Start); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if s.CurrentMonthExpenses, err = h.expenses.Total(ctx, caller, curr.Start, curr.End); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if s.PreviousMonthExpenses, err = h.expenses.Total(ctx, caller, prev.Start, prev.End); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	s.CurrentMonthSavings = s.CurrentMonthBudget - s.CurrentMonthExpenses
	s.PrevMonthSavings = s.PrevMonthBudget - s.PreviousMonthExpenses
	jsonutil.OK(w, "Expense summary fetched successfully", s)
}

// notFound maps a missing owner-scoped record to a NotFound error.
func notFound(err error) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.NotFound("Expense not found")
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
