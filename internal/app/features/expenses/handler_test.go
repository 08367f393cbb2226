package expenses

import (
	"net/http"
	"testing"
	"time"

	budgetstore "github.com/dalemusser/stratadaily/internal/app/store/budgets"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, time.March, 18, 15, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop(), false)
	h.now = func() time.Time { return fixedNow }
	return Routes(h), db
}

func serve(t *testing.T, h http.Handler, method, target string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func add(t *testing.T, h http.Handler, user testutil.TestUser, category string, amount float64, date string) models.Expense {
	t.Helper()
	rec := serve(t, h, http.MethodPost, "/", map[string]any{"category": category, "amount": amount, "date": date}, user)
	rec.AssertStatus(t, http.StatusCreated)
	var e models.Expense
	rec.Data(t, &e)
	return e
}

func TestCreate_Validation(t *testing.T) {
	h, _ := newRouter(t)
	user := testutil.NewTestUser()

	cases := []map[string]any{
		{"amount": 10, "date": "2026-03-18"},
		{"category": "food", "amount": 0, "date": "2026-03-18"},
		{"category": "food", "amount": -4, "date": "2026-03-18"},
		{"category": "food", "amount": 4},
	}
	for _, body := range cases {
		serve(t, h, http.MethodPost, "/", body, user).AssertStatus(t, http.StatusBadRequest)
	}
}

func TestReports(t *testing.T) {
	h, db := newRouter(t)
	user := testutil.NewTestUser()

	add(t, h, user, "food", 10, "2026-03-05")
	add(t, h, user, "rent", 100, "2026-03-18T08:00:00Z")
	add(t, h, user, "food", 5, "2026-02-10")
	add(t, h, user, "food", 7, "2025-03-01")
	add(t, h, testutil.NewTestUser(), "food", 999, "2026-03-18")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := budgetstore.New(db).Upsert(ctx, user.ID, fixedNow, 500, "march"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	t.Run("today by default", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/?startDate=null", nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var rep Report
		rec.Data(t, &rep)
		if len(rep.Expenses) != 1 || rep.TotalSpent != 100 {
			t.Errorf("report = %+v, want the rent expense only", rep)
		}
	})

	t.Run("inclusive range", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/?startDate=2026-03-01&endDate=2026-03-18", nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var rep Report
		rec.Data(t, &rep)
		if len(rep.Expenses) != 2 || rep.TotalSpent != 110 {
			t.Errorf("report = %+v", rep)
		}
		if len(rep.CategoryData) != 2 || rep.CategoryData[0].Category != "food" || rep.CategoryData[0].TotalAmount != 10 {
			t.Errorf("categoryData = %+v", rep.CategoryData)
		}
	})

	t.Run("monthly", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/monthlyExpenses", nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var months []MonthTotal
		rec.Data(t, &months)
		if len(months) != 12 {
			t.Fatalf("got %d months, want 12", len(months))
		}
		if months[2].Month != "Mar" || months[2].Curr != 110 || months[2].Prev != 7 {
			t.Errorf("March = %+v", months[2])
		}
		if months[1].Curr != 5 || months[1].Prev != 0 {
			t.Errorf("February = %+v", months[1])
		}
	})

	t.Run("summary", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/expenseSummary", nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var s Summary
		rec.Data(t, &s)
		want := Summary{
			CurrentMonthBudget:    500,
			CurrentMonthExpenses:  110,
			PreviousMonthExpenses: 5,
			CurrentMonthSavings:   390,
			PrevMonthSavings:      -5,
		}
		if s != want {
			t.Errorf("summary = %+v, want %+v", s, want)
		}
	})

	serve(t, h, http.MethodGet, "/?startDate=yesterday", nil, user).AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateDelete_OwnerScoped(t *testing.T) {
	h, _ := newRouter(t)
	user := testutil.NewTestUser()
	stranger := testutil.NewTestUser()
	e := add(t, h, user, "food", 10, "2026-03-05")
	path := "/" + e.ID.Hex()
	body := map[string]any{"category": "groceries", "amount": 12.5, "date": "2026-03-06", "modeOfPayment": "card"}

	serve(t, h, http.MethodPatch, path, body, stranger).AssertStatus(t, http.StatusNotFound)
	serve(t, h, http.MethodDelete, path, nil, stranger).AssertStatus(t, http.StatusNotFound)

	rec := serve(t, h, http.MethodPatch, path, body, user)
	rec.AssertStatus(t, http.StatusOK)
	var got models.Expense
	rec.Data(t, &got)
	if got.Category != "groceries" || got.Amount != 12.5 || got.ModeOfPayment != "card" {
		t.Errorf("updated expense = %+v", got)
	}

	serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusOK)
	serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusNotFound)
}
