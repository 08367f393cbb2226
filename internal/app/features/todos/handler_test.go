package todos

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.uber.org/zap"
)

// Wednesday.
var fixedNow = time.Date(2026, time.March, 18, 9, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(testutil.SetupTestDB(t), zap.NewNop(), false)
	h.now = func() time.Time { return fixedNow }
	return Routes(h)
}

func serve(t *testing.T, h http.Handler, method, target string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func create(t *testing.T, h http.Handler, user testutil.TestUser, body map[string]any) models.Todo {
	t.Helper()
	rec := serve(t, h, http.MethodPost, "/", body, user)
	rec.AssertStatus(t, http.StatusCreated)
	var todo models.Todo
	rec.Data(t, &todo)
	return todo
}

func list(t *testing.T, h http.Handler, user testutil.TestUser, query string) []models.Todo {
	t.Helper()
	rec := serve(t, h, http.MethodGet, "/"+query, nil, user)
	rec.AssertStatus(t, http.StatusOK)
	var todos []models.Todo
	rec.Data(t, &todos)
	return todos
}

func TestCreate(t *testing.T) {
	h := newRouter(t)
	user := testutil.NewTestUser()

	todo := create(t, h, user, map[string]any{
		"todoName":        "Pay rent",
		"label":           "Home",
		"todoDescription": "<b>before</b> the 1st",
		"priority":        true,
	})
	if todo.Description != "before the 1st" {
		t.Errorf("description = %q, want markup stripped", todo.Description)
	}
	if !todo.DueDate.Equal(fixedNow) {
		t.Errorf("dueDate = %v, want now", todo.DueDate)
	}
	if todo.Done || !todo.Priority || todo.CreatedBy != user.ID {
		t.Errorf("todo = %+v", todo)
	}

	rec := serve(t, h, http.MethodPost, "/", map[string]any{"todoName": "No label"}, user)
	rec.AssertStatus(t, http.StatusBadRequest)
	serve(t, h, http.MethodPost, "/", map[string]any{"todoName": "x", "label": "y", "dueDate": "soon"}, user).
		AssertStatus(t, http.StatusBadRequest)
}

func TestList(t *testing.T) {
	h := newRouter(t)
	user := testutil.NewTestUser()

	create(t, h, user, map[string]any{"todoName": "today", "label": "a", "dueDate": "2026-03-18T17:00:00Z"})
	create(t, h, user, map[string]any{"todoName": "saturday", "label": "a", "dueDate": "2026-03-21"})
	create(t, h, user, map[string]any{"todoName": "next monday", "label": "a", "dueDate": "2026-03-23"})
	create(t, h, testutil.NewTestUser(), map[string]any{"todoName": "foreign", "label": "a", "dueDate": "2026-03-18"})

	cases := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"?filter=today", 1},
		{"?filter=this-week", 2},
		{"?filter=next-week", 1},
		{"?startDate=2026-03-18&endDate=2026-03-23", 3},
		{"?startDate=2026-03-19&endDate=2026-03-21", 1},
	}
	for _, tc := range cases {
		if got := list(t, h, user, tc.query); len(got) != tc.want {
			t.Errorf("GET %q returned %d todos, want %d", tc.query, len(got), tc.want)
		}
	}

	serve(t, h, http.MethodGet, "/?filter=someday", nil, user).AssertStatus(t, http.StatusBadRequest)
	serve(t, h, http.MethodGet, "/?startDate=2026-03-20&endDate=2026-03-18", nil, user).AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateStatusDelete(t *testing.T) {
	h := newRouter(t)
	user := testutil.NewTestUser()
	stranger := testutil.NewTestUser()
	todo := create(t, h, user, map[string]any{"todoName": "Pay rent", "label": "Home"})
	path := "/" + todo.ID.Hex()

	rec := serve(t, h, http.MethodPatch, path, map[string]any{"todoName": "Pay rent now", "dueDate": "2026-03-20"}, user)
	rec.AssertStatus(t, http.StatusOK)
	var got models.Todo
	rec.Data(t, &got)
	if got.Name != "Pay rent now" || got.DueDate.Day() != 20 {
		t.Errorf("updated todo = %+v", got)
	}

	rec = serve(t, h, http.MethodPatch, "/statusupdate/"+todo.ID.Hex(), map[string]any{"done": true}, user)
	rec.AssertStatus(t, http.StatusOK)
	rec.Data(t, &got)
	if !got.Done {
		t.Error("status update should mark the todo done")
	}
	serve(t, h, http.MethodPatch, "/statusupdate/"+todo.ID.Hex(), map[string]any{}, user).
		AssertStatus(t, http.StatusBadRequest)

	serve(t, h, http.MethodPatch, path, map[string]any{"todoName": "mine"}, stranger).AssertStatus(t, http.StatusForbidden)
	serve(t, h, http.MethodDelete, path, nil, stranger).AssertStatus(t, http.StatusForbidden)

	serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusOK)
	serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusNotFound)
}
