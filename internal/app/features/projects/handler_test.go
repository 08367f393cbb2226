package projects

import (
	"net/http"
	"testing"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func serve(t *testing.T, h http.Handler, method, target string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func TestProjects(t *testing.T) {
	h := Routes(NewHandler(testutil.SetupTestDB(t), zap.NewNop(), false))
	user := testutil.NewTestUser()
	stranger := testutil.NewTestUser()

	rec := serve(t, h, http.MethodPost, "/addProject", map[string]any{
		"projectName":        "Garden",
		"projectDescription": "spring <i>planting</i>",
		"projectTasks": []map[string]any{
			{"title": "Buy seeds", "column": "Backlog"},
			{"title": "Dig beds"},
		},
	}, user)
	rec.AssertStatus(t, http.StatusCreated)
	var p models.Project
	rec.Data(t, &p)
	if p.Description != "spring planting" || len(p.Tasks) != 2 {
		t.Fatalf("project = %+v", p)
	}
	if p.Tasks[0].Column != models.ColumnBacklog || p.Tasks[1].Column != models.ColumnTodo {
		t.Errorf("task columns = %q, %q", p.Tasks[0].Column, p.Tasks[1].Column)
	}
	if _, err := uuid.Parse(p.Tasks[0].ID); err != nil {
		t.Errorf("task id %q is not a uuid", p.Tasks[0].ID)
	}
	path := "/" + p.ID.Hex()

	t.Run("update details", func(t *testing.T) {
		rec := serve(t, h, http.MethodPost, "/addProject", map[string]any{"projectId": p.ID.Hex(), "projectName": "Veg garden"}, user)
		rec.AssertStatus(t, http.StatusOK)
		var got models.Project
		rec.Data(t, &got)
		if got.Name != "Veg garden" || len(got.Tasks) != 2 {
			t.Errorf("updated project = %+v", got)
		}
		serve(t, h, http.MethodPost, "/addProject", map[string]any{"projectId": p.ID.Hex(), "projectName": "Mine"}, stranger).
			AssertStatus(t, http.StatusForbidden)
	})

	t.Run("list", func(t *testing.T) {
		rec := serve(t, h, http.MethodGet, "/getProjects", nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var list []models.ProjectSummary
		rec.Data(t, &list)
		if len(list) != 1 || list[0].ID != p.ID {
			t.Errorf("projects = %+v", list)
		}
	})

	t.Run("replace tasks", func(t *testing.T) {
		keep := p.Tasks[0].ID
		rec := serve(t, h, http.MethodPut, path, map[string]any{"projectTasks": []map[string]any{
			{"_id": keep, "title": "Buy seeds", "column": "done"},
			{"title": "Water", "column": "doing"},
		}}, user)
		rec.AssertStatus(t, http.StatusOK)
		var got models.Project
		rec.Data(t, &got)
		if len(got.Tasks) != 2 || got.Tasks[0].ID != keep || got.Tasks[1].ID == "" {
			t.Errorf("tasks = %+v", got.Tasks)
		}

		serve(t, h, http.MethodPut, path, map[string]any{"projectTasks": []map[string]any{{"title": "x", "column": "someday"}}}, user).
			AssertStatus(t, http.StatusBadRequest)
		serve(t, h, http.MethodPut, path, map[string]any{}, user).AssertStatus(t, http.StatusBadRequest)
		serve(t, h, http.MethodPut, path, map[string]any{"projectTasks": []any{}}, stranger).AssertStatus(t, http.StatusForbidden)
	})

	t.Run("get and delete", func(t *testing.T) {
		serve(t, h, http.MethodGet, path, nil, stranger).AssertStatus(t, http.StatusForbidden)
		serve(t, h, http.MethodGet, path, nil, user).AssertStatus(t, http.StatusOK)
		serve(t, h, http.MethodDelete, path, nil, stranger).AssertStatus(t, http.StatusForbidden)
		serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusOK)
		serve(t, h, http.MethodGet, path, nil, user).AssertStatus(t, http.StatusNotFound)
	})
}

func TestSave_Invalid(t *testing.T) {
	h := Routes(NewHandler(testutil.SetupTestDB(t), zap.NewNop(), false))
	user := testutil.NewTestUser()

	serve(t, h, http.MethodPost, "/addProject", map[string]any{"projectName": ""}, user).AssertStatus(t, http.StatusBadRequest)
	serve(t, h, http.MethodPost, "/addProject", map[string]any{"projectName": "x", "projectId": "nope"}, user).AssertStatus(t, http.StatusBadRequest)
}
