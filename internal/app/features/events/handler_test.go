package events

import (
	"net/http"
	"testing"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"go.uber.org/zap"
)

func serve(t *testing.T, h http.Handler, method, target string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func create(t *testing.T, h http.Handler, user testutil.TestUser, body map[string]any) models.Event {
	t.Helper()
	rec := serve(t, h, http.MethodPost, "/", body, user)
	rec.AssertStatus(t, http.StatusCreated)
	var ev models.Event
	rec.Data(t, &ev)
	return ev
}

func TestCreate(t *testing.T) {
	h := Routes(NewHandler(testutil.SetupTestDB(t), zap.NewNop(), false))
	user := testutil.NewTestUser()

	ev := create(t, h, user, map[string]any{"eventName": "Dentist", "startDate": "2026-03-18T10:00:00Z"})
	if !ev.EndDate.Equal(ev.StartDate) {
		t.Errorf("endDate = %v, want it to default to startDate %v", ev.EndDate, ev.StartDate)
	}

	serve(t, h, http.MethodPost, "/", map[string]any{"eventName": "Trip", "startDate": "2026-03-20", "endDate": "2026-03-18"}, user).
		AssertStatus(t, http.StatusBadRequest)
	serve(t, h, http.MethodPost, "/", map[string]any{"eventName": "No start"}, user).
		AssertStatus(t, http.StatusBadRequest)
}

func TestList(t *testing.T) {
	h := Routes(NewHandler(testutil.SetupTestDB(t), zap.NewNop(), false))
	user := testutil.NewTestUser()

	create(t, h, user, map[string]any{"eventName": "Trip", "startDate": "2026-03-10", "endDate": "2026-03-20"})
	create(t, h, user, map[string]any{"eventName": "Dentist", "startDate": "2026-04-02T10:00:00Z"})
	create(t, h, testutil.NewTestUser(), map[string]any{"eventName": "Foreign", "startDate": "2026-03-15"})

	cases := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?start=2026-03-15&end=2026-03-16", 1},
		{"?start=2026-04-01&end=2026-05-01", 1},
		{"?start=2026-05-01&end=2026-06-01", 0},
	}
	for _, tc := range cases {
		rec := serve(t, h, http.MethodGet, "/"+tc.query, nil, user)
		rec.AssertStatus(t, http.StatusOK)
		var got []models.Event
		rec.Data(t, &got)
		if len(got) != tc.want {
			t.Errorf("GET %q returned %d events, want %d", tc.query, len(got), tc.want)
		}
	}

	serve(t, h, http.MethodGet, "/?start=bad&end=2026-01-01", nil, user).AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateDelete(t *testing.T) {
	h := Routes(NewHandler(testutil.SetupTestDB(t), zap.NewNop(), false))
	user := testutil.NewTestUser()
	stranger := testutil.NewTestUser()
	ev := create(t, h, user, map[string]any{"eventName": "Dentist", "startDate": "2026-03-18"})
	path := "/" + ev.ID.Hex()

	rec := serve(t, h, http.MethodPut, path, map[string]any{"eventName": "Doctor", "startDate": "2026-03-19", "endDate": "2026-03-19T12:00:00Z"}, user)
	rec.AssertStatus(t, http.StatusOK)
	var got models.Event
	rec.Data(t, &got)
	if got.Name != "Doctor" || got.StartDate.Day() != 19 {
		t.Errorf("updated event = %+v", got)
	}

	serve(t, h, http.MethodPut, path, map[string]any{"eventName": "Mine", "startDate": "2026-03-19"}, stranger).
		AssertStatus(t, http.StatusForbidden)
	serve(t, h, http.MethodDelete, path, nil, stranger).AssertStatus(t, http.StatusForbidden)
	serve(t, h, http.MethodDelete, path, nil, user).AssertStatus(t, http.StatusOK)
	serve(t, h, http.MethodPut, path, map[string]any{"eventName": "Gone", "startDate": "2026-03-19"}, user).
		AssertStatus(t, http.StatusNotFound)
}
