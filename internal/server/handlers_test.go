package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	liftlog "github.com/meltforce/liftlog"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(context.Background(), "sqlite",
		fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(liftlog.MigrationsFS); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	log := slog.New(slog.DiscardHandler)
	return New(db, testAPIKey, models.UnitKilograms, log), db
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withKey {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, w.Body.String())
	}
	return v
}

// TestAPIKeyRequired: mutating routes reject missing and wrong keys; reads
// stay open.
func TestAPIKeyRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	if w := doJSON(t, srv, http.MethodPost, "/api/v1/exercises", map[string]string{"name": "X"}, false); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exercises", bytes.NewReader([]byte("{}")))
	req.Header.Set("X-API-Key", "wrong")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong key: status %d, want 403", w.Code)
	}

	if w := doJSON(t, srv, http.MethodGet, "/api/v1/exercises", nil, false); w.Code != http.StatusOK {
		t.Errorf("open read: status %d, want 200", w.Code)
	}
}

// TestExerciseCRUD exercises create, get, search, and the default-immutable
// delete rule end to end over HTTP.
func TestExerciseCRUD(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()

	w := doJSON(t, srv, http.MethodPost, "/api/v1/exercises",
		models.Exercise{Name: "Cable Fly", PrimaryMuscles: []string{"chest"}}, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", w.Code, w.Body.String())
	}
	created := decode[models.Exercise](t, w)
	if created.ID == "" || !created.IsCustom {
		t.Errorf("created = %+v, want minted id and custom flag", created)
	}

	if w := doJSON(t, srv, http.MethodGet, "/api/v1/exercises/"+created.ID, nil, false); w.Code != http.StatusOK {
		t.Errorf("get: status %d", w.Code)
	}
	if w := doJSON(t, srv, http.MethodGet, "/api/v1/exercises/missing", nil, false); w.Code != http.StatusNotFound {
		t.Errorf("get missing: status %d, want 404", w.Code)
	}

	found := decode[[]models.Exercise](t, doJSON(t, srv, http.MethodGet, "/api/v1/exercises?q=fly", nil, false))
	if len(found) != 1 {
		t.Errorf("search found %d, want 1", len(found))
	}

	// Updating or deleting a default goes through hide instead.
	if err := db.CreateExercise(ctx, models.Exercise{ID: "def", Name: "Default"}); err != nil {
		t.Fatal(err)
	}
	if w := doJSON(t, srv, http.MethodPut, "/api/v1/exercises/def",
		models.Exercise{Name: "Renamed", IsCustom: true}, true); w.Code != http.StatusConflict {
		t.Errorf("update default: status %d, want 409", w.Code)
	}
	if w := doJSON(t, srv, http.MethodDelete, "/api/v1/exercises/def", nil, true); w.Code != http.StatusConflict {
		t.Errorf("delete default: status %d, want 409", w.Code)
	}

	// The custom flag is server-controlled: a body clearing it must not turn
	// a custom row into an immutable default.
	if w := doJSON(t, srv, http.MethodPut, "/api/v1/exercises/"+created.ID,
		models.Exercise{Name: "Cable Fly v2", IsCustom: false}, true); w.Code != http.StatusOK {
		t.Errorf("update custom: status %d", w.Code)
	}
	updated := decode[models.Exercise](t, doJSON(t, srv, http.MethodGet, "/api/v1/exercises/"+created.ID, nil, false))
	if updated.Name != "Cable Fly v2" || !updated.IsCustom {
		t.Errorf("updated = %+v, want renamed and still custom", updated)
	}
	if w := doJSON(t, srv, http.MethodDelete, "/api/v1/exercises/"+created.ID, nil, true); w.Code != http.StatusNoContent {
		t.Errorf("delete custom: status %d, want 204", w.Code)
	}
}

// TestDefaultTemplateImmutableOverHTTP: PUT on a default template is
// rejected; hide works.
func TestDefaultTemplateImmutableOverHTTP(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()

	if err := db.CreateTemplate(ctx,
		models.WorkoutTemplate{ID: "d1", Title: "Bundled", IsDefault: true},
		[]models.TemplateExercise{{ID: "c1", ExerciseID: "e1", PlannedSets: 3, PlannedReps: 8}}); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, srv, http.MethodPut, "/api/v1/templates/d1",
		templateRequest{Title: "Hacked"}, true)
	if w.Code != http.StatusConflict {
		t.Errorf("update default: status %d, want 409", w.Code)
	}
	if w := doJSON(t, srv, http.MethodDelete, "/api/v1/templates/d1", nil, true); w.Code != http.StatusConflict {
		t.Errorf("delete default: status %d, want 409", w.Code)
	}
	if got, err := db.GetTemplate(context.Background(), "d1"); err != nil || got == nil {
		t.Errorf("default template gone after rejected delete: %v %v", got, err)
	}
	if w := doJSON(t, srv, http.MethodPost, "/api/v1/templates/d1/hide", nil, true); w.Code != http.StatusNoContent {
		t.Errorf("hide default: status %d, want 204", w.Code)
	}
}

func seedActiveFixture(t *testing.T, db *storage.DB) {
	t.Helper()
	ctx := context.Background()
	if err := db.CreateExercise(ctx, models.Exercise{ID: "e1", Name: "Bench Press"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateTemplate(ctx,
		models.WorkoutTemplate{ID: "t1", Title: "Push Day"},
		[]models.TemplateExercise{{ID: "te1", ExerciseID: "e1", PlannedSets: 3, PlannedReps: 8}}); err != nil {
		t.Fatal(err)
	}
}

// TestActiveSessionFlow drives start → edit → save over HTTP and checks the
// session landed in history.
func TestActiveSessionFlow(t *testing.T) {
	srv, db := newTestServer(t)
	seedActiveFixture(t, db)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/active/start",
		startRequest{TemplateID: "t1"}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("start: status %d: %s", w.Code, w.Body.String())
	}
	snap := decode[session.UIState](t, w)
	if snap.State != session.StateRunning || len(snap.Exercises) != 1 || len(snap.Exercises[0].Sets) != 3 {
		t.Fatalf("start snapshot = %+v", snap)
	}

	// Second start without force conflicts.
	if w := doJSON(t, srv, http.MethodPost, "/api/v1/active/start", startRequest{TemplateID: "t1"}, true); w.Code != http.StatusConflict {
		t.Errorf("second start: status %d, want 409", w.Code)
	}

	ex := snap.Exercises[0]
	doJSON(t, srv, http.MethodPost, "/api/v1/active/sets/reps",
		setEditRequest{ExerciseID: ex.ID, SetID: ex.Sets[0].ID, Value: "8"}, true)
	edited := decode[session.UIState](t, doJSON(t, srv, http.MethodPost, "/api/v1/active/sets/weight",
		setEditRequest{ExerciseID: ex.ID, SetID: ex.Sets[0].ID, Value: "60.5x"}, true))
	if edited.Exercises[0].Sets[0].Weight != "60.5" {
		t.Errorf("sanitized weight = %q, want 60.5", edited.Exercises[0].Sets[0].Weight)
	}

	saved := decode[session.UIState](t, doJSON(t, srv, http.MethodPost, "/api/v1/active/save", nil, true))
	if saved.State != session.StateSaved {
		t.Fatalf("save state = %v: %+v", saved.State, saved)
	}

	sessions := decode[[]models.SessionDetail](t, doJSON(t, srv, http.MethodGet, "/api/v1/sessions", nil, false))
	if len(sessions) != 1 {
		t.Fatalf("history has %d sessions, want 1", len(sessions))
	}
	if len(sessions[0].Exercises) != 1 || len(sessions[0].Exercises[0].Sets) != 1 {
		t.Fatalf("history graph = %+v", sessions[0].Exercises)
	}
	if got := sessions[0].Exercises[0].Sets[0]; got.Reps != 8 || got.WeightKg != 60.5 {
		t.Errorf("persisted set = %+v, want 8 reps at 60.5kg", got)
	}

	// Force-start now succeeds; engine was finished.
	if w := doJSON(t, srv, http.MethodPost, "/api/v1/active/start", startRequest{TemplateID: "t1", Force: true}, true); w.Code != http.StatusOK {
		t.Errorf("force start: status %d", w.Code)
	}
}

// TestActiveEmptySaveDiscards: saving with nothing logged yields Discarded
// and an empty history.
func TestActiveEmptySaveDiscards(t *testing.T) {
	srv, db := newTestServer(t)
	seedActiveFixture(t, db)

	if w := doJSON(t, srv, http.MethodPost, "/api/v1/active/start", startRequest{TemplateID: "t1"}, true); w.Code != http.StatusOK {
		t.Fatalf("start: %d", w.Code)
	}
	saved := decode[session.UIState](t, doJSON(t, srv, http.MethodPost, "/api/v1/active/save", nil, true))
	if saved.State != session.StateDiscarded {
		t.Fatalf("state = %v, want discarded", saved.State)
	}
	if saved.Notice == "" {
		t.Error("expected nothing-logged notice")
	}

	sessions := decode[[]models.SessionDetail](t, doJSON(t, srv, http.MethodGet, "/api/v1/sessions", nil, false))
	if len(sessions) != 0 {
		t.Errorf("history has %d sessions after empty save", len(sessions))
	}
}

// TestActiveStateWhenIdle returns an idle snapshot, not an error.
func TestActiveStateWhenIdle(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/api/v1/active", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	snap := decode[session.UIState](t, w)
	if snap.State != session.StateIdle {
		t.Errorf("state = %v, want idle", snap.State)
	}
}
