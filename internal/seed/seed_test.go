package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	liftlog "github.com/meltforce/liftlog"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(context.Background(), "sqlite",
		fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(liftlog.MigrationsFS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func exercisesDocV(version int, ids ...string) []byte {
	doc := fmt.Sprintf(`{"version": %d, "exercises": [`, version)
	for i, id := range ids {
		if i > 0 {
			doc += ","
		}
		doc += fmt.Sprintf(`{"id": %q, "name": "Exercise %s", "primary_muscles": ["chest"], "secondary_muscles": [], "equipment": ["barbell"], "difficulty": "beginner", "category": "strength"}`, id, id)
	}
	return []byte(doc + "]}")
}

func templatesDocV(version int, ids ...string) []byte {
	doc := fmt.Sprintf(`{"version": %d, "templates": [`, version)
	for i, id := range ids {
		if i > 0 {
			doc += ","
		}
		doc += fmt.Sprintf(`{"id": %q, "title": "Template %s", "exercises": [{"exercise_id": "e1", "planned_sets": 3, "planned_reps": 8}]}`, id, id)
	}
	return []byte(doc + "]}")
}

// TestSeedEmbedded makes sure the shipped packages parse and load.
func TestSeedEmbedded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := New(db, testLogger()).Seed(ctx); err != nil {
		t.Fatalf("seeding embedded content: %v", err)
	}
	exercises, err := db.ListExercises(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(exercises) == 0 {
		t.Error("embedded seed produced no exercises")
	}
	templates, err := db.ListTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) == 0 {
		t.Error("embedded seed produced no templates")
	}
	for _, tmpl := range templates {
		if !tmpl.IsDefault {
			t.Errorf("seeded template %s not flagged default", tmpl.ID)
		}
		for i, te := range tmpl.Exercises {
			if te.OrderIndex != i {
				t.Errorf("template %s exercise %d has order_index %d", tmpl.ID, i, te.OrderIndex)
			}
		}
	}
}

// TestSeedIdempotent verifies a second run at the same version writes
// nothing.
func TestSeedIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := NewFromDocuments(db, testLogger(), exercisesDocV(1, "e1", "e2"), templatesDocV(1, "t1"))
	if err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	// A user hide would be lost if the second run resynced.
	if err := db.HideExercise(ctx, "e1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}
	e, err := db.GetExercise(ctx, "e1")
	if err != nil || e == nil {
		t.Fatalf("lookup: %v %v", e, err)
	}
	if !e.IsHidden {
		t.Error("second seed run at same version rewrote rows")
	}
	if v, _ := db.ContentVersion(ctx, storage.ContentExercises); v != 1 {
		t.Errorf("exercise content version = %d, want 1", v)
	}
}

// TestSeedMonotonicity: a version bump fully replaces default exercises but
// leaves existing template ids (even customized ones) untouched.
func TestSeedMonotonicity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := NewFromDocuments(db, testLogger(), exercisesDocV(1, "e1", "e2"), templatesDocV(1, "t1"))
	if err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	// User customizes the seeded template and adds a custom exercise.
	if err := db.UpdateTemplate(ctx,
		models.WorkoutTemplate{ID: "t1", Title: "My Custom Title"},
		[]models.TemplateExercise{{ID: "mine", ExerciseID: "e2", PlannedSets: 5, PlannedReps: 5}}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateExercise(ctx, models.Exercise{ID: "custom1", Name: "My Lift", IsCustom: true}); err != nil {
		t.Fatal(err)
	}

	s2 := NewFromDocuments(db, testLogger(), exercisesDocV(2, "e2", "e3"), templatesDocV(2, "t1", "t2"))
	if err := s2.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	// Default e1 is gone, e3 arrived, custom survived.
	if e, _ := db.GetExercise(ctx, "e1"); e != nil {
		t.Error("stale default exercise e1 survived resync")
	}
	if e, _ := db.GetExercise(ctx, "e3"); e == nil {
		t.Error("new default exercise e3 missing")
	}
	if e, _ := db.GetExercise(ctx, "custom1"); e == nil {
		t.Error("custom exercise lost during resync")
	}

	// Customized template untouched, new id inserted.
	t1, err := db.GetTemplate(ctx, "t1")
	if err != nil || t1 == nil {
		t.Fatalf("t1 lookup: %v %v", t1, err)
	}
	if t1.Title != "My Custom Title" {
		t.Errorf("template t1 title = %q, user edit was overwritten", t1.Title)
	}
	if t2, _ := db.GetTemplate(ctx, "t2"); t2 == nil {
		t.Error("new template t2 missing")
	}

	if v, _ := db.ContentVersion(ctx, storage.ContentTemplates); v != 2 {
		t.Errorf("template content version = %d, want 2", v)
	}
}

// TestSeedParseFailureAborts: a bad package leaves both version markers
// untouched so the next launch retries.
func TestSeedParseFailureAborts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := NewFromDocuments(db, testLogger(), exercisesDocV(1, "e1"), []byte(`{"version": `))
	if err := s.Seed(ctx); err == nil {
		t.Fatal("expected parse error")
	}

	if v, _ := db.ContentVersion(ctx, storage.ContentExercises); v != 0 {
		t.Errorf("exercise version marker written despite aborted pass: %d", v)
	}
	exercises, _ := db.ListExercises(ctx)
	if len(exercises) != 0 {
		t.Errorf("partial writes escaped aborted pass: %d exercises", len(exercises))
	}
}

// TestSeedMissingVersionRejected treats a versionless package as a parse
// failure.
func TestSeedMissingVersionRejected(t *testing.T) {
	db := openTestDB(t)

	s := NewFromDocuments(db, testLogger(),
		[]byte(`{"exercises": []}`), templatesDocV(1, "t1"))
	if err := s.Seed(context.Background()); err == nil {
		t.Fatal("expected error for missing version")
	}
}

// TestSeedUnknownValuesSkipped: unrecognized enum-like values are dropped
// with a warning, not fatal.
func TestSeedUnknownValuesSkipped(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	doc := []byte(`{"version": 1, "exercises": [
		{"id": "e1", "name": "Weird Lift",
		 "primary_muscles": ["chest", "left_pinky"],
		 "secondary_muscles": [],
		 "equipment": ["barbell"],
		 "difficulty": "ultra",
		 "category": "strength"}
	]}`)
	s := NewFromDocuments(db, testLogger(), doc, templatesDocV(1, "t1"))
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("unknown values should not be fatal: %v", err)
	}

	e, err := db.GetExercise(ctx, "e1")
	if err != nil || e == nil {
		t.Fatalf("lookup: %v %v", e, err)
	}
	if len(e.PrimaryMuscles) != 1 || e.PrimaryMuscles[0] != "chest" {
		t.Errorf("primary muscles = %v, want unknown tag dropped", e.PrimaryMuscles)
	}
	if e.Difficulty != "" {
		t.Errorf("difficulty = %q, want unknown value cleared", e.Difficulty)
	}
}

// TestForceReseed bypasses the version check and restores replaced defaults.
func TestForceReseed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := NewFromDocuments(db, testLogger(), exercisesDocV(1, "e1"), templatesDocV(1, "t1"))
	if err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}
	if err := db.HideExercise(ctx, "e1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Force(ctx); err != nil {
		t.Fatal(err)
	}
	e, _ := db.GetExercise(ctx, "e1")
	if e == nil {
		t.Fatal("e1 missing after force reseed")
	}
	if e.IsHidden {
		t.Error("force reseed did not rewrite default rows")
	}
}
