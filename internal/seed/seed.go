// Package seed reconciles the exercise catalog and template stores with the
// bundled content packages. It runs at every start and is idempotent: writes
// happen only when a package's version is newer than the stored one.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

//go:embed data/*.json
var contentFS embed.FS

var knownMuscles = map[string]bool{
	"chest": true, "back": true, "lats": true, "traps": true,
	"shoulders": true, "biceps": true, "triceps": true, "forearms": true,
	"quads": true, "hamstrings": true, "glutes": true, "calves": true,
	"core": true, "lower_back": true,
}

var knownEquipment = map[string]bool{
	"barbell": true, "dumbbell": true, "kettlebell": true, "machine": true,
	"cable": true, "bodyweight": true, "band": true, "bench": true,
	"pullup_bar": true,
}

var knownDifficulties = map[string]bool{
	"beginner": true, "intermediate": true, "advanced": true,
}

var knownCategories = map[string]bool{
	"strength": true, "hypertrophy": true, "cardio": true, "mobility": true,
	"core": true,
}

// Seeder applies bundled content to the stores.
type Seeder struct {
	db  *storage.DB
	log *slog.Logger

	// Raw package documents; default to the embedded files. Tests override.
	exercisesDoc []byte
	templatesDoc []byte
}

// New creates a Seeder over the embedded content packages.
func New(db *storage.DB, log *slog.Logger) *Seeder {
	ex, err := contentFS.ReadFile("data/exercises.json")
	if err != nil {
		panic(fmt.Sprintf("embedded exercise package missing: %v", err))
	}
	tp, err := contentFS.ReadFile("data/templates.json")
	if err != nil {
		panic(fmt.Sprintf("embedded template package missing: %v", err))
	}
	return &Seeder{db: db, log: log, exercisesDoc: ex, templatesDoc: tp}
}

// NewFromDocuments creates a Seeder over caller-supplied package documents.
func NewFromDocuments(db *storage.DB, log *slog.Logger, exercisesDoc, templatesDoc []byte) *Seeder {
	return &Seeder{db: db, log: log, exercisesDoc: exercisesDoc, templatesDoc: templatesDoc}
}

// Seed reconciles both stores with the bundled packages, skipping any
// package whose version is not newer than the stored one. A parse failure in
// either package aborts the whole pass before any write, so the version
// markers stay put and the next launch retries.
func (s *Seeder) Seed(ctx context.Context) error {
	return s.run(ctx, false)
}

// Force reapplies both packages regardless of stored versions.
func (s *Seeder) Force(ctx context.Context) error {
	return s.run(ctx, true)
}

func (s *Seeder) run(ctx context.Context, force bool) error {
	// Parse everything up front: no partial writes on a bad package.
	exPkg, exSeeds, err := s.parseExercises()
	if err != nil {
		return fmt.Errorf("parsing exercise package: %w", err)
	}
	tpPkg, tpSeeds, err := s.parseTemplates()
	if err != nil {
		return fmt.Errorf("parsing template package: %w", err)
	}

	if apply, err := s.shouldApply(ctx, storage.ContentExercises, exPkg.Version, force); err != nil {
		return err
	} else if apply {
		if err := s.db.ReplaceDefaultExercises(ctx, exPkg.Version, exSeeds); err != nil {
			return fmt.Errorf("seeding exercises: %w", err)
		}
		s.log.Info("seeded exercise catalog", "version", exPkg.Version, "count", len(exSeeds))
	}

	if apply, err := s.shouldApply(ctx, storage.ContentTemplates, tpPkg.Version, force); err != nil {
		return err
	} else if apply {
		if err := s.db.InsertMissingTemplates(ctx, tpPkg.Version, tpSeeds); err != nil {
			return fmt.Errorf("seeding templates: %w", err)
		}
		s.log.Info("seeded default templates", "version", tpPkg.Version, "count", len(tpSeeds))
	}

	return nil
}

func (s *Seeder) shouldApply(ctx context.Context, kind storage.ContentKind, bundled int, force bool) (bool, error) {
	if force {
		return true, nil
	}
	stored, err := s.db.ContentVersion(ctx, kind)
	if err != nil {
		return false, err
	}
	return bundled > stored, nil
}

func (s *Seeder) parseExercises() (*models.ExercisePackage, []storage.ExerciseSeed, error) {
	var pkg models.ExercisePackage
	if err := json.Unmarshal(s.exercisesDoc, &pkg); err != nil {
		return nil, nil, err
	}
	if pkg.Version <= 0 {
		return nil, nil, fmt.Errorf("exercise package has no version")
	}

	seeds := make([]storage.ExerciseSeed, 0, len(pkg.Exercises))
	for _, rec := range pkg.Exercises {
		if rec.ID == "" || rec.Name == "" {
			return nil, nil, fmt.Errorf("exercise record missing id or name")
		}
		difficulty := s.normalizeEnum(rec.ID, "difficulty", rec.Difficulty, knownDifficulties)
		category := s.normalizeEnum(rec.ID, "category", rec.Category, knownCategories)

		primary, err := s.encodeTags(rec.ID, "primary_muscles", rec.PrimaryMuscles, knownMuscles)
		if err != nil {
			return nil, nil, err
		}
		secondary, err := s.encodeTags(rec.ID, "secondary_muscles", rec.SecondaryMuscles, knownMuscles)
		if err != nil {
			return nil, nil, err
		}
		equipment, err := s.encodeTags(rec.ID, "equipment", rec.Equipment, knownEquipment)
		if err != nil {
			return nil, nil, err
		}

		seeds = append(seeds, storage.ExerciseSeed{
			ID: rec.ID, Name: rec.Name,
			PrimaryMuscles: primary, SecondaryMuscles: secondary, Equipment: equipment,
			Difficulty: difficulty, Category: category,
		})
	}
	return &pkg, seeds, nil
}

func (s *Seeder) parseTemplates() (*models.TemplatePackage, []storage.TemplateSeed, error) {
	var pkg models.TemplatePackage
	if err := json.Unmarshal(s.templatesDoc, &pkg); err != nil {
		return nil, nil, err
	}
	if pkg.Version <= 0 {
		return nil, nil, fmt.Errorf("template package has no version")
	}

	seeds := make([]storage.TemplateSeed, 0, len(pkg.Templates))
	for _, rec := range pkg.Templates {
		if rec.ID == "" || rec.Title == "" {
			return nil, nil, fmt.Errorf("template record missing id or title")
		}
		seed := storage.TemplateSeed{ID: rec.ID, Title: rec.Title}
		for i, te := range rec.Exercises {
			if te.ExerciseID == "" {
				return nil, nil, fmt.Errorf("template %s exercise %d missing exercise_id", rec.ID, i)
			}
			if te.PlannedSets <= 0 || te.PlannedReps <= 0 {
				return nil, nil, fmt.Errorf("template %s exercise %s has non-positive sets/reps", rec.ID, te.ExerciseID)
			}
			seed.Exercises = append(seed.Exercises, storage.TemplateExerciseSeed{
				ID:          fmt.Sprintf("%s-%d", rec.ID, i),
				ExerciseID:  te.ExerciseID,
				PlannedSets: te.PlannedSets,
				PlannedReps: te.PlannedReps,
				RestSeconds: te.RestSeconds,
				Notes:       te.Notes,
			})
		}
		seeds = append(seeds, seed)
	}
	return &pkg, seeds, nil
}

// normalizeEnum returns the value if recognized, otherwise logs a warning and
// returns "" so the record still loads.
func (s *Seeder) normalizeEnum(recordID, field, value string, known map[string]bool) string {
	if value == "" || known[value] {
		return value
	}
	s.log.Warn("skipping unrecognized content value",
		"record", recordID, "field", field, "value", value)
	return ""
}

// encodeTags drops unrecognized tags with a warning and JSON-encodes the
// remainder.
func (s *Seeder) encodeTags(recordID, field string, tags []string, known map[string]bool) (string, error) {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if !known[t] {
			s.log.Warn("skipping unrecognized content value",
				"record", recordID, "field", field, "value", t)
			continue
		}
		kept = append(kept, t)
	}
	b, err := json.Marshal(kept)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", field, err)
	}
	return string(b), nil
}
