package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ContentKind names one bundled content package family.
type ContentKind string

const (
	ContentExercises ContentKind = "exercises"
	ContentTemplates ContentKind = "templates"
)

// ExerciseSeed is a default exercise row ready for insertion; the tag slices
// are already JSON-encoded.
type ExerciseSeed struct {
	ID               string
	Name             string
	PrimaryMuscles   string
	SecondaryMuscles string
	Equipment        string
	Difficulty       string
	Category         string
}

// TemplateSeed is one default template with its planned exercises in order.
type TemplateSeed struct {
	ID        string
	Title     string
	Exercises []TemplateExerciseSeed
}

// TemplateExerciseSeed is one planned exercise inside a TemplateSeed.
type TemplateExerciseSeed struct {
	ID          string
	ExerciseID  string
	PlannedSets int
	PlannedReps int
	RestSeconds *int
	Notes       *string
}

// ContentVersion returns the stored version for a content kind, or 0 if no
// seeding has happened yet.
func (db *DB) ContentVersion(ctx context.Context, kind ContentKind) (int, error) {
	var v int
	err := db.sql.QueryRowContext(ctx,
		`SELECT version FROM content_versions WHERE kind = $1`, string(kind)).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying content version: %w", err)
	}
	return v, nil
}

func setContentVersion(ctx context.Context, tx *sql.Tx, kind ContentKind, version int) error {
	// One row per kind, version only ever moves forward.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM content_versions WHERE kind = $1`, string(kind)); err != nil {
		return fmt.Errorf("clearing content version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO content_versions (kind, version, loaded_at) VALUES ($1,$2,$3)`,
		string(kind), version, time.Now().UTC()); err != nil {
		return fmt.Errorf("writing content version: %w", err)
	}
	return nil
}

// ReplaceDefaultExercises deletes all default-flagged exercises, inserts the
// given replacement set, and records the new content version, atomically.
// Custom exercises are untouched.
func (db *DB) ReplaceDefaultExercises(ctx context.Context, version int, exercises []ExerciseSeed) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM exercises WHERE is_custom = FALSE`); err != nil {
			return fmt.Errorf("clearing default exercises: %w", err)
		}
		for _, e := range exercises {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exercises (`+exerciseColumns+`)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,FALSE,FALSE)`,
				e.ID, e.Name, e.PrimaryMuscles, e.SecondaryMuscles,
				e.Equipment, e.Difficulty, e.Category); err != nil {
				return fmt.Errorf("inserting default exercise %s: %w", e.ID, err)
			}
		}
		return setContentVersion(ctx, tx, ContentExercises, version)
	})
}

// InsertMissingTemplates inserts only templates whose id is not already
// present, then records the new content version, atomically. Existing ids
// (including user-customized ones) are never touched.
func (db *DB) InsertMissingTemplates(ctx context.Context, version int, templates []TemplateSeed) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range templates {
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM workout_templates WHERE id = $1`, t.ID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("checking template %s: %w", t.ID, err)
			}
			if exists > 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_templates (`+templateColumns+`) VALUES ($1,$2,TRUE,FALSE)`,
				t.ID, t.Title); err != nil {
				return fmt.Errorf("inserting default template %s: %w", t.ID, err)
			}
			for i, te := range t.Exercises {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO template_exercises (`+templateExerciseColumns+`)
					 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
					te.ID, t.ID, te.ExerciseID, te.PlannedSets, te.PlannedReps,
					i, te.RestSeconds, te.Notes); err != nil {
					return fmt.Errorf("inserting default template exercise: %w", err)
				}
			}
		}
		return setContentVersion(ctx, tx, ContentTemplates, version)
	})
}
