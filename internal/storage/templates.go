package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

const templateColumns = `id, title, is_default, is_hidden`
const templateExerciseColumns = `id, template_id, exercise_id, planned_sets, planned_reps, order_index, rest_seconds, notes`

// ListTemplates returns every template with its exercises in order.
func (db *DB) ListTemplates(ctx context.Context) ([]models.TemplateDetail, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM workout_templates ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	templates, err := scanTemplates(rows)
	if err != nil {
		return nil, err
	}
	return db.attachTemplateExercises(ctx, templates)
}

// SearchTemplates returns templates whose title contains the query,
// case-insensitively.
func (db *DB) SearchTemplates(ctx context.Context, query string) ([]models.TemplateDetail, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM workout_templates
		 WHERE LOWER(title) LIKE '%' || LOWER($1) || '%'
		 ORDER BY title ASC`, query)
	if err != nil {
		return nil, fmt.Errorf("searching templates: %w", err)
	}
	defer rows.Close()

	templates, err := scanTemplates(rows)
	if err != nil {
		return nil, err
	}
	return db.attachTemplateExercises(ctx, templates)
}

// GetTemplate returns a template with its ordered exercises, or nil if
// absent.
func (db *DB) GetTemplate(ctx context.Context, id string) (*models.TemplateDetail, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM workout_templates WHERE id = $1`, id)

	var t models.WorkoutTemplate
	err := row.Scan(&t.ID, &t.Title, &t.IsDefault, &t.IsHidden)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}

	exercises, err := db.templateExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TemplateDetail{WorkoutTemplate: t, Exercises: exercises}, nil
}

// CreateTemplate writes a template and all its exercises in one transaction.
// Exercise order indexes are assigned densely from slice position.
func (db *DB) CreateTemplate(ctx context.Context, t models.WorkoutTemplate, exercises []models.TemplateExercise) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workout_templates (`+templateColumns+`) VALUES ($1,$2,$3,$4)`,
			t.ID, t.Title, t.IsDefault, t.IsHidden); err != nil {
			return fmt.Errorf("inserting template: %w", err)
		}
		return insertTemplateExercises(ctx, tx, t.ID, exercises)
	})
}

// UpdateTemplate rewrites template metadata and replaces the whole child set
// (delete-then-reinsert) in one transaction.
func (db *DB) UpdateTemplate(ctx context.Context, t models.WorkoutTemplate, exercises []models.TemplateExercise) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE workout_templates SET title = $2, is_default = $3, is_hidden = $4 WHERE id = $1`,
			t.ID, t.Title, t.IsDefault, t.IsHidden)
		if err != nil {
			return fmt.Errorf("updating template: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("updating template %s: no such template", t.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM template_exercises WHERE template_id = $1`, t.ID); err != nil {
			return fmt.Errorf("clearing template exercises: %w", err)
		}
		return insertTemplateExercises(ctx, tx, t.ID, exercises)
	})
}

// DeleteTemplate removes a custom template; children cascade. Default
// templates are immutable except for hide/unhide.
func (db *DB) DeleteTemplate(ctx context.Context, id string) error {
	t, err := db.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	if t.IsDefault {
		return ErrDefaultImmutable
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		// Explicit child delete keeps cascade behavior identical on backends
		// where the pragma might be off.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM template_exercises WHERE template_id = $1`, id); err != nil {
			return fmt.Errorf("deleting template exercises: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM workout_templates WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting template: %w", err)
		}
		return nil
	})
}

// HideTemplate soft-removes a template from listings.
func (db *DB) HideTemplate(ctx context.Context, id string) error {
	return db.setTemplateHidden(ctx, id, true)
}

// UnhideTemplate restores a hidden template.
func (db *DB) UnhideTemplate(ctx context.Context, id string) error {
	return db.setTemplateHidden(ctx, id, false)
}

func (db *DB) setTemplateHidden(ctx context.Context, id string, hidden bool) error {
	if _, err := db.sql.ExecContext(ctx,
		`UPDATE workout_templates SET is_hidden = $2 WHERE id = $1`, id, hidden); err != nil {
		return fmt.Errorf("setting template hidden flag: %w", err)
	}
	return nil
}

func insertTemplateExercises(ctx context.Context, tx *sql.Tx, templateID string, exercises []models.TemplateExercise) error {
	for i, te := range exercises {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO template_exercises (`+templateExerciseColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			te.ID, templateID, te.ExerciseID, te.PlannedSets, te.PlannedReps,
			i, te.RestSeconds, te.Notes); err != nil {
			return fmt.Errorf("inserting template exercise: %w", err)
		}
	}
	return nil
}

func (db *DB) templateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+templateExerciseColumns+` FROM template_exercises
		 WHERE template_id = $1 ORDER BY order_index ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	var result []models.TemplateExercise
	for rows.Next() {
		var te models.TemplateExercise
		if err := rows.Scan(&te.ID, &te.TemplateID, &te.ExerciseID, &te.PlannedSets,
			&te.PlannedReps, &te.OrderIndex, &te.RestSeconds, &te.Notes); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		result = append(result, te)
	}
	return result, rows.Err()
}

func (db *DB) attachTemplateExercises(ctx context.Context, templates []models.WorkoutTemplate) ([]models.TemplateDetail, error) {
	result := make([]models.TemplateDetail, 0, len(templates))
	for _, t := range templates {
		exercises, err := db.templateExercises(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.TemplateDetail{WorkoutTemplate: t, Exercises: exercises})
	}
	return result, nil
}

func scanTemplates(rows *sql.Rows) ([]models.WorkoutTemplate, error) {
	var result []models.WorkoutTemplate
	for rows.Next() {
		var t models.WorkoutTemplate
		if err := rows.Scan(&t.ID, &t.Title, &t.IsDefault, &t.IsHidden); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
