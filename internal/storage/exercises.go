package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

const exerciseColumns = `id, name, primary_muscles, secondary_muscles, equipment, difficulty, category, is_custom, is_hidden`

// ListExercises returns the full catalog ordered alphabetically by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// SearchExercises returns exercises whose name contains the query,
// case-insensitively, ordered alphabetically.
func (db *DB) SearchExercises(ctx context.Context, query string) ([]models.Exercise, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE LOWER(name) LIKE '%' || LOWER($1) || '%'
		 ORDER BY name ASC`, query)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// GetExercise returns the exercise with the given id, or nil if absent.
func (db *DB) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)

	e, err := scanExercise(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise: %w", err)
	}
	return e, nil
}

// CreateExercise inserts a new exercise.
func (db *DB) CreateExercise(ctx context.Context, e models.Exercise) error {
	primary, secondary, equipment, err := encodeTags(e)
	if err != nil {
		return err
	}
	_, err = db.sql.ExecContext(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.Name, primary, secondary, equipment,
		e.Difficulty, e.Category, e.IsCustom, e.IsHidden)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// UpdateExercise rewrites an existing custom exercise row. Default exercises
// are immutable; hide them instead. The custom flag of the stored row is
// never changed.
func (db *DB) UpdateExercise(ctx context.Context, e models.Exercise) error {
	existing, err := db.GetExercise(ctx, e.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if !existing.IsCustom {
		return ErrDefaultImmutable
	}
	e.IsCustom = true

	primary, secondary, equipment, err := encodeTags(e)
	if err != nil {
		return err
	}
	_, err = db.sql.ExecContext(ctx,
		`UPDATE exercises SET name = $2, primary_muscles = $3, secondary_muscles = $4,
		 equipment = $5, difficulty = $6, category = $7, is_custom = $8, is_hidden = $9
		 WHERE id = $1`,
		e.ID, e.Name, primary, secondary, equipment,
		e.Difficulty, e.Category, e.IsCustom, e.IsHidden)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	return nil
}

// DeleteExercise hard-deletes a custom exercise. Default exercises are
// immutable; hide them instead.
func (db *DB) DeleteExercise(ctx context.Context, id string) error {
	e, err := db.GetExercise(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}
	if !e.IsCustom {
		return ErrDefaultImmutable
	}
	if _, err := db.sql.ExecContext(ctx, `DELETE FROM exercises WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return nil
}

// HideExercise soft-removes an exercise from listings.
func (db *DB) HideExercise(ctx context.Context, id string) error {
	return db.setExerciseHidden(ctx, id, true)
}

// UnhideExercise restores a hidden exercise.
func (db *DB) UnhideExercise(ctx context.Context, id string) error {
	return db.setExerciseHidden(ctx, id, false)
}

// UnhideAllExercises clears the hidden flag on every exercise.
func (db *DB) UnhideAllExercises(ctx context.Context) error {
	if _, err := db.sql.ExecContext(ctx, `UPDATE exercises SET is_hidden = FALSE`); err != nil {
		return fmt.Errorf("unhiding exercises: %w", err)
	}
	return nil
}

func (db *DB) setExerciseHidden(ctx context.Context, id string, hidden bool) error {
	if _, err := db.sql.ExecContext(ctx,
		`UPDATE exercises SET is_hidden = $2 WHERE id = $1`, id, hidden); err != nil {
		return fmt.Errorf("setting exercise hidden flag: %w", err)
	}
	return nil
}

func encodeTags(e models.Exercise) (primary, secondary, equipment string, err error) {
	enc := func(tags []string) (string, error) {
		if tags == nil {
			tags = []string{}
		}
		b, err := json.Marshal(tags)
		if err != nil {
			return "", fmt.Errorf("encoding tags: %w", err)
		}
		return string(b), nil
	}
	if primary, err = enc(e.PrimaryMuscles); err != nil {
		return
	}
	if secondary, err = enc(e.SecondaryMuscles); err != nil {
		return
	}
	equipment, err = enc(e.Equipment)
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*models.Exercise, error) {
	var e models.Exercise
	var primary, secondary, equipment string
	if err := row.Scan(&e.ID, &e.Name, &primary, &secondary, &equipment,
		&e.Difficulty, &e.Category, &e.IsCustom, &e.IsHidden); err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw  string
		dest *[]string
	}{
		{primary, &e.PrimaryMuscles},
		{secondary, &e.SecondaryMuscles},
		{equipment, &e.Equipment},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	return &e, nil
}

func scanExercises(rows *sql.Rows) ([]models.Exercise, error) {
	var result []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}
