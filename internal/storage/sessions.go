package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

const sessionColumns = `id, date, duration_seconds, title`
const performedExerciseColumns = `id, session_id, exercise_id, order_index`
const workoutSetColumns = `id, performed_exercise_id, weight_kg, reps, order_index`

// CreateSession writes a session with its full two-level child graph in one
// transaction. Order indexes are assigned densely from slice positions.
func (db *DB) CreateSession(ctx context.Context, s models.WorkoutSession, exercises []models.PerformedExerciseDetail) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workout_sessions (`+sessionColumns+`) VALUES ($1,$2,$3,$4)`,
			s.ID, s.Date, s.DurationSeconds, s.Title); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		return insertPerformedExercises(ctx, tx, s.ID, exercises)
	})
}

// UpdateSession rewrites session metadata and replaces both child levels
// (delete-then-reinsert) in one transaction. Historical sessions are edited
// by replacement, never mutated in place.
func (db *DB) UpdateSession(ctx context.Context, s models.WorkoutSession, exercises []models.PerformedExerciseDetail) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE workout_sessions SET date = $2, duration_seconds = $3, title = $4 WHERE id = $1`,
			s.ID, s.Date, s.DurationSeconds, s.Title)
		if err != nil {
			return fmt.Errorf("updating session: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("updating session %s: no such session", s.ID)
		}
		if err := deleteSessionChildren(ctx, tx, s.ID); err != nil {
			return err
		}
		return insertPerformedExercises(ctx, tx, s.ID, exercises)
	})
}

// GetSession returns a session with its full child graph, or nil if absent.
func (db *DB) GetSession(ctx context.Context, id string) (*models.SessionDetail, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, id)

	var s models.WorkoutSession
	err := row.Scan(&s.ID, &s.Date, &s.DurationSeconds, &s.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	exercises, err := db.performedExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{WorkoutSession: s, Exercises: exercises}, nil
}

// ListSessionsByDateRange returns sessions whose date falls in [start, end),
// both epoch milliseconds, ordered by date descending. Children are included.
func (db *DB) ListSessionsByDateRange(ctx context.Context, start, end int64) ([]models.SessionDetail, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE date >= $1 AND date < $2
		 ORDER BY date DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	for rows.Next() {
		var s models.WorkoutSession
		if err := rows.Scan(&s.ID, &s.Date, &s.DurationSeconds, &s.Title); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]models.SessionDetail, 0, len(sessions))
	for _, s := range sessions {
		exercises, err := db.performedExercises(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.SessionDetail{WorkoutSession: s, Exercises: exercises})
	}
	return result, nil
}

// DeleteSession removes a session and cascades through both child levels.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteSessionChildren(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM workout_sessions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		return nil
	})
}

func deleteSessionChildren(ctx context.Context, tx *sql.Tx, sessionID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM workout_sets WHERE performed_exercise_id IN
		 (SELECT id FROM performed_exercises WHERE session_id = $1)`, sessionID); err != nil {
		return fmt.Errorf("deleting workout sets: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM performed_exercises WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("deleting performed exercises: %w", err)
	}
	return nil
}

func insertPerformedExercises(ctx context.Context, tx *sql.Tx, sessionID string, exercises []models.PerformedExerciseDetail) error {
	for i, pe := range exercises {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO performed_exercises (`+performedExerciseColumns+`) VALUES ($1,$2,$3,$4)`,
			pe.ID, sessionID, pe.ExerciseID, i); err != nil {
			return fmt.Errorf("inserting performed exercise: %w", err)
		}
		for j, set := range pe.Sets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_sets (`+workoutSetColumns+`) VALUES ($1,$2,$3,$4,$5)`,
				set.ID, pe.ID, set.WeightKg, set.Reps, j); err != nil {
				return fmt.Errorf("inserting workout set: %w", err)
			}
		}
	}
	return nil
}

func (db *DB) performedExercises(ctx context.Context, sessionID string) ([]models.PerformedExerciseDetail, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+performedExerciseColumns+` FROM performed_exercises
		 WHERE session_id = $1 ORDER BY order_index ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying performed exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.PerformedExercise
	for rows.Next() {
		var pe models.PerformedExercise
		if err := rows.Scan(&pe.ID, &pe.SessionID, &pe.ExerciseID, &pe.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning performed exercise: %w", err)
		}
		exercises = append(exercises, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]models.PerformedExerciseDetail, 0, len(exercises))
	for _, pe := range exercises {
		sets, err := db.workoutSets(ctx, pe.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.PerformedExerciseDetail{PerformedExercise: pe, Sets: sets})
	}
	return result, nil
}

func (db *DB) workoutSets(ctx context.Context, performedExerciseID string) ([]models.WorkoutSet, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+workoutSetColumns+` FROM workout_sets
		 WHERE performed_exercise_id = $1 ORDER BY order_index ASC`, performedExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSet
	for rows.Next() {
		var s models.WorkoutSet
		if err := rows.Scan(&s.ID, &s.PerformedExerciseID, &s.WeightKg, &s.Reps, &s.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
