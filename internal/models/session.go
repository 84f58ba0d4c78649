package models

// WorkoutSession is a completed workout. Sessions are created only when an
// active session finalizes; historical rows are replaced, never mutated in
// place.
type WorkoutSession struct {
	ID              string `json:"id"`
	Date            int64  `json:"date"` // epoch milliseconds
	DurationSeconds int    `json:"duration_seconds"`
	Title           string `json:"title"`
}

// PerformedExercise is one exercise performed during a session.
type PerformedExercise struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	ExerciseID string `json:"exercise_id"`
	OrderIndex int    `json:"order_index"`
}

// WorkoutSet is one logged set. WeightKg is always canonical kilograms
// regardless of the display unit the user entered it in.
type WorkoutSet struct {
	ID                  string  `json:"id"`
	PerformedExerciseID string  `json:"performed_exercise_id"`
	WeightKg            float64 `json:"weight_kg"`
	Reps                int     `json:"reps"`
	OrderIndex          int     `json:"order_index"`
}

// PerformedExerciseDetail is a performed exercise with its ordered sets.
type PerformedExerciseDetail struct {
	PerformedExercise
	Sets []WorkoutSet `json:"sets"`
}

// SessionDetail is a session with its full two-level child graph.
type SessionDetail struct {
	WorkoutSession
	Exercises []PerformedExerciseDetail `json:"exercises"`
}
