package session

import "strings"

// WorkingSet is one editable set of an active session. Reps and Weight hold
// sanitized raw text, not validated numbers; validation happens at finalize
// so a half-typed value never blocks editing.
type WorkingSet struct {
	ID     string `json:"id"`
	Reps   string `json:"reps"`
	Weight string `json:"weight"`
}

// WorkingExercise is one exercise of an active session with its working sets.
// Name is resolved from the catalog once at start time and never re-resolved.
type WorkingExercise struct {
	ID         string       `json:"id"`
	ExerciseID string       `json:"exercise_id"`
	Name       string       `json:"name"`
	Sets       []WorkingSet `json:"sets"`
}

// sanitizeReps keeps only digits.
func sanitizeReps(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeWeight keeps digits and the first decimal point.
func sanitizeWeight(raw string) string {
	var b strings.Builder
	seenDot := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}
