package models

// WorkoutTemplate is a reusable workout plan. Default templates are immutable
// except for hide/unhide.
type WorkoutTemplate struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	IsDefault bool   `json:"is_default"`
	IsHidden  bool   `json:"is_hidden"`
}

// TemplateExercise is one planned exercise within a template. OrderIndex is a
// dense 0..n-1 sequence within the parent template.
type TemplateExercise struct {
	ID          string  `json:"id"`
	TemplateID  string  `json:"template_id"`
	ExerciseID  string  `json:"exercise_id"`
	PlannedSets int     `json:"planned_sets"`
	PlannedReps int     `json:"planned_reps"`
	OrderIndex  int     `json:"order_index"`
	RestSeconds *int    `json:"rest_seconds,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// TemplateDetail bundles a template with its ordered exercises.
type TemplateDetail struct {
	WorkoutTemplate
	Exercises []TemplateExercise `json:"exercises"`
}
