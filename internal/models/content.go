package models

// ExercisePackage is the bundled exercise catalog document. Version is an
// integer bumped whenever the shipped catalog changes.
type ExercisePackage struct {
	Version   int              `json:"version"`
	Exercises []ExerciseRecord `json:"exercises"`
}

// ExerciseRecord mirrors Exercise minus the custom/hidden flags, which are
// implied for bundled content.
type ExerciseRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	PrimaryMuscles   []string `json:"primary_muscles"`
	SecondaryMuscles []string `json:"secondary_muscles"`
	Equipment        []string `json:"equipment"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
}

// TemplatePackage is the bundled workout template document.
type TemplatePackage struct {
	Version   int              `json:"version"`
	Templates []TemplateRecord `json:"templates"`
}

// TemplateRecord is one bundled template with its planned exercises in order.
type TemplateRecord struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	Exercises []TemplateExerciseRecord `json:"exercises"`
}

// TemplateExerciseRecord is one planned exercise inside a bundled template.
type TemplateExerciseRecord struct {
	ExerciseID  string  `json:"exercise_id"`
	PlannedSets int     `json:"planned_sets"`
	PlannedReps int     `json:"planned_reps"`
	RestSeconds *int    `json:"rest_seconds,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}
