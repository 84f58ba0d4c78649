package models

// Exercise is a catalog entry. Default exercises (IsCustom=false) ship with
// the app and are never hard-deleted, only hidden.
type Exercise struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	PrimaryMuscles   []string `json:"primary_muscles"`
	SecondaryMuscles []string `json:"secondary_muscles"`
	Equipment        []string `json:"equipment"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	IsCustom         bool     `json:"is_custom"`
	IsHidden         bool     `json:"is_hidden"`
}
