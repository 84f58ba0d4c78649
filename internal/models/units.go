package models

import "fmt"

// WeightUnit is a display unit preference. Storage is always kilograms; the
// unit only matters at the input/save boundary of an active session.
type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitPounds    WeightUnit = "lb"
)

const lbPerKg = 2.2046226218

// ToKilograms converts a value entered in this display unit to canonical
// kilograms.
func (u WeightUnit) ToKilograms(v float64) float64 {
	if u == UnitPounds {
		return v / lbPerKg
	}
	return v
}

// FromKilograms converts a stored kilogram value to this display unit.
func (u WeightUnit) FromKilograms(kg float64) float64 {
	if u == UnitPounds {
		return kg * lbPerKg
	}
	return kg
}

// ParseWeightUnit accepts "kg"/"metric" and "lb"/"lbs"/"imperial".
func ParseWeightUnit(s string) (WeightUnit, error) {
	switch s {
	case "kg", "metric", "":
		return UnitKilograms, nil
	case "lb", "lbs", "imperial":
		return UnitPounds, nil
	}
	return "", fmt.Errorf("unknown weight unit %q", s)
}
