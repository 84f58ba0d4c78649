package session

import "testing"

func TestSanitizeReps(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"8", "8"},
		{"12", "12"},
		{"", ""},
		{"8a", "8"},
		{"1.5", "15"},
		{"-3", "3"},
		{"abc", ""},
		{" 10 ", "10"},
	}
	for _, tt := range tests {
		if got := sanitizeReps(tt.in); got != tt.want {
			t.Errorf("sanitizeReps(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeWeight(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"60", "60"},
		{"62.5", "62.5"},
		{"62.5.5", "62.55"},
		{".5", ".5"},
		{"", ""},
		{"60kg", "60"},
		{"-10.25", "10.25"},
		{"..", "."},
	}
	for _, tt := range tests {
		if got := sanitizeWeight(tt.in); got != tt.want {
			t.Errorf("sanitizeWeight(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
