package models

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"music", CategoryMusic, false},
		{"Comedy", CategoryComedy, false},
		{" nightlife ", CategoryNightlife, false},
		{"theatre", CategoryTheatre, false},
		{"workshop", CategoryWorkshop, false},
		{"", "", false},
		{"sports", "", true},
		{"theater", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCategory) {
				t.Errorf("ParseCategory(%q): expected ErrInvalidCategory, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q): unexpected error %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategories_AllValid(t *testing.T) {
	if len(Categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(Categories))
	}
	for _, c := range Categories {
		if !c.IsValid() {
			t.Errorf("category %q should be valid", c)
		}
	}
}
