package models

import "strings"

// Category is one of the fixed event categories the catalog filters on
type Category string

const (
	CategoryMusic     Category = "music"
	CategoryComedy    Category = "comedy"
	CategoryNightlife Category = "nightlife"
	CategoryTheatre   Category = "theatre"
	CategoryWorkshop  Category = "workshop"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryMusic,
	CategoryComedy,
	CategoryNightlife,
	CategoryTheatre,
	CategoryWorkshop,
}

// ParseCategory converts user input into a Category. Empty input means "all
// categories" and yields the zero value without error.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}

	c := Category(s)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// IsValid checks whether the category is part of the closed set
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
