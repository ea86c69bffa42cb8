package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// CatalogService handles event browsing
type CatalogService struct {
	api         CatalogAPI
	defaultCity string
}

// NewCatalogService creates a new catalog service
func NewCatalogService(api CatalogAPI, defaultCity string) *CatalogService {
	return &CatalogService{api: api, defaultCity: defaultCity}
}

// EventSearchFilters represents the raw listing query
type EventSearchFilters struct {
	City     string
	Search   string
	Category string
}

// ListEvents returns events for the city, optionally narrowed by search and
// category. The category is validated before any request is made.
func (s *CatalogService) ListEvents(ctx context.Context, filters EventSearchFilters) ([]models.EventSummary, error) {
	category, err := models.ParseCategory(filters.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, filters.Category)
	}

	city := strings.TrimSpace(filters.City)
	if city == "" {
		city = s.defaultCity
	}

	events, err := s.api.ListEvents(ctx, models.EventFilter{
		City:     city,
		Search:   strings.TrimSpace(filters.Search),
		Category: category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent returns one event with its instances and ticket types
func (s *CatalogService) GetEvent(ctx context.Context, id string) (*models.EventDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.ErrEventNotFound
	}

	event, err := s.api.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return event, nil
}

// Categories returns the closed set of categories the listing accepts
func (s *CatalogService) Categories() []models.Category {
	return append([]models.Category(nil), models.Categories...)
}
