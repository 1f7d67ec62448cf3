package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// FilterService persists filter presets through /api/filter-settings.
type FilterService struct {
	client *Client
}

// NewFilterService creates a FilterService on top of client.
func NewFilterService(client *Client) *FilterService {
	return &FilterService{client: client}
}

// List fetches every saved preset.
func (s *FilterService) List(ctx context.Context) ([]models.FilterSetting, error) {
	var filters []models.FilterSetting
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/filter-settings", nil, &filters); err != nil {
		return nil, err
	}
	return filters, nil
}

// Get fetches a single preset.
func (s *FilterService) Get(ctx context.Context, id int) (*models.FilterSetting, error) {
	var f models.FilterSetting
	if err := s.client.doRequest(ctx, http.MethodGet, filterPath(id), nil, &f); err != nil {
		return nil, filterError(err, id)
	}
	return &f, nil
}

// Homepage fetches the homepage-enabled presets ordered by display order.
//
// Backends without the homepage route answer 404 or 422 (the path is read as a preset id); the subset is
// then filtered from [FilterService.List].
func (s *FilterService) Homepage(ctx context.Context) ([]models.FilterSetting, error) {
	var filters []models.FilterSetting
	err := s.client.doRequest(ctx, http.MethodGet, "/api/filter-settings/homepage", nil, &filters)
	switch {
	case err == nil:
	case shared.IsStatus(err, http.StatusNotFound), shared.IsStatus(err, http.StatusUnprocessableEntity):
		all, listErr := s.List(ctx)
		if listErr != nil {
			return nil, listErr
		}
		filters = filters[:0]
		for _, f := range all {
			if f.IsHomepageEnabled {
				filters = append(filters, f)
			}
		}
	default:
		return nil, err
	}
	SortByHomepageOrder(filters)
	return filters, nil
}

// Create validates and saves a new preset.
func (s *FilterService) Create(ctx context.Context, f models.FilterSetting) (*models.FilterSetting, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	f.ID = 0
	var created models.FilterSetting
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/filter-settings", f, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update validates and replaces an existing preset.
func (s *FilterService) Update(ctx context.Context, f models.FilterSetting) (*models.FilterSetting, error) {
	if f.ID <= 0 {
		return nil, fmt.Errorf("%w: filter id", shared.ErrMissingArgument)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var updated models.FilterSetting
	if err := s.client.doRequest(ctx, http.MethodPut, filterPath(f.ID), f, &updated); err != nil {
		return nil, filterError(err, f.ID)
	}
	return &updated, nil
}

// Delete removes a preset.
func (s *FilterService) Delete(ctx context.Context, id int) error {
	return filterError(s.client.doRequest(ctx, http.MethodDelete, filterPath(id), nil, nil), id)
}

// ToggleHomepage enables or disables a preset on the homepage.
//
// Enabling appends the preset after the currently enabled ones (order = number of enabled presets);
// disabling clears its order.
func (s *FilterService) ToggleHomepage(ctx context.Context, id int) (*models.FilterSetting, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var target *models.FilterSetting
	enabled := 0
	for i := range all {
		if all[i].ID == id {
			target = &all[i]
			continue
		}
		if all[i].IsHomepageEnabled {
			enabled++
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %d", shared.ErrFilterNotFound, id)
	}

	next := *target
	next.IsHomepageEnabled = !target.IsHomepageEnabled
	if next.IsHomepageEnabled {
		next.HomepageDisplayOrder = &enabled
	} else {
		next.HomepageDisplayOrder = nil
	}

	return s.Update(ctx, next)
}

// SortByHomepageOrder orders presets by display order, unordered presets last.
func SortByHomepageOrder(filters []models.FilterSetting) {
	sort.SliceStable(filters, func(i, j int) bool {
		a, b := filters[i].HomepageOrder(), filters[j].HomepageOrder()
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
}

func filterPath(id int) string {
	return fmt.Sprintf("/api/filter-settings/%d", id)
}

func filterError(err error, id int) error {
	if err != nil && errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %d: %w", shared.ErrFilterNotFound, id, err)
	}
	return err
}
