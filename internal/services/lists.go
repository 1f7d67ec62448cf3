package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// ListsService calls the personal list endpoints under /api/lists.
type ListsService struct {
	client *Client
}

// NewListsService creates a ListsService on top of client.
func NewListsService(client *Client) *ListsService {
	return &ListsService{client: client}
}

// Lists fetches every list of the current user with its items.
func (s *ListsService) Lists(ctx context.Context) ([]models.List, error) {
	var lists []models.List
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateList creates a custom list.
func (s *ListsService) CreateList(ctx context.Context, name, description string) (*models.List, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: list name", shared.ErrMissingArgument)
	}

	var l models.List
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/lists", models.ListInput{Name: name, Description: description}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateList renames a list or changes its description; empty fields are left unchanged.
func (s *ListsService) UpdateList(ctx context.Context, listID string, in models.ListInput) (*models.List, error) {
	if listID == "" {
		return nil, fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}

	var l models.List
	if err := s.client.doRequest(ctx, http.MethodPut, "/api/lists/"+url.PathEscape(listID), in, &l); err != nil {
		return nil, listError(err, listID)
	}
	return &l, nil
}

// DeleteList removes a custom list.
func (s *ListsService) DeleteList(ctx context.Context, listID string) error {
	if listID == "" {
		return fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}
	return listError(s.client.doRequest(ctx, http.MethodDelete, "/api/lists/"+url.PathEscape(listID), nil, nil), listID)
}

// AddItem adds a movie to a list.
func (s *ListsService) AddItem(ctx context.Context, listID, movieID, notes string) (*models.ListItem, error) {
	if listID == "" || movieID == "" {
		return nil, fmt.Errorf("%w: list id and movie id", shared.ErrMissingArgument)
	}

	var item models.ListItem
	endpoint := fmt.Sprintf("/api/lists/%s/items", url.PathEscape(listID))
	if err := s.client.doRequest(ctx, http.MethodPost, endpoint, models.ListItemInput{MovieID: movieID, Notes: notes}, &item); err != nil {
		return nil, listError(err, listID)
	}
	return &item, nil
}

// RemoveItem removes a movie from a list.
func (s *ListsService) RemoveItem(ctx context.Context, listID, movieID string) error {
	if listID == "" || movieID == "" {
		return fmt.Errorf("%w: list id and movie id", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/api/lists/%s/items/%s", url.PathEscape(listID), url.PathEscape(movieID))
	return listError(s.client.doRequest(ctx, http.MethodDelete, endpoint, nil, nil), listID)
}

// ToggleWatched flips a movie's watched status and returns the backend's resulting status.
func (s *ListsService) ToggleWatched(ctx context.Context, movieID string) (*models.ListStatus, error) {
	return s.toggle(ctx, "watched", movieID)
}

// ToggleWatchlist flips a movie's watchlist status and returns the backend's resulting status.
func (s *ListsService) ToggleWatchlist(ctx context.Context, movieID string) (*models.ListStatus, error) {
	return s.toggle(ctx, "watchlist", movieID)
}

func (s *ListsService) toggle(ctx context.Context, list, movieID string) (*models.ListStatus, error) {
	if movieID == "" {
		return nil, fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	var status models.ListStatus
	endpoint := fmt.Sprintf("/api/lists/%s/%s", list, url.PathEscape(movieID))
	if err := s.client.doRequest(ctx, http.MethodPost, endpoint, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func listError(err error, listID string) error {
	if err != nil && errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", shared.ErrListNotFound, listID, err)
	}
	return err
}
