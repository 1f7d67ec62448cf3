package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Names of the lists every account holds.
const (
	WatchedListName   = "Watched"
	WatchlistListName = "Watchlist"
)

// ListStatus is a movie's membership in the Watched and Watchlist lists.
type ListStatus struct {
	IsWatched   bool `json:"is_watched"`
	InWatchlist bool `json:"in_watchlist"`
}

func (s ListStatus) String() string {
	return fmt.Sprintf("watched=%t watchlist=%t", s.IsWatched, s.InWatchlist)
}

// List is a user's named collection of movies.
type List struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	IsDefault   bool       `json:"is_default"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   Timestamp  `json:"updated_at"`
	Items       []ListItem `json:"items"`
}

// ListItem is a single movie entry in a [List].
type ListItem struct {
	ID      string    `json:"id,omitempty"`
	ListID  string    `json:"list_id,omitempty"`
	MovieID string    `json:"movie_id"`
	Notes   string    `json:"notes,omitempty"`
	AddedAt Timestamp `json:"added_at"`
}

// Contains reports whether movieID is an item of the list.
func (l *List) Contains(movieID string) bool {
	return l.IndexOf(movieID) >= 0
}

// IndexOf returns the position of movieID in Items or -1.
func (l *List) IndexOf(movieID string) int {
	for i, item := range l.Items {
		if item.MovieID == movieID {
			return i
		}
	}
	return -1
}

// IsWatched reports whether this is the default Watched list.
func (l *List) IsWatched() bool {
	return strings.EqualFold(l.Name, WatchedListName)
}

// IsWatchlist reports whether this is the default Watchlist list.
func (l *List) IsWatchlist() bool {
	return strings.EqualFold(l.Name, WatchlistListName)
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l.Items != nil {
		items := make([]ListItem, len(l.Items))
		copy(items, l.Items)
		l.Items = items
	}
	return l
}

// ListInput is the body of list create and update requests.
type ListInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListItemInput is the body of an add-to-list request.
type ListItemInput struct {
	MovieID string `json:"movie_id"`
	Notes   string `json:"notes,omitempty"`
}

// Timestamp decodes the backend's datetimes, which may omit a zone offset, and null.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// ParseTimestamp parses s with every layout the backend is known to emit.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
