package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// ListRepository caches the user's lists and items.
type ListRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewListRepository creates a new ListRepository with the given database connection
func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db, now: time.Now}
}

// SaveSnapshot replaces the cached lists with lists.
func (r *ListRepository) SaveSnapshot(lists []models.List) error {
	synced := r.now().UTC()

	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM list_items"); err != nil {
			return fmt.Errorf("failed to clear list items: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM lists"); err != nil {
			return fmt.Errorf("failed to clear lists: %w", err)
		}

		listStmt, err := tx.Prepare(`
			INSERT INTO lists (id, remote_id, name, description, is_default, synced_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare list insert: %w", err)
		}
		defer listStmt.Close()

		itemStmt, err := tx.Prepare(`
			INSERT INTO list_items (id, list_id, position, movie_id, notes, added_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (list_id, movie_id) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare item insert: %w", err)
		}
		defer itemStmt.Close()

		for _, l := range lists {
			if l.ID == "" {
				return fmt.Errorf("%w: list %q has no id", shared.ErrInvalidInput, l.Name)
			}

			id := shared.GenerateID()
			if _, err := listStmt.Exec(id, l.ID, l.Name, nullString(l.Description), l.IsDefault, synced); err != nil {
				return fmt.Errorf("failed to insert list %s: %w", l.ID, err)
			}

			for i, item := range l.Items {
				var added sql.NullTime
				if !item.AddedAt.IsZero() {
					added = sql.NullTime{Time: item.AddedAt.UTC(), Valid: true}
				}
				if _, err := itemStmt.Exec(shared.GenerateID(), id, i, item.MovieID, nullString(item.Notes), added); err != nil {
					return fmt.Errorf("failed to insert item %s: %w", item.MovieID, err)
				}
			}
		}
		return nil
	})
}

// Snapshot returns the cached lists in the order they were saved.
func (r *ListRepository) Snapshot() ([]models.List, error) {
	rows, err := r.db.Query(`
		SELECT id, remote_id, name, description, is_default
		FROM lists
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var (
		lists    []models.List
		localIDs []string
	)
	for rows.Next() {
		localID, l, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
		localIDs = append(localIDs, localID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for i := range lists {
		items, err := r.items(localIDs[i], lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].Items = items
	}
	return lists, nil
}

// Get retrieves a cached list by its backend id.
func (r *ListRepository) Get(remoteID string) (*models.List, error) {
	row := r.db.QueryRow(`
		SELECT id, remote_id, name, description, is_default
		FROM lists
		WHERE remote_id = ?
	`, remoteID)

	localID, l, err := r.scanOne(row)
	if err != nil {
		return nil, err
	}

	if l.Items, err = r.items(localID, l.ID); err != nil {
		return nil, err
	}
	return &l, nil
}

// SyncedAt returns when the snapshot was saved, or the zero time when nothing is cached.
func (r *ListRepository) SyncedAt() (time.Time, error) {
	return lastSynced(r.db, "lists")
}

// Clear removes every cached list.
func (r *ListRepository) Clear() error {
	return r.SaveSnapshot(nil)
}

func (r *ListRepository) items(localID, remoteID string) ([]models.ListItem, error) {
	rows, err := r.db.Query(`
		SELECT id, movie_id, notes, added_at
		FROM list_items
		WHERE list_id = ?
		ORDER BY position ASC
	`, localID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	items := []models.ListItem{}
	for rows.Next() {
		var (
			id      string
			movieID string
			notes   sql.NullString
			addedAt sql.NullTime
		)
		if err := rows.Scan(&id, &movieID, &notes, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}

		item := models.ListItem{ID: id, ListID: remoteID, MovieID: movieID, Notes: notes.String}
		if addedAt.Valid {
			item.AddedAt = models.Timestamp{Time: addedAt.Time}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// scanOne scans a single row into a [models.List] without items
func (r *ListRepository) scanOne(row *sql.Row) (string, models.List, error) {
	var (
		id          string
		remoteID    string
		name        string
		description sql.NullString
		isDefault   bool
	)

	err := row.Scan(&id, &remoteID, &name, &description, &isDefault)
	if err == sql.ErrNoRows {
		return "", models.List{}, fmt.Errorf("%w: not cached", shared.ErrListNotFound)
	}
	if err != nil {
		return "", models.List{}, fmt.Errorf("failed to scan list: %w", err)
	}

	return id, models.List{ID: remoteID, Name: name, Description: description.String, IsDefault: isDefault}, nil
}

// scanRow scans a row from [sql.Rows] into a [models.List] without items
func (r *ListRepository) scanRow(rows *sql.Rows) (string, models.List, error) {
	var (
		id          string
		remoteID    string
		name        string
		description sql.NullString
		isDefault   bool
	)

	if err := rows.Scan(&id, &remoteID, &name, &description, &isDefault); err != nil {
		return "", models.List{}, fmt.Errorf("failed to scan list: %w", err)
	}

	return id, models.List{ID: remoteID, Name: name, Description: description.String, IsDefault: isDefault}, nil
}
