package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// FilterRepository caches saved filter presets.
type FilterRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewFilterRepository creates a new FilterRepository with the given database connection
func NewFilterRepository(db *sql.DB) *FilterRepository {
	return &FilterRepository{db: db, now: time.Now}
}

// SaveAll replaces the cached presets with filters.
func (r *FilterRepository) SaveAll(filters []models.FilterSetting) error {
	synced := r.now().UTC()

	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM filter_settings"); err != nil {
			return fmt.Errorf("failed to clear filter settings: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO filter_settings (
				id, remote_id, name, search_text, year_range, rating_range, popularity_range,
				genres, is_homepage_enabled, homepage_display_order, synced_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare filter insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range filters {
			genres, err := genresColumn(f.Genres)
			if err != nil {
				return fmt.Errorf("failed to encode genres for filter %d: %w", f.ID, err)
			}

			var order sql.NullInt64
			if f.HomepageDisplayOrder != nil {
				order = sql.NullInt64{Int64: int64(*f.HomepageDisplayOrder), Valid: true}
			}

			_, err = stmt.Exec(
				shared.GenerateID(),
				f.ID,
				f.Name,
				nullString(f.SearchText),
				rangeColumn(f.YearRange),
				rangeColumn(f.RatingRange),
				rangeColumn(f.PopularityRange),
				genres,
				f.IsHomepageEnabled,
				order,
				synced,
			)
			if err != nil {
				return fmt.Errorf("failed to insert filter %d: %w", f.ID, err)
			}
		}
		return nil
	})
}

// List retrieves every cached preset in the order they were saved.
func (r *FilterRepository) List() ([]models.FilterSetting, error) {
	rows, err := r.db.Query(`
		SELECT remote_id, name, search_text, year_range, rating_range, popularity_range,
			genres, is_homepage_enabled, homepage_display_order
		FROM filter_settings
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter settings: %w", err)
	}
	defer rows.Close()

	filters := []models.FilterSetting{}
	for rows.Next() {
		f, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return filters, nil
}

// Get retrieves a cached preset by its backend id.
func (r *FilterRepository) Get(remoteID int) (*models.FilterSetting, error) {
	row := r.db.QueryRow(`
		SELECT remote_id, name, search_text, year_range, rating_range, popularity_range,
			genres, is_homepage_enabled, homepage_display_order
		FROM filter_settings
		WHERE remote_id = ?
	`, remoteID)

	f, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d not cached", shared.ErrFilterNotFound, remoteID)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SyncedAt returns when the presets were saved, or the zero time when nothing is cached.
func (r *FilterRepository) SyncedAt() (time.Time, error) {
	return lastSynced(r.db, "filter_settings")
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *FilterRepository) scan(s scanner) (models.FilterSetting, error) {
	var (
		f                            models.FilterSetting
		search, year, rating, pop, g sql.NullString
		order                        sql.NullInt64
	)

	err := s.Scan(&f.ID, &f.Name, &search, &year, &rating, &pop, &g, &f.IsHomepageEnabled, &order)
	if err == sql.ErrNoRows {
		return f, err
	}
	if err != nil {
		return f, fmt.Errorf("failed to scan filter setting: %w", err)
	}

	f.SearchText = search.String
	if f.YearRange, err = models.ParseRange(year.String); err != nil {
		return f, fmt.Errorf("cached year_range: %w", err)
	}
	if f.RatingRange, err = models.ParseRange(rating.String); err != nil {
		return f, fmt.Errorf("cached rating_range: %w", err)
	}
	if f.PopularityRange, err = models.ParseRange(pop.String); err != nil {
		return f, fmt.Errorf("cached popularity_range: %w", err)
	}
	if g.Valid {
		if err := json.Unmarshal([]byte(g.String), &f.Genres); err != nil {
			return f, fmt.Errorf("cached genres: %w", err)
		}
	}
	if order.Valid {
		v := int(order.Int64)
		f.HomepageDisplayOrder = &v
	}
	return f, nil
}

// rangeColumn stores r in the same "[min,max]" text form the backend uses.
func rangeColumn(r *models.Range) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmt.Sprintf("[%g,%g]", r.Min, r.Max), Valid: true}
}

func genresColumn(genres []int) (sql.NullString, error) {
	if len(genres) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(genres)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
