package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lastSynced returns the newest synced_at of table, or the zero time when it is empty.
func lastSynced(db *sql.DB, table string) (time.Time, error) {
	var synced sql.NullString
	if err := db.QueryRow(fmt.Sprintf("SELECT MAX(synced_at) FROM %s", table)).Scan(&synced); err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync time: %w", err)
	}
	if !synced.Valid {
		return time.Time{}, nil
	}
	return parseTime(synced.String)
}

// parseTime reads the text form go-sqlite3 writes for [time.Time] values.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
