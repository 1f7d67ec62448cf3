// Package repositories implements the SQLite cache of the user's remote lists and filter presets.
//
// The CLI runs one process per command, so the last successful fetch is written here and read back
// when the backend is unreachable. Each save replaces the whole snapshot inside a transaction;
// the cache never merges partial updates.
//
// Key Implementations:
//   - [ListRepository] : lists and their items, keyed locally by UUID with the backend id kept as remote_id
//   - [FilterRepository] : filter presets with ranges and genres stored as JSON text
package repositories
