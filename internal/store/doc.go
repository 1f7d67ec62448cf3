// Package store holds the in-memory cache of the user's personal lists.
//
// [ListStatusStore] is the single source of truth for a movie's Watched and Watchlist membership.
// It is created once by the command runner or the TUI model and handed to every component that reads
// or changes list status. Remote list fetches replace its contents wholesale with [ListStatusStore.Replace];
// toggles change it one movie at a time with [ListStatusStore.UpdateListStatus].
//
// The store also tracks toggles per movie. A toggle stages its optimistic status with [ListStatusStore.Stage]
// and reports the remote outcome with [ListStatusStore.Settle]. Overlapping toggles for one movie resolve to
// the newest request that has not failed, and when all of them fail the status from before the first is
// restored.
package store
