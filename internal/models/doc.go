// Package models defines the data shapes exchanged with the movie discovery backend.
//
// The package contains three groups of types:
//
// 1. Personal lists: the user's lists and their movie entries
//   - [List] : a named list with its items; "Watched" and "Watchlist" are default lists
//   - [ListItem] : one movie entry in a list
//   - [ListStatus] : a movie's membership in the two default lists
//
// 2. Filter presets
//   - [FilterSetting] : a saved filter combination, decoded from the backend's JSON-string columns
//   - [Range] : an inclusive numeric range (years, ratings, popularity)
//
// 3. Movie metadata (read-only DTOs mirroring the metadata API)
//   - [Movie], [MovieDetails], [MoviePage]
//   - [Credits], [VideoList], [WatchProviders], [Genre]
//   - [CuratedList] : the built-in catalogue of browseable movie lists
package models
