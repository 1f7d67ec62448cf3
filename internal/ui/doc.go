// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a browse-and-curate workflow:
//  1. [MenuView] : Pick a curated list (popular, top rated, upcoming, now playing) or search
//  2. [SearchView] : Enter a title query
//  3. [MovieListView] : Browse results with watched/watchlist badges
//  4. [DetailsView] : Read a movie's details
//
// In the list and details views, w toggles watched and l toggles watchlist. Toggles run through
// [tasks.Toggler] inside a [tea.Cmd]: the movie is marked pending at once, the optimistic status lands
// as soon as the toggler stages it, and the settled status replaces it. Failures arrive as notifications
// and are shown on a transient notice line.
//
// Progress and notifications flow through channels the [Model] listens on with re-armed commands,
// so the toggle goroutines never block on the UI.
package ui
