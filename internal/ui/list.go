package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/cinelist/internal/models"
)

var (
	_ list.Item = menuItem{}
	_ list.Item = movieItem{}
)

// menuItem is an entry of the start menu: a [models.CuratedList] or the search prompt.
type menuItem struct {
	curated models.CuratedList
	search  bool
}

func (i menuItem) FilterValue() string { return i.Title() }
func (i menuItem) Title() string {
	if i.search {
		return "Search"
	}
	return i.curated.Name
}
func (i menuItem) Description() string {
	if i.search {
		return "Find movies by title"
	}
	return i.curated.Description
}

// movieItem wraps [models.Movie] with its list status to implement [list.Item].
type movieItem struct {
	movie   models.Movie
	status  models.ListStatus
	pending bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string       { return i.movie.Label() }
func (i movieItem) Description() string {
	parts := []string{}
	if badges := statusBadges(i.status, i.pending); badges != "" {
		parts = append(parts, badges)
	}
	if i.movie.VoteAverage > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", i.movie.VoteAverage))
	}
	if i.movie.Overview != "" {
		parts = append(parts, truncate(i.movie.Overview, 60))
	}
	return strings.Join(parts, " • ")
}

func statusBadges(st models.ListStatus, pending bool) string {
	var badges []string
	if st.IsWatched {
		badges = append(badges, styles.watched.Render("[watched]"))
	}
	if st.InWatchlist {
		badges = append(badges, styles.watchlist.Render("[watchlist]"))
	}
	if pending {
		badges = append(badges, styles.pending.Render("saving…"))
	}
	return strings.Join(badges, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
