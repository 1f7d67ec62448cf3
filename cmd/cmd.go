// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/formatter"
	"github.com/desertthunder/cinelist/internal/models"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func movieArgs() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "movie"}}
}

// setupCommand handles database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent cache migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// listsCommand handles personal list operations
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lists",
		Aliases: []string{"ls"},
		Usage:   "Manage your movie lists",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show all lists, or the movies in one list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list"}},
				Flags: append(outputFlags(), &cli.StringFlag{
					Name:  "format",
					Usage: "Print the list as csv, markdown, txt or json",
				}),
				Action: r.ListsShow,
			},
			{
				Name:      "create",
				Usage:     "Create a custom list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "List description",
					},
				},
				Action: r.ListsCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "New list description",
					},
				},
				Action: r.ListsRename,
			},
			{
				Name:      "delete",
				Usage:     "Delete a custom list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list"}},
				Action:    r.ListsDelete,
			},
			{
				Name:  "add",
				Usage: "Add a movie to a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "movie"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "notes",
						Usage: "Notes stored with the movie",
					},
				},
				Action: r.ListsAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a movie from a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "movie"},
				},
				Action: r.ListsRemove,
			},
			{
				Name:      "export",
				Usage:     "Export a list, or all lists, to files",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every list",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage(),
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: cinelist_export_{timestamp})",
					},
					&cli.BoolFlag{
						Name:  "enrich",
						Usage: "Fetch titles, years and ratings for every movie",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Lists exported concurrently",
						Value: 3,
					},
				},
				Action: r.ListsExport,
			},
		},
	}
}

// watchedCommand toggles the Watched list
func watchedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watched",
		Usage:     "Toggle whether a movie is watched (marking watched removes it from the watchlist)",
		Arguments: movieArgs(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the resulting status as JSON",
			},
		},
		Action: r.Watched,
	}
}

// watchlistCommand toggles the Watchlist
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watchlist",
		Aliases:   []string{"wl"},
		Usage:     "Toggle whether a movie is on your watchlist",
		Arguments: movieArgs(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the resulting status as JSON",
			},
		},
		Action: r.Watchlist,
	}
}

// statusCommand reads a movie's list status
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show whether a movie is watched or on your watchlist",
		Arguments: movieArgs(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the status as JSON",
			},
		},
		Action: r.Status,
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "search",
			Usage: "Title search text",
		},
		&cli.StringFlag{
			Name:  "years",
			Usage: "Release year range, e.g. 1990-2000",
		},
		&cli.StringFlag{
			Name:  "rating",
			Usage: "Rating range between 0 and 10, e.g. 7-10",
		},
		&cli.StringFlag{
			Name:  "popularity",
			Usage: "Popularity range, e.g. 0-500",
		},
		&cli.StringFlag{
			Name:  "genres",
			Usage: "Comma separated genre ids, e.g. 28,12",
		},
		&cli.BoolFlag{
			Name:  "homepage",
			Usage: "Show the preset on the homepage",
		},
	}
}

// filtersCommand handles saved filter presets
func filtersCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }

	return &cli.Command{
		Name:    "filters",
		Aliases: []string{"filter"},
		Usage:   "Manage saved filter presets",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved presets",
				Flags:  outputFlags(),
				Action: r.FiltersList,
			},
			{
				Name:      "show",
				Usage:     "Show one preset",
				Arguments: idArg(),
				Flags:     outputFlags(),
				Action:    r.FiltersShow,
			},
			{
				Name:  "create",
				Usage: "Save a new preset",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Preset name",
						Required: true,
					},
				}, filterFlags()...),
				Action: r.FiltersCreate,
			},
			{
				Name:      "update",
				Usage:     "Change a preset; unset flags are kept",
				Arguments: idArg(),
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Preset name",
					},
				}, filterFlags()...),
				Action: r.FiltersUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a preset",
				Arguments: idArg(),
				Action:    r.FiltersDelete,
			},
			{
				Name:   "homepage",
				Usage:  "List presets shown on the homepage in display order",
				Flags:  outputFlags(),
				Action: r.FiltersHomepage,
			},
			{
				Name:      "toggle-homepage",
				Usage:     "Show or hide a preset on the homepage",
				Arguments: idArg(),
				Action:    r.FiltersToggleHomepage,
			},
		},
	}
}

// moviesCommand handles read-only movie metadata
func moviesCommand(r *Runner) *cli.Command {
	pageFlags := func() []cli.Flag {
		return append(outputFlags(), &cli.IntFlag{
			Name:  "page",
			Usage: "Result page",
			Value: 1,
		})
	}
	listing := func(name, title string, fetch pageFunc) *cli.Command {
		return &cli.Command{
			Name:   name,
			Usage:  "Browse " + title,
			Flags:  pageFlags(),
			Action: r.MoviesPage(title, fetch),
		}
	}

	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse and search movies",
		Commands: []*cli.Command{
			listing("popular", "Popular Movies", func(ctx context.Context, page int) (*models.MoviePage, error) {
				return r.movies.Popular(ctx, page)
			}),
			listing("top-rated", "Top Rated Movies", func(ctx context.Context, page int) (*models.MoviePage, error) {
				return r.movies.TopRated(ctx, page)
			}),
			listing("upcoming", "Upcoming Movies", func(ctx context.Context, page int) (*models.MoviePage, error) {
				return r.movies.Upcoming(ctx, page)
			}),
			listing("now-playing", "Now Playing", func(ctx context.Context, page int) (*models.MoviePage, error) {
				return r.movies.NowPlaying(ctx, page)
			}),
			listing("hidden-gems", "Hidden Gems", func(ctx context.Context, page int) (*models.MoviePage, error) {
				return r.movies.HiddenGems(ctx, page)
			}),
			{
				Name:      "search",
				Usage:     "Search movies by title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     pageFlags(),
				Action:    r.MoviesSearch,
			},
			{
				Name:      "details",
				Usage:     "Show a movie's details and list status",
				Arguments: movieArgs(),
				Flags:     outputFlags(),
				Action:    r.MoviesDetails,
			},
			{
				Name:      "credits",
				Usage:     "Show a movie's director and cast",
				Arguments: movieArgs(),
				Flags: append(outputFlags(), &cli.IntFlag{
					Name:  "limit",
					Usage: "Cast members to show",
					Value: 10,
				}),
				Action: r.MoviesCredits,
			},
			{
				Name:      "videos",
				Usage:     "Show trailers and clips",
				Arguments: movieArgs(),
				Flags:     outputFlags(),
				Action:    r.MoviesVideos,
			},
			{
				Name:      "providers",
				Usage:     "Show where to stream, rent or buy a movie",
				Arguments: movieArgs(),
				Flags: append(outputFlags(), &cli.StringFlag{
					Name:  "region",
					Usage: "ISO 3166-1 country code",
					Value: "US",
				}),
				Action: r.MoviesProviders,
			},
			{
				Name:      "person",
				Usage:     "Show a cast or crew member's profile",
				Arguments: []cli.Argument{&cli.StringArg{Name: "person"}},
				Flags:     outputFlags(),
				Action:    r.MoviesPerson,
			},
			{
				Name:   "news",
				Usage:  "Show the latest movie news",
				Flags:  outputFlags(),
				Action: r.MoviesNews,
			},
			{
				Name:   "genres",
				Usage:  "List the genre catalogue",
				Flags:  outputFlags(),
				Action: r.MoviesGenres,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive TUI for browsing movies and curating lists",
		Action:  r.TUI,
	}
}
