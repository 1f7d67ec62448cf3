package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/shared"
	"github.com/desertthunder/cinelist/internal/tasks"
)

// Watched toggles a movie's membership in the Watched list.
func (r *Runner) Watched(ctx context.Context, cmd *cli.Command) error {
	return r.runToggle(ctx, cmd, tasks.Watched)
}

// Watchlist toggles a movie's membership in the Watchlist.
func (r *Runner) Watchlist(ctx context.Context, cmd *cli.Command) error {
	return r.runToggle(ctx, cmd, tasks.Watchlist)
}

// runToggle seeds the store, runs the toggle protocol and reports the settled status.
//
// A toggle that was rolled back returns an error so the process exits non-zero.
func (r *Runner) runToggle(ctx context.Context, cmd *cli.Command, kind tasks.ToggleKind) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}

	// a store seeded from neither the backend nor the cache must not become the cache
	seeded := true
	if _, err := r.loadLists(ctx); err != nil {
		r.logger.Warn("current lists unavailable, toggling from an empty state", "err", err)
		seeded = false
	}

	notifier := tasks.NotifierFunc(func(n tasks.Notification) {
		r.writePlain("✗ %s for movie %s: %v\n", n.Message, n.MovieID, n.Err)
	})
	toggler := tasks.NewToggler(r.store, r.lists, notifier, shared.WithLogger(r.logger, "task", "toggle"))

	progressCh := make(chan tasks.ProgressUpdate, 4)
	toggle := toggler.ToggleWatched
	if kind == tasks.Watchlist {
		toggle = toggler.ToggleWatchlist
	}
	res, err := toggle(ctx, progressCh, movieID)
	close(progressCh)
	if err != nil {
		return err
	}
	for update := range progressCh {
		r.logger.Debug(update.Message, "phase", update.Phase)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(res.Final, false); err != nil {
			return err
		}
	}

	switch res.Outcome {
	case tasks.Committed:
		if seeded {
			r.saveLists(r.store.Lists())
		}
		if !cmd.Bool("json") {
			r.writePlain("✓ Movie %s: %s\n", movieID, statusLine(res.Final.IsWatched, res.Final.InWatchlist))
		}
		return nil
	case tasks.RolledBack:
		return fmt.Errorf("%s for movie %s: %w", kind, movieID, res.Err)
	default:
		return nil
	}
}

// Status prints a movie's Watched and Watchlist membership.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}

	fromCache, err := r.loadLists(ctx)
	if err != nil {
		return err
	}

	status := r.store.Status(movieID)
	if cmd.Bool("json") {
		return r.writeJSON(status, false)
	}
	return r.writePlain("Movie %s: %s%s\n", movieID, statusLine(status.IsWatched, status.InWatchlist), cachedSuffix(fromCache))
}

func statusLine(watched, inWatchlist bool) string {
	mark := func(on bool) string {
		if on {
			return "✓"
		}
		return "✗"
	}
	return fmt.Sprintf("watched %s  watchlist %s", mark(watched), mark(inWatchlist))
}
