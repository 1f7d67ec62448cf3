package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/repositories"
)

// loadLists fetches the user's lists into the store.
//
// When the backend cannot be reached the last cached snapshot is used instead and fromCache is true.
func (r *Runner) loadLists(ctx context.Context) (fromCache bool, err error) {
	lists, err := r.lists.Lists(ctx)
	if err == nil {
		r.store.Replace(lists)
		r.saveLists(lists)
		return false, nil
	}

	db, cacheErr := r.cache()
	if cacheErr != nil {
		r.logger.Debug("cache unavailable", "err", cacheErr)
		return false, err
	}
	repo := repositories.NewListRepository(db)
	cached, cacheErr := repo.Snapshot()
	if cacheErr != nil || len(cached) == 0 {
		return false, err
	}

	synced, _ := repo.SyncedAt()
	r.logger.Warn("backend unavailable, using cached lists", "err", err, "synced_at", synced.Format(time.RFC3339))
	r.store.Replace(cached)
	return true, nil
}

// refreshLists refetches lists after a mutation. Failures are logged; the mutation already succeeded.
func (r *Runner) refreshLists(ctx context.Context) {
	lists, err := r.lists.Lists(ctx)
	if err != nil {
		r.logger.Warn("failed to refresh lists", "err", err)
		return
	}
	r.store.Replace(lists)
	r.saveLists(lists)
}

func (r *Runner) saveLists(lists []models.List) {
	db, err := r.cache()
	if err != nil {
		r.logger.Debug("cache unavailable", "err", err)
		return
	}
	if err := repositories.NewListRepository(db).SaveSnapshot(lists); err != nil {
		r.logger.Warn("failed to cache lists", "err", err)
	}
}

// loadFilters fetches filter presets, falling back to the cache like [Runner.loadLists].
func (r *Runner) loadFilters(ctx context.Context) ([]models.FilterSetting, bool, error) {
	filters, err := r.filters.List(ctx)
	if err == nil {
		r.saveFilters(filters)
		return filters, false, nil
	}

	db, cacheErr := r.cache()
	if cacheErr != nil {
		return nil, false, err
	}
	repo := repositories.NewFilterRepository(db)
	cached, cacheErr := repo.List()
	if cacheErr != nil || len(cached) == 0 {
		return nil, false, err
	}

	synced, _ := repo.SyncedAt()
	r.logger.Warn("backend unavailable, using cached filter settings", "err", err, "synced_at", synced.Format(time.RFC3339))
	return cached, true, nil
}

func (r *Runner) saveFilters(filters []models.FilterSetting) {
	db, err := r.cache()
	if err != nil {
		r.logger.Debug("cache unavailable", "err", err)
		return
	}
	if err := repositories.NewFilterRepository(db).SaveAll(filters); err != nil {
		r.logger.Warn("failed to cache filter settings", "err", err)
	}
}

// CacheStatus shows what is cached locally and when it was synced.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.cache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}

	listRepo := repositories.NewListRepository(db)
	lists, err := listRepo.Snapshot()
	if err != nil {
		return err
	}
	listsSynced, err := listRepo.SyncedAt()
	if err != nil {
		return err
	}

	filterRepo := repositories.NewFilterRepository(db)
	filters, err := filterRepo.List()
	if err != nil {
		return err
	}
	filtersSynced, err := filterRepo.SyncedAt()
	if err != nil {
		return err
	}

	r.writePlainHeader("Local cache")
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Lists: %d (synced %s)\n", len(lists), syncedLabel(listsSynced))
	r.writePlain("Filter settings: %d (synced %s)\n", len(filters), syncedLabel(filtersSynced))
	return nil
}

// CacheClear removes cached lists and filter settings.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.cache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := repositories.NewListRepository(db).Clear(); err != nil {
		return err
	}
	if err := repositories.NewFilterRepository(db).SaveAll(nil); err != nil {
		return err
	}
	r.logger.Info("cache cleared", "path", r.config.Database.Path)
	return r.writePlain("✓ Cache cleared\n")
}

func syncedLabel(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// cacheCommand inspects the local SQLite cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local cache of lists and filter settings",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show cached item counts and sync times",
				Action: r.CacheStatus,
			},
			{
				Name:   "clear",
				Usage:  "Remove cached lists and filter settings",
				Action: r.CacheClear,
			},
		},
	}
}
