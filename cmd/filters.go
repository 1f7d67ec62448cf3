package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/repositories"
	"github.com/desertthunder/cinelist/internal/shared"
)

// FiltersList prints every saved filter preset.
func (r *Runner) FiltersList(ctx context.Context, cmd *cli.Command) error {
	filters, fromCache, err := r.loadFilters(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(filters, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Filter settings (%d)%s", len(filters), cachedSuffix(fromCache)))
	for _, f := range filters {
		r.printFilterRow(f)
	}
	return nil
}

// FiltersHomepage prints the presets shown on the homepage in display order.
func (r *Runner) FiltersHomepage(ctx context.Context, cmd *cli.Command) error {
	filters, err := r.filters.Homepage(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(filters, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Homepage filters (%d)", len(filters)))
	for _, f := range filters {
		r.printFilterRow(f)
	}
	return nil
}

// FiltersShow prints one preset, falling back to the cache when the backend is unavailable.
func (r *Runner) FiltersShow(ctx context.Context, cmd *cli.Command) error {
	id, err := filterArg(cmd)
	if err != nil {
		return err
	}

	f, err := r.filters.Get(ctx, id)
	if err != nil && !isNotFound(err) {
		if db, cacheErr := r.cache(); cacheErr == nil {
			if cached, cacheErr := repositories.NewFilterRepository(db).Get(id); cacheErr == nil {
				r.logger.Warn("backend unavailable, using cached filter setting", "id", id, "err", err)
				f, err = cached, nil
			}
		}
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(f, cmd.Bool("pretty"))
	}

	r.writePlainHeader(f.Name)
	r.writePlain("ID: %d\n", f.ID)
	if f.SearchText != "" {
		r.writePlain("Search: %s\n", f.SearchText)
	}
	if f.YearRange != nil {
		r.writePlain("Years: %s\n", f.YearRange)
	}
	if f.RatingRange != nil {
		r.writePlain("Rating: %s\n", f.RatingRange)
	}
	if f.PopularityRange != nil {
		r.writePlain("Popularity: %s\n", f.PopularityRange)
	}
	if len(f.Genres) > 0 {
		r.writePlain("Genres: %s\n", r.genreLabels(ctx, f.Genres))
	}
	if f.IsHomepageEnabled {
		r.writePlain("Homepage: position %d\n", f.HomepageOrder()+1)
	} else {
		r.writePlain("Homepage: hidden\n")
	}
	return nil
}

// FiltersCreate saves a new preset built from flags.
func (r *Runner) FiltersCreate(ctx context.Context, cmd *cli.Command) error {
	f := models.FilterSetting{Name: strings.TrimSpace(cmd.String("name"))}
	if err := applyFilterFlags(cmd, &f); err != nil {
		return err
	}

	created, err := r.filters.Create(ctx, f)
	if err != nil {
		return err
	}
	r.refreshFilters(ctx)
	r.logger.Info("filter setting created", "id", created.ID, "name", created.Name)
	return r.writePlain("✓ Created filter %q (%d)\n", created.Name, created.ID)
}

// FiltersUpdate changes the fields of a preset given as flags; unset flags keep their values.
func (r *Runner) FiltersUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := filterArg(cmd)
	if err != nil {
		return err
	}

	f, err := r.filters.Get(ctx, id)
	if err != nil {
		return err
	}
	if cmd.IsSet("name") {
		f.Name = strings.TrimSpace(cmd.String("name"))
	}
	if err := applyFilterFlags(cmd, f); err != nil {
		return err
	}

	updated, err := r.filters.Update(ctx, *f)
	if err != nil {
		return err
	}
	r.refreshFilters(ctx)
	return r.writePlain("✓ Updated filter %q (%d)\n", updated.Name, updated.ID)
}

// FiltersDelete removes a preset.
func (r *Runner) FiltersDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := filterArg(cmd)
	if err != nil {
		return err
	}
	if err := r.filters.Delete(ctx, id); err != nil {
		return err
	}
	r.refreshFilters(ctx)
	return r.writePlain("✓ Deleted filter %d\n", id)
}

// FiltersToggleHomepage shows or hides a preset on the homepage.
func (r *Runner) FiltersToggleHomepage(ctx context.Context, cmd *cli.Command) error {
	id, err := filterArg(cmd)
	if err != nil {
		return err
	}

	f, err := r.filters.ToggleHomepage(ctx, id)
	if err != nil {
		return err
	}
	r.refreshFilters(ctx)
	if f.IsHomepageEnabled {
		return r.writePlain("✓ %q shown on the homepage at position %d\n", f.Name, f.HomepageOrder()+1)
	}
	return r.writePlain("✓ %q hidden from the homepage\n", f.Name)
}

func (r *Runner) refreshFilters(ctx context.Context) {
	filters, err := r.filters.List(ctx)
	if err != nil {
		r.logger.Warn("failed to refresh filter settings", "err", err)
		return
	}
	r.saveFilters(filters)
}

func (r *Runner) printFilterRow(f models.FilterSetting) {
	home := "-"
	if f.IsHomepageEnabled {
		home = strconv.Itoa(f.HomepageOrder() + 1)
	}
	r.writePlain("%4d  %-28s home:%-3s %s\n", f.ID, f.Name, home, filterSummary(f))
}

// genreLabels names genre ids using the catalogue, leaving unknown ids numeric.
func (r *Runner) genreLabels(ctx context.Context, ids []int) string {
	names := r.movies.Genres(ctx).Names()
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			labels = append(labels, name)
		} else {
			labels = append(labels, strconv.Itoa(id))
		}
	}
	return strings.Join(labels, ", ")
}

func filterSummary(f models.FilterSetting) string {
	parts := []string{}
	if f.SearchText != "" {
		parts = append(parts, fmt.Sprintf("%q", f.SearchText))
	}
	if f.YearRange != nil {
		parts = append(parts, "years "+f.YearRange.String())
	}
	if f.RatingRange != nil {
		parts = append(parts, "rating "+f.RatingRange.String())
	}
	if f.PopularityRange != nil {
		parts = append(parts, "popularity "+f.PopularityRange.String())
	}
	if len(f.Genres) > 0 {
		parts = append(parts, fmt.Sprintf("%d genres", len(f.Genres)))
	}
	return strings.Join(parts, ", ")
}

// applyFilterFlags copies the range, genre, search and homepage flags that were set onto f.
func applyFilterFlags(cmd *cli.Command, f *models.FilterSetting) error {
	if cmd.IsSet("search") {
		f.SearchText = strings.TrimSpace(cmd.String("search"))
	}

	for flag, dst := range map[string]**models.Range{
		"years":      &f.YearRange,
		"rating":     &f.RatingRange,
		"popularity": &f.PopularityRange,
	} {
		if !cmd.IsSet(flag) {
			continue
		}
		rng, err := models.ParseRange(cmd.String(flag))
		if err != nil {
			return fmt.Errorf("%w: --%s: %v", shared.ErrInvalidArgument, flag, err)
		}
		*dst = rng
	}

	if cmd.IsSet("genres") {
		genres, err := parseGenres(cmd.String("genres"))
		if err != nil {
			return err
		}
		f.Genres = genres
	}

	if cmd.IsSet("homepage") {
		f.IsHomepageEnabled = cmd.Bool("homepage")
		if !f.IsHomepageEnabled {
			f.HomepageDisplayOrder = nil
		}
	}
	return nil
}

// parseGenres reads a comma separated list of genre ids.
func parseGenres(s string) ([]int, error) {
	genres := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: genre id %q", shared.ErrInvalidArgument, part)
		}
		genres = append(genres, id)
	}
	return genres, nil
}

func filterArg(cmd *cli.Command) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg("id"))
	if raw == "" {
		return 0, fmt.Errorf("%w: filter id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: filter id %q must be a positive number", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
