package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/formatter"
	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
	"github.com/desertthunder/cinelist/internal/tasks"
)

// ListsShow prints every list, or the items of one list when an id or name is given.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("list")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	fromCache, err := r.loadLists(ctx)
	if err != nil {
		return err
	}

	if ref == "" {
		lists := r.store.Lists()
		if useJSON {
			return r.writeJSON(lists, pretty)
		}
		r.writePlainHeader(fmt.Sprintf("Lists (%d)%s", len(lists), cachedSuffix(fromCache)))
		for _, l := range lists {
			kind := "custom"
			if l.IsDefault {
				kind = "default"
			}
			r.writePlain("%-24s %-28s %4d movies  [%s]\n", l.ID, l.Name, len(l.Items), kind)
		}
		return nil
	}

	l, err := r.resolveList(ref)
	if err != nil {
		return err
	}
	if useJSON {
		return r.writeJSON(l, pretty)
	}
	if format := cmd.String("format"); format != "" {
		data, err := formatter.Export(formatter.NewListExport(l), format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	r.writePlainHeader(l.Name + cachedSuffix(fromCache))
	if l.Description != "" {
		r.writePlain("%s\n\n", l.Description)
	}
	if len(l.Items) == 0 {
		return r.writePlain("(empty)\n")
	}
	for i, item := range l.Items {
		r.writePlain("%3d. movie %-10s", i+1, item.MovieID)
		if !item.AddedAt.IsZero() {
			r.writePlain(" added %s", item.AddedAt.Format("2006-01-02"))
		}
		if item.Notes != "" {
			r.writePlain("  %q", item.Notes)
		}
		r.writePlain("\n")
	}
	return nil
}

// ListsCreate creates a custom list.
func (r *Runner) ListsCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: list name", shared.ErrMissingArgument)
	}

	l, err := r.lists.CreateList(ctx, name, cmd.String("description"))
	if err != nil {
		return err
	}
	r.logger.Info("list created", "id", l.ID, "name", l.Name)
	r.refreshLists(ctx)
	return r.writePlain("✓ Created list %q (%s)\n", l.Name, l.ID)
}

// ListsRename renames a list and optionally replaces its description.
func (r *Runner) ListsRename(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: new list name", shared.ErrMissingArgument)
	}
	l, err := r.lookupList(ctx, cmd.StringArg("list"))
	if err != nil {
		return err
	}

	updated, err := r.lists.UpdateList(ctx, l.ID, models.ListInput{Name: name, Description: cmd.String("description")})
	if err != nil {
		return err
	}
	r.refreshLists(ctx)
	return r.writePlain("✓ Renamed %q to %q\n", l.Name, updated.Name)
}

// ListsDelete deletes a custom list. The default lists cannot be deleted.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	l, err := r.lookupList(ctx, cmd.StringArg("list"))
	if err != nil {
		return err
	}
	if l.IsDefault {
		return fmt.Errorf("%w: %q is a default list and cannot be deleted", shared.ErrInvalidArgument, l.Name)
	}

	if err := r.lists.DeleteList(ctx, l.ID); err != nil {
		return err
	}
	r.refreshLists(ctx)
	return r.writePlain("✓ Deleted list %q\n", l.Name)
}

// ListsAdd adds a movie to a list.
func (r *Runner) ListsAdd(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}
	l, err := r.lookupList(ctx, cmd.StringArg("list"))
	if err != nil {
		return err
	}

	if _, err := r.lists.AddItem(ctx, l.ID, movieID, cmd.String("notes")); err != nil {
		return err
	}
	r.refreshLists(ctx)
	return r.writePlain("✓ Added movie %s to %q\n", movieID, l.Name)
}

// ListsRemove removes a movie from a list.
func (r *Runner) ListsRemove(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}
	l, err := r.lookupList(ctx, cmd.StringArg("list"))
	if err != nil {
		return err
	}

	if err := r.lists.RemoveItem(ctx, l.ID, movieID); err != nil {
		return err
	}
	r.refreshLists(ctx)
	return r.writePlain("✓ Removed movie %s from %q\n", movieID, l.Name)
}

// ListsExport exports one list, or every list with --all, to files.
func (r *Runner) ListsExport(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("list")
	all := cmd.Bool("all")

	if ref == "" && !all {
		return fmt.Errorf("%w: list id or name, or --all", shared.ErrMissingArgument)
	}
	if ref != "" && all {
		return fmt.Errorf("%w: cannot combine a list with --all", shared.ErrInvalidArgument)
	}

	fromCache, err := r.loadLists(ctx)
	if err != nil {
		return err
	}
	if fromCache {
		r.writePlain("! Backend unavailable, exporting cached lists\n")
	}

	lists := r.store.Lists()
	if !all {
		l, err := r.resolveList(ref)
		if err != nil {
			return err
		}
		lists = []models.List{l}
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
		Enrich:     cmd.Bool("enrich"),
		PosterURL:  func(path string) string { return r.movies.PosterURL(path, "w500") },
	}
	r.logger.Info("exporting lists", "count", len(lists), "format", opts.Format, "enrich", opts.Enrich)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.ExportList {
				r.writePlain("📦 %s\n", update.Message)
			} else {
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()

	result, err := r.exporter.BulkExport(ctx, progressCh, lists, opts)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Format: %s\n", result.Format)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d lists\n", result.SuccessfulExports, result.TotalLists)
	for _, res := range result.Results {
		if res.Success {
			if res.Missing > 0 {
				r.writePlain("  ✓ %s (%d files, %d without metadata)\n", res.ListName, len(res.Files), res.Missing)
			} else {
				r.writePlain("  ✓ %s (%d files)\n", res.ListName, len(res.Files))
			}
		} else {
			r.writePlain("  ✗ %s: %s\n", res.ListName, res.ErrorMsg)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if err != nil {
		return err
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d of %d lists failed to export", shared.ErrAPIRequest, result.FailedExports, result.TotalLists)
	}
	return nil
}

// lookupList loads lists and resolves ref.
func (r *Runner) lookupList(ctx context.Context, ref string) (models.List, error) {
	if strings.TrimSpace(ref) == "" {
		return models.List{}, fmt.Errorf("%w: list id or name", shared.ErrMissingArgument)
	}
	if _, err := r.loadLists(ctx); err != nil {
		return models.List{}, err
	}
	return r.resolveList(ref)
}

// resolveList finds a stored list by id, then by name.
func (r *Runner) resolveList(ref string) (models.List, error) {
	if l, ok := r.store.List(ref); ok {
		return l, nil
	}
	if l, ok := r.store.FindByName(ref); ok {
		return l, nil
	}
	return models.List{}, fmt.Errorf("%w: %q", shared.ErrListNotFound, ref)
}

// movieArg reads and validates the numeric movie id argument.
func movieArg(cmd *cli.Command) (string, error) {
	movieID := strings.TrimSpace(cmd.StringArg("movie"))
	if movieID == "" {
		return "", fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}
	if n, err := strconv.Atoi(movieID); err != nil || n <= 0 {
		return "", fmt.Errorf("%w: movie id %q must be a positive number", shared.ErrInvalidArgument, movieID)
	}
	return movieID, nil
}

func cachedSuffix(fromCache bool) string {
	if fromCache {
		return " (cached)"
	}
	return ""
}

func formatUsage() string {
	return "Export format: " + strings.Join(formatter.Formats, ", ")
}
