package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

type pageFunc func(ctx context.Context, page int) (*models.MoviePage, error)

// MoviesPage returns an action printing one page of a movie listing.
func (r *Runner) MoviesPage(title string, fetch pageFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		p, err := fetch(ctx, cmd.Int("page"))
		if err != nil {
			return err
		}
		return r.printPage(ctx, cmd, title, p)
	}
}

// MoviesSearch searches movies by title.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	r.logger.Debug("searching movies", "query", query)
	p, err := r.movies.Search(ctx, query, cmd.Int("page"))
	if err != nil {
		return err
	}
	return r.printPage(ctx, cmd, fmt.Sprintf("Results for %q", query), p)
}

// MoviesDetails prints a movie's details and its list status.
func (r *Runner) MoviesDetails(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}

	d, err := r.movies.Details(ctx, movieID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(d, cmd.Bool("pretty"))
	}

	r.writePlainHeader(d.Label())
	if d.Tagline != "" {
		r.writePlain("%s\n\n", d.Tagline)
	}
	if d.Runtime > 0 {
		r.writePlain("Runtime: %dh %02dm\n", d.Runtime/60, d.Runtime%60)
	}
	r.writePlain("Rating: %.1f (%d votes)\n", d.VoteAverage, d.VoteCount)
	if len(d.Genres) > 0 {
		names := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			names[i] = g.Name
		}
		r.writePlain("Genres: %s\n", strings.Join(names, ", "))
	}
	if d.PosterPath != "" {
		r.writePlain("Poster: %s\n", r.movies.PosterURL(d.PosterPath, "w500"))
	}
	if _, err := r.loadLists(ctx); err == nil {
		st := r.store.Status(movieID)
		r.writePlain("Lists: %s\n", statusLine(st.IsWatched, st.InWatchlist))
	}
	if d.Overview != "" {
		r.writePlainln("%s", d.Overview)
	}
	return nil
}

// MoviesCredits prints the directors and top-billed cast.
func (r *Runner) MoviesCredits(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}

	c, err := r.movies.Credits(ctx, movieID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(c, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Credits for movie " + movieID)
	for _, d := range c.Directors() {
		r.writePlain("Director: %s\n", d.Name)
	}
	r.writePlain("\n")
	for _, member := range c.TopCast(cmd.Int("limit")) {
		r.writePlain("  %-28s as %s\n", member.Name, member.Character)
	}
	return nil
}

// MoviesVideos prints trailers and clips, trailer first.
func (r *Runner) MoviesVideos(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}

	v, err := r.movies.Videos(ctx, movieID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(v, cmd.Bool("pretty"))
	}

	if trailer, ok := v.Trailer(); ok {
		r.writePlain("Trailer: %s %s\n", trailer.Name, trailer.URL())
	}
	for _, video := range v.Results {
		r.writePlain("  [%s] %s %s\n", video.Type, video.Name, video.URL())
	}
	return nil
}

// MoviesProviders prints where a movie is available in a region.
func (r *Runner) MoviesProviders(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieArg(cmd)
	if err != nil {
		return err
	}
	region := strings.ToUpper(cmd.String("region"))

	w, err := r.movies.WatchProviders(ctx, movieID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(w, cmd.Bool("pretty"))
	}

	rp, ok := w.Region(region)
	if !ok {
		return r.writePlain("No providers for movie %s in %s\n", movieID, region)
	}
	r.writePlainHeader(fmt.Sprintf("Watch movie %s in %s", movieID, region))
	for _, group := range []struct {
		label     string
		providers []models.Provider
	}{{"Stream", rp.Flatrate}, {"Rent", rp.Rent}, {"Buy", rp.Buy}} {
		label, providers := group.label, group.providers
		if len(providers) == 0 {
			continue
		}
		names := make([]string, len(providers))
		for i, p := range providers {
			names[i] = p.Name
		}
		r.writePlain("%s: %s\n", label, strings.Join(names, ", "))
	}
	if rp.Link != "" {
		r.writePlain("More: %s\n", rp.Link)
	}
	return nil
}

// MoviesPerson prints a cast or crew member's profile.
func (r *Runner) MoviesPerson(ctx context.Context, cmd *cli.Command) error {
	personID := strings.TrimSpace(cmd.StringArg("person"))
	if personID == "" {
		return fmt.Errorf("%w: person id", shared.ErrMissingArgument)
	}

	p, err := r.movies.Person(ctx, personID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}

	r.writePlainHeader(p.Name)
	if p.KnownForDepartment != "" {
		r.writePlain("Known for: %s\n", p.KnownForDepartment)
	}
	if life := p.Lifespan(); life != "" {
		r.writePlain("Life: %s\n", life)
	}
	if p.PlaceOfBirth != "" {
		r.writePlain("Born in: %s\n", p.PlaceOfBirth)
	}
	if p.ProfilePath != "" {
		r.writePlain("Photo: %s\n", r.movies.PosterURL(p.ProfilePath, "w185"))
	}
	if p.Biography != "" {
		r.writePlainln("%s", p.Biography)
	}
	return nil
}

// MoviesNews prints the latest movie news headlines.
func (r *Runner) MoviesNews(ctx context.Context, cmd *cli.Command) error {
	articles, err := r.movies.News(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(articles, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Movie News")
	if len(articles) == 0 {
		return r.writePlain("No news right now\n")
	}
	for _, a := range articles {
		r.writePlain("%s\n  %s", a.Title, a.URL)
		if a.Source != "" {
			r.writePlain(" (%s)", a.Source)
		}
		r.writePlain("\n")
	}
	return nil
}

// MoviesGenres prints the genre catalogue.
func (r *Runner) MoviesGenres(ctx context.Context, cmd *cli.Command) error {
	genres := r.movies.Genres(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}
	for _, g := range genres.Genres {
		r.writePlain("%6d  %s\n", g.ID, g.Name)
	}
	return nil
}

// printPage prints a page of movies with their Watched and Watchlist badges.
func (r *Runner) printPage(ctx context.Context, cmd *cli.Command, title string, p *models.MoviePage) error {
	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}

	badges := true
	if _, err := r.loadLists(ctx); err != nil {
		r.logger.Debug("list status unavailable", "err", err)
		badges = false
	}

	r.writePlainHeader(fmt.Sprintf("%s (page %d of %d)", title, max(p.Page, 1), max(p.TotalPages, 1)))
	if len(p.Results) == 0 {
		return r.writePlain("No movies found\n")
	}
	for _, m := range p.Results {
		r.writePlain("%8d  %-44s ★ %.1f", m.ID, m.Label(), m.VoteAverage)
		if badges {
			st := r.store.Status(m.MovieID())
			if st.IsWatched {
				r.writePlain("  [watched]")
			}
			if st.InWatchlist {
				r.writePlain("  [watchlist]")
			}
		}
		r.writePlain("\n")
	}
	return nil
}
