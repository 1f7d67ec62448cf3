package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// MovieService reads movie metadata through the backend's /api/movies proxy.
//
// Requests are throttled client-side by a token bucket limiter.
type MovieService struct {
	client  *Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewMovieService creates a MovieService allowing perSecond requests per second; zero or less disables throttling.
func NewMovieService(client *Client, perSecond float64, logger *log.Logger) *MovieService {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MovieService{client: client, limiter: rate.NewLimiter(limit, burst), logger: logger}
}

func (s *MovieService) get(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrTimeout, err)
	}
	return s.client.doRequest(ctx, http.MethodGet, endpoint, nil, result)
}

func (s *MovieService) page(ctx context.Context, path string, page int) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}
	var p models.MoviePage
	if err := s.get(ctx, fmt.Sprintf("%s?page=%d", path, page), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Popular fetches currently popular movies.
func (s *MovieService) Popular(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.page(ctx, "/api/movies/popular", page)
}

// TopRated fetches the highest rated movies.
func (s *MovieService) TopRated(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.page(ctx, "/api/movies/top-rated", page)
}

// Upcoming fetches movies being released soon.
func (s *MovieService) Upcoming(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.page(ctx, "/api/movies/upcoming", page)
}

// NowPlaying fetches movies currently in theaters.
func (s *MovieService) NowPlaying(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.page(ctx, "/api/movies/now-playing", page)
}

// HiddenGems fetches well rated movies with low popularity.
func (s *MovieService) HiddenGems(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.page(ctx, "/api/movies/hidden-gems", page)
}

// Curated fetches a page of a [models.CuratedList] by id.
func (s *MovieService) Curated(ctx context.Context, listID string, page int) (*models.MoviePage, error) {
	l, ok := models.FindCuratedList(listID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown movie list %q", shared.ErrInvalidArgument, listID)
	}
	return s.page(ctx, l.Path, page)
}

// Search finds movies by title.
func (s *MovieService) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{"query": {query}, "page": {strconv.Itoa(page)}}
	var p models.MoviePage
	if err := s.get(ctx, "/api/movies/search?"+params.Encode(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Details fetches the full record of a movie.
func (s *MovieService) Details(ctx context.Context, movieID string) (*models.MovieDetails, error) {
	var d models.MovieDetails
	if err := s.movieGet(ctx, movieID, "", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Credits fetches the cast and crew of a movie.
func (s *MovieService) Credits(ctx context.Context, movieID string) (*models.Credits, error) {
	var c models.Credits
	if err := s.movieGet(ctx, movieID, "/credits", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Videos fetches trailers and clips of a movie.
func (s *MovieService) Videos(ctx context.Context, movieID string) (*models.VideoList, error) {
	var v models.VideoList
	if err := s.movieGet(ctx, movieID, "/videos", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// WatchProviders fetches where a movie can be streamed, rented or bought.
func (s *MovieService) WatchProviders(ctx context.Context, movieID string) (*models.WatchProviders, error) {
	var w models.WatchProviders
	if err := s.movieGet(ctx, movieID, "/watch-providers", &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Person fetches the profile of a cast or crew member.
func (s *MovieService) Person(ctx context.Context, personID string) (*models.Person, error) {
	if personID == "" {
		return nil, fmt.Errorf("%w: person id", shared.ErrMissingArgument)
	}
	if _, err := strconv.Atoi(personID); err != nil {
		return nil, fmt.Errorf("%w: person id %q must be numeric", shared.ErrInvalidArgument, personID)
	}

	var p models.Person
	if err := s.get(ctx, "/api/person/"+personID, &p); err != nil {
		if shared.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrPersonNotFound, personID, err)
		}
		return nil, err
	}
	return &p, nil
}

// News fetches the latest movie news headlines.
func (s *MovieService) News(ctx context.Context) ([]models.NewsArticle, error) {
	articles := []models.NewsArticle{}
	if err := s.get(ctx, "/api/movies/news", &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// Genres fetches the genre catalogue. Failures degrade to an empty catalogue.
func (s *MovieService) Genres(ctx context.Context) models.GenreList {
	var g models.GenreList
	if err := s.get(ctx, "/api/movies/genres", &g); err != nil {
		s.logger.Warn("genre catalogue unavailable", "err", err)
		return models.GenreList{Genres: []models.Genre{}}
	}
	return g
}

// PosterURL returns the backend image proxy URL for a poster path at size (e.g. "w500").
func (s *MovieService) PosterURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return fmt.Sprintf("%s/api/proxy/image/%s/%s", s.client.BaseURL(), size, strings.TrimPrefix(path, "/"))
}

func (s *MovieService) movieGet(ctx context.Context, movieID, suffix string, result any) error {
	if movieID == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}
	if _, err := strconv.Atoi(movieID); err != nil {
		return fmt.Errorf("%w: movie id %q must be numeric", shared.ErrInvalidArgument, movieID)
	}

	err := s.get(ctx, "/api/movies/"+movieID+suffix, result)
	if err != nil && shared.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s: %w", shared.ErrMovieNotFound, movieID, err)
	}
	return err
}
