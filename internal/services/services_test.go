package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
	tu "github.com/desertthunder/cinelist/internal/testing"
)

func TestNewHTTPClient(t *testing.T) {
	t.Run("Attaches Bearer Token And User Agent", func(t *testing.T) {
		var auth, agent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			agent = r.Header.Get("User-Agent")
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := NewHTTPClient(shared.APIConfig{Token: "Bearer abc.def", UserAgent: "cinelist/test", TimeoutSeconds: 3})
		if client.Timeout != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", client.Timeout)
		}

		lists := NewListsService(NewClient(server.URL, client))
		if _, err := lists.Lists(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if auth != "Bearer abc.def" {
			t.Errorf("expected bearer header, got %q", auth)
		}
		if agent != "cinelist/test" {
			t.Errorf("expected user agent, got %q", agent)
		}
	})

	t.Run("No Token Sends No Authorization", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		lists := NewListsService(NewClient(backend.URL(), NewHTTPClient(shared.APIConfig{})))

		if _, err := lists.Lists(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := backend.AuthHeaders()[0]; got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
	})
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		detail   string
	}{
		{name: "Not Found", status: 404, body: `{"detail":"List not found"}`, sentinel: shared.ErrNotFound, detail: "List not found"},
		{name: "Unauthorized", status: 401, body: `{"detail":"Could not validate credentials"}`, sentinel: shared.ErrUnauthorized, detail: "Could not validate credentials"},
		{name: "Validation", status: 422, body: `{"detail":[{"loc":["body","name"],"msg":"field required"}]}`, sentinel: shared.ErrInvalidInput, detail: "name: field required"},
		{name: "Server Error Plain Body", status: 502, body: `bad gateway`, sentinel: shared.ErrServiceUnavailable, detail: "bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL, nil).doRequest(context.Background(), http.MethodGet, "/api/x?page=2", nil, nil)

			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, apiErr.Detail)
			}
			if apiErr.Path != "/api/x" {
				t.Errorf("expected path without query, got %q", apiErr.Path)
			}
		})
	}

	t.Run("Malformed Body", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(200, `{"is_watched":`), nil)}
		_, err := NewListsService(NewClient("http://example.com", client)).ToggleWatched(context.Background(), "42")
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Empty Body", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(200, ``), nil)}
		_, err := NewListsService(NewClient("http://example.com", client)).Lists(context.Background())
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := NewListsService(NewClient("http://example.com", client)).Lists(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := &http.Client{Timeout: 20 * time.Millisecond}
		_, err := NewListsService(NewClient(server.URL, client)).Lists(context.Background())
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestListsService(t *testing.T) {
	ctx := context.Background()

	t.Run("Lists Includes Defaults", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewListsService(NewClient(backend.URL(), nil))

		lists, err := svc.Lists(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lists) != 2 || !lists[0].IsWatched() || !lists[1].IsWatchlist() {
			t.Errorf("unexpected lists %+v", lists)
		}
	})

	t.Run("Create Rename Delete", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewListsService(NewClient(backend.URL(), nil))

		created, err := svc.CreateList(ctx, "Noir", "Shadows")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == "" || created.Name != "Noir" || created.Description != "Shadows" {
			t.Errorf("unexpected list %+v", created)
		}

		renamed, err := svc.UpdateList(ctx, created.ID, models.ListInput{Name: "Neo-Noir"})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if renamed.Name != "Neo-Noir" || renamed.Description != "Shadows" {
			t.Errorf("unexpected renamed list %+v", renamed)
		}

		if err := svc.DeleteList(ctx, created.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if len(backend.Lists()) != 2 {
			t.Errorf("expected list to be deleted, have %d lists", len(backend.Lists()))
		}
	})

	t.Run("Duplicate Name Is Invalid Input", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewListsService(NewClient(backend.URL(), nil))

		_, err := svc.CreateList(ctx, models.WatchedListName, "")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Missing List Maps To ErrListNotFound", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewListsService(NewClient(backend.URL(), nil))

		err := svc.DeleteList(ctx, "nope")
		if !errors.Is(err, shared.ErrListNotFound) || !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrListNotFound wrapping ErrNotFound, got %v", err)
		}
	})

	t.Run("Add And Remove Items", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewListsService(NewClient(backend.URL(), nil))
		id := backend.SeedList(models.List{Name: "Favorites"})

		item, err := svc.AddItem(ctx, id, "550", "rewatch")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if item.MovieID != "550" || item.Notes != "rewatch" {
			t.Errorf("unexpected item %+v", item)
		}

		if err := svc.RemoveItem(ctx, id, "550"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		for _, l := range backend.Lists() {
			if l.ID == id && l.Contains("550") {
				t.Error("expected item to be removed")
			}
		}
	})

	t.Run("Missing Arguments", func(t *testing.T) {
		svc := NewListsService(NewClient("http://example.com", nil))
		if _, err := svc.CreateList(ctx, "", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := svc.AddItem(ctx, "", "1", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := svc.ToggleWatched(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Toggles Return Authoritative Status", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewListsService(NewClient(backend.URL(), nil))

		st, err := svc.ToggleWatchlist(ctx, "42")
		if err != nil {
			t.Fatalf("toggle watchlist failed: %v", err)
		}
		if *st != (models.ListStatus{InWatchlist: true}) {
			t.Errorf("unexpected status %+v", st)
		}

		st, err = svc.ToggleWatched(ctx, "42")
		if err != nil {
			t.Fatalf("toggle watched failed: %v", err)
		}
		if *st != (models.ListStatus{IsWatched: true}) {
			t.Errorf("expected watched to clear watchlist, got %+v", st)
		}

		reqs := backend.Requests()
		if reqs[len(reqs)-1] != "POST /api/lists/watched/42" {
			t.Errorf("unexpected request %s", reqs[len(reqs)-1])
		}
	})
}

func TestFilterService(t *testing.T) {
	ctx := context.Background()

	t.Run("Create Encodes JSON String Columns", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewFilterService(NewClient(backend.URL(), nil))

		created, err := svc.Create(ctx, models.FilterSetting{
			Name:      "Nineties",
			YearRange: &models.Range{Min: 1990, Max: 1999},
			Genres:    []int{28},
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == 0 || created.YearRange == nil || created.YearRange.Max != 1999 {
			t.Errorf("unexpected filter %+v", created)
		}

		got, err := svc.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(got.Genres) != 1 || got.Genres[0] != 28 {
			t.Errorf("unexpected genres %v", got.Genres)
		}
	})

	t.Run("Create Rejects Invalid Preset Without Request", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewFilterService(NewClient(backend.URL(), nil))

		_, err := svc.Create(ctx, models.FilterSetting{Name: "bad", RatingRange: &models.Range{Min: 8, Max: 3}})
		if !errors.Is(err, shared.ErrInvalidInput) || !errors.Is(err, models.ErrInvalidFilter) {
			t.Errorf("expected invalid input, got %v", err)
		}
		if len(backend.Requests()) != 0 {
			t.Errorf("expected no requests, got %v", backend.Requests())
		}
	})

	t.Run("Update And Delete", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewFilterService(NewClient(backend.URL(), nil))
		id := backend.SeedFilter(models.FilterSetting{Name: "Old"})

		updated, err := svc.Update(ctx, models.FilterSetting{ID: id, Name: "New", SearchText: "space"})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated.Name != "New" || updated.SearchText != "space" {
			t.Errorf("unexpected filter %+v", updated)
		}

		if err := svc.Delete(ctx, id); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := svc.Get(ctx, id); !errors.Is(err, shared.ErrFilterNotFound) {
			t.Errorf("expected ErrFilterNotFound, got %v", err)
		}
	})

	t.Run("Update Requires ID", func(t *testing.T) {
		svc := NewFilterService(NewClient("http://example.com", nil))
		if _, err := svc.Update(ctx, models.FilterSetting{Name: "x"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("ToggleHomepage Appends And Clears Order", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewFilterService(NewClient(backend.URL(), nil))

		zero := 0
		backend.SeedFilter(models.FilterSetting{Name: "A", IsHomepageEnabled: true, HomepageDisplayOrder: &zero})
		b := backend.SeedFilter(models.FilterSetting{Name: "B"})

		enabled, err := svc.ToggleHomepage(ctx, b)
		if err != nil {
			t.Fatalf("enable failed: %v", err)
		}
		if !enabled.IsHomepageEnabled || enabled.HomepageOrder() != 1 {
			t.Errorf("expected B enabled at order 1, got %+v", enabled)
		}

		home, err := svc.Homepage(ctx)
		if err != nil {
			t.Fatalf("homepage failed: %v", err)
		}
		if len(home) != 2 || home[0].Name != "A" || home[1].Name != "B" {
			t.Errorf("unexpected homepage order %+v", home)
		}

		disabled, err := svc.ToggleHomepage(ctx, b)
		if err != nil {
			t.Fatalf("disable failed: %v", err)
		}
		if disabled.IsHomepageEnabled || disabled.HomepageDisplayOrder != nil {
			t.Errorf("expected B disabled without order, got %+v", disabled)
		}
	})

	t.Run("Homepage Falls Back To Filtering The Collection", func(t *testing.T) {
		for _, code := range []int{http.StatusNotFound, http.StatusUnprocessableEntity} {
			backend := tu.NewFakeBackend(t)
			backend.Fail = func(r *http.Request) int {
				if r.URL.Path == "/api/filter-settings/homepage" {
					return code
				}
				return 0
			}
			svc := NewFilterService(NewClient(backend.URL(), nil))
			one, zero := 1, 0
			backend.SeedFilter(models.FilterSetting{Name: "second", IsHomepageEnabled: true, HomepageDisplayOrder: &one})
			backend.SeedFilter(models.FilterSetting{Name: "hidden"})
			backend.SeedFilter(models.FilterSetting{Name: "first", IsHomepageEnabled: true, HomepageDisplayOrder: &zero})

			home, err := svc.Homepage(ctx)
			if err != nil {
				t.Fatalf("status %d: unexpected error: %v", code, err)
			}
			if len(home) != 2 || home[0].Name != "first" || home[1].Name != "second" {
				t.Errorf("status %d: unexpected homepage filters %+v", code, home)
			}
		}
	})

	t.Run("Homepage Server Error Is Returned", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		backend.Fail = func(r *http.Request) int { return http.StatusInternalServerError }
		svc := NewFilterService(NewClient(backend.URL(), nil))

		if _, err := svc.Homepage(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("ToggleHomepage Unknown Preset", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		svc := NewFilterService(NewClient(backend.URL(), nil))
		if _, err := svc.ToggleHomepage(ctx, 99); !errors.Is(err, shared.ErrFilterNotFound) {
			t.Errorf("expected ErrFilterNotFound, got %v", err)
		}
	})

	t.Run("SortByHomepageOrder Puts Unordered Last", func(t *testing.T) {
		one, two := 1, 2
		filters := []models.FilterSetting{{Name: "none"}, {Name: "two", HomepageDisplayOrder: &two}, {Name: "one", HomepageDisplayOrder: &one}}
		SortByHomepageOrder(filters)
		if filters[0].Name != "one" || filters[1].Name != "two" || filters[2].Name != "none" {
			t.Errorf("unexpected order %v", []string{filters[0].Name, filters[1].Name, filters[2].Name})
		}
	})
}

func TestMovieService(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*tu.FakeBackend, *MovieService) {
		backend := tu.NewFakeBackend(t)
		backend.AddMovie(models.MovieDetails{Movie: models.Movie{ID: 42, Title: "The Answer", ReleaseDate: "1999-01-01"}, Runtime: 120})
		backend.AddMovie(models.MovieDetails{Movie: models.Movie{ID: 7, Title: "Seven"}})
		return backend, NewMovieService(NewClient(backend.URL(), nil), 0, nil)
	}

	t.Run("Curated Lists", func(t *testing.T) {
		backend, svc := seed(t)
		for _, l := range models.CuratedLists {
			page, err := svc.Curated(ctx, l.ID, 2)
			if err != nil {
				t.Fatalf("%s failed: %v", l.ID, err)
			}
			if page.Page != 2 || len(page.Results) != 2 {
				t.Errorf("%s: unexpected page %+v", l.ID, page)
			}
		}
		reqs := backend.Requests()
		if reqs[len(reqs)-1] != "GET /api/movies/now-playing" {
			t.Errorf("unexpected last request %s", reqs[len(reqs)-1])
		}
		if _, err := svc.Curated(ctx, "bogus", 1); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		_, svc := seed(t)
		page, err := svc.Search(ctx, "answer", 0)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(page.Results) != 1 || page.Results[0].ID != 42 {
			t.Errorf("unexpected results %+v", page.Results)
		}
		if _, err := svc.Search(ctx, "  ", 1); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Details Credits Videos Providers", func(t *testing.T) {
		_, svc := seed(t)

		d, err := svc.Details(ctx, "42")
		if err != nil || d.Runtime != 120 || d.Title != "The Answer" {
			t.Fatalf("unexpected details %+v err %v", d, err)
		}
		c, err := svc.Credits(ctx, "42")
		if err != nil || len(c.Directors()) != 1 {
			t.Errorf("unexpected credits %+v err %v", c, err)
		}
		v, err := svc.Videos(ctx, "42")
		if err != nil {
			t.Fatalf("videos failed: %v", err)
		}
		if tr, ok := v.Trailer(); !ok || tr.Key != "abc123" {
			t.Errorf("unexpected trailer %+v", tr)
		}
		w, err := svc.WatchProviders(ctx, "42")
		if err != nil {
			t.Fatalf("providers failed: %v", err)
		}
		if us, ok := w.Region("US"); !ok || len(us.Flatrate) != 1 {
			t.Errorf("unexpected providers %+v", w)
		}
	})

	t.Run("Unknown Movie", func(t *testing.T) {
		_, svc := seed(t)
		_, err := svc.Details(ctx, "999")
		if !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
		if _, err := svc.Details(ctx, "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Person", func(t *testing.T) {
		backend, svc := seed(t)
		backend.AddPerson(models.Person{ID: 525, Name: "A. Director", Birthday: "1970-07-30", KnownForDepartment: "Directing"})

		p, err := svc.Person(ctx, "525")
		if err != nil {
			t.Fatalf("person failed: %v", err)
		}
		if p.Name != "A. Director" || p.Lifespan() != "born 1970-07-30" {
			t.Errorf("unexpected person %+v", p)
		}
		if reqs := backend.Requests(); reqs[len(reqs)-1] != "GET /api/person/525" {
			t.Errorf("unexpected last request %s", reqs[len(reqs)-1])
		}

		if _, err := svc.Person(ctx, "404"); !errors.Is(err, shared.ErrPersonNotFound) {
			t.Errorf("expected ErrPersonNotFound, got %v", err)
		}
		if _, err := svc.Person(ctx, "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := svc.Person(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("News", func(t *testing.T) {
		backend, svc := seed(t)
		articles, err := svc.News(ctx)
		if err != nil || articles == nil || len(articles) != 0 {
			t.Fatalf("expected empty headlines, got %+v err %v", articles, err)
		}

		backend.SetNews(models.NewsArticle{Title: "Sequel Announced", URL: "https://example.com/sequel", Source: "r/movies"})
		articles, err = svc.News(ctx)
		if err != nil || len(articles) != 1 || articles[0].Title != "Sequel Announced" {
			t.Errorf("unexpected headlines %+v err %v", articles, err)
		}

		backend.Fail = func(r *http.Request) int { return http.StatusInternalServerError }
		if _, err := svc.News(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Genres Degrade To Empty", func(t *testing.T) {
		backend, svc := seed(t)
		if g := svc.Genres(ctx); len(g.Genres) != 2 {
			t.Errorf("expected 2 genres, got %+v", g)
		}

		backend.Fail = func(r *http.Request) int { return http.StatusInternalServerError }
		svc.logger = shared.NewLogger(&strings.Builder{})
		g := svc.Genres(ctx)
		if g.Genres == nil || len(g.Genres) != 0 {
			t.Errorf("expected empty catalogue, got %+v", g)
		}
	})

	t.Run("Rate Limiter Honors Context", func(t *testing.T) {
		_, svc := seed(t)
		svc = NewMovieService(svc.client, 0.001, nil)
		if _, err := svc.Popular(ctx, 1); err != nil {
			t.Fatalf("first request should use the burst: %v", err)
		}

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := svc.Popular(short, 1); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout from limiter, got %v", err)
		}
	})

	t.Run("PosterURL", func(t *testing.T) {
		svc := NewMovieService(NewClient("http://api.test/", nil), 0, nil)
		if got := svc.PosterURL("/abc.jpg", ""); got != "http://api.test/api/proxy/image/w500/abc.jpg" {
			t.Errorf("unexpected url %s", got)
		}
		if svc.PosterURL("", "w200") != "" {
			t.Error("expected empty url for empty path")
		}
	})
}
