package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
)

// FakeBackend is an in-memory movie discovery backend served over [httptest.Server].
//
// It implements the lists, filter-settings and read-only movie endpoints with the backend's toggle rules:
// marking a movie watched removes it from the watchlist.
type FakeBackend struct {
	Server *httptest.Server

	// Fail, when set, is consulted before every request; a non-zero status short-circuits the handler.
	Fail func(r *http.Request) int

	mu       sync.Mutex
	lists    []models.List
	filters  []models.FilterSetting
	movies   map[int]models.MovieDetails
	people   map[int]models.Person
	genres   []models.Genre
	news     []models.NewsArticle
	requests []string
	auth     []string
	nextList int
	nextFilt int
}

// NewFakeBackend starts a fake backend seeded with empty Watched and Watchlist lists.
// The server is closed when the test finishes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		movies: make(map[int]models.MovieDetails),
		people: make(map[int]models.Person),
		genres: []models.Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}},
		news:   []models.NewsArticle{},
	}
	b.lists = []models.List{
		{ID: "list-watched", Name: models.WatchedListName, IsDefault: true, Items: []models.ListItem{}},
		{ID: "list-watchlist", Name: models.WatchlistListName, IsDefault: true, Items: []models.ListItem{}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lists", b.getLists)
	mux.HandleFunc("POST /api/lists", b.createList)
	mux.HandleFunc("PUT /api/lists/{id}", b.updateList)
	mux.HandleFunc("DELETE /api/lists/{id}", b.deleteList)
	mux.HandleFunc("POST /api/lists/{a}/{b}", b.listAction)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{movieID}", b.removeItem)

	mux.HandleFunc("GET /api/filter-settings", b.getFilters)
	mux.HandleFunc("GET /api/filter-settings/homepage", b.getHomepageFilters)
	mux.HandleFunc("GET /api/filter-settings/{id}", b.getFilter)
	mux.HandleFunc("POST /api/filter-settings", b.createFilter)
	mux.HandleFunc("PUT /api/filter-settings/{id}", b.updateFilter)
	mux.HandleFunc("DELETE /api/filter-settings/{id}", b.deleteFilter)

	for _, path := range []string{"popular", "top-rated", "upcoming", "now-playing", "hidden-gems", "search"} {
		mux.HandleFunc("GET /api/movies/"+path, b.moviePage)
	}
	mux.HandleFunc("GET /api/movies/genres", b.getGenres)
	mux.HandleFunc("GET /api/movies/news", b.getNews)
	mux.HandleFunc("GET /api/person/{id}", b.getPerson)
	mux.HandleFunc("GET /api/movies/{id}", b.movieDetails)
	mux.HandleFunc("GET /api/movies/{id}/credits", b.movieCredits)
	mux.HandleFunc("GET /api/movies/{id}/videos", b.movieVideos)
	mux.HandleFunc("GET /api/movies/{id}/watch-providers", b.movieProviders)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		fail := b.Fail
		b.mu.Unlock()

		if fail != nil {
			if status := fail(r); status != 0 {
				writeDetail(w, status, "injected failure")
				return
			}
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)

	return b
}

// URL returns the base URL of the fake backend.
func (b *FakeBackend) URL() string { return b.Server.URL }

// AddMovie seeds a movie served by the listing and detail endpoints.
func (b *FakeBackend) AddMovie(m models.MovieDetails) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.movies[m.ID] = m
}

// AddPerson seeds a profile served by the person endpoint.
func (b *FakeBackend) AddPerson(p models.Person) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.people[p.ID] = p
}

// SetNews replaces the headlines served by the news endpoint.
func (b *FakeBackend) SetNews(articles ...models.NewsArticle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.news = append([]models.NewsArticle{}, articles...)
}

// SeedList adds a list and returns its id.
func (b *FakeBackend) SeedList(l models.List) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l.ID == "" {
		b.nextList++
		l.ID = fmt.Sprintf("list-%d", b.nextList)
	}
	if l.Items == nil {
		l.Items = []models.ListItem{}
	}
	b.lists = append(b.lists, l)
	return l.ID
}

// SeedFilter adds a filter preset and returns its id.
func (b *FakeBackend) SeedFilter(f models.FilterSetting) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextFilt++
	f.ID = b.nextFilt
	b.filters = append(b.filters, f)
	return f.ID
}

// Lists returns a copy of the backend's lists.
func (b *FakeBackend) Lists() []models.List {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.List, len(b.lists))
	for i, l := range b.lists {
		out[i] = l.Clone()
	}
	return out
}

// Status returns the backend's authoritative status for movieID.
func (b *FakeBackend) Status(movieID string) models.ListStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status(movieID)
}

// Requests returns "METHOD /path" for every request received.
func (b *FakeBackend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// AuthHeaders returns the Authorization header of every request received.
func (b *FakeBackend) AuthHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.auth...)
}

func (b *FakeBackend) findList(id string) int {
	for i, l := range b.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (b *FakeBackend) defaultList(name string) *models.List {
	for i := range b.lists {
		if b.lists[i].Name == name {
			return &b.lists[i]
		}
	}
	b.lists = append(b.lists, models.List{ID: "list-" + strings.ToLower(name), Name: name, IsDefault: true})
	return &b.lists[len(b.lists)-1]
}

func (b *FakeBackend) status(movieID string) models.ListStatus {
	var st models.ListStatus
	for _, l := range b.lists {
		switch l.Name {
		case models.WatchedListName:
			st.IsWatched = st.IsWatched || l.Contains(movieID)
		case models.WatchlistListName:
			st.InWatchlist = st.InWatchlist || l.Contains(movieID)
		}
	}
	return st
}

func setMember(l *models.List, movieID string, member bool) {
	at := l.IndexOf(movieID)
	switch {
	case member && at < 0:
		l.Items = append(l.Items, models.ListItem{ID: movieID + "-" + l.ID, ListID: l.ID, MovieID: movieID, AddedAt: models.Timestamp{Time: time.Now().UTC()}})
	case !member && at >= 0:
		l.Items = append(l.Items[:at], l.Items[at+1:]...)
	}
}

func (b *FakeBackend) getLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Lists())
}

func (b *FakeBackend) createList(w http.ResponseWriter, r *http.Request) {
	var in models.ListInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	b.mu.Lock()
	for _, l := range b.lists {
		if l.Name == in.Name {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "list name already exists")
			return
		}
	}
	b.nextList++
	l := models.List{ID: fmt.Sprintf("list-%d", b.nextList), Name: in.Name, Description: in.Description, Items: []models.ListItem{}}
	b.lists = append(b.lists, l)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, l)
}

func (b *FakeBackend) updateList(w http.ResponseWriter, r *http.Request) {
	var in models.ListInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findList(r.PathValue("id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "List not found")
		return
	}
	if in.Name != "" {
		b.lists[i].Name = in.Name
	}
	if in.Description != "" {
		b.lists[i].Description = in.Description
	}
	writeJSON(w, http.StatusOK, b.lists[i])
}

func (b *FakeBackend) deleteList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findList(r.PathValue("id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "List not found")
		return
	}
	if b.lists[i].IsDefault {
		writeDetail(w, http.StatusBadRequest, "default lists cannot be deleted")
		return
	}
	b.lists = append(b.lists[:i], b.lists[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

// listAction serves the two toggle endpoints and adding an item, which share a path shape.
func (b *FakeBackend) listAction(w http.ResponseWriter, r *http.Request) {
	a, rest := r.PathValue("a"), r.PathValue("b")

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case a == "watched":
		watched := b.defaultList(models.WatchedListName)
		on := !watched.Contains(rest)
		setMember(watched, rest, on)
		if on {
			setMember(b.defaultList(models.WatchlistListName), rest, false)
		}
		writeJSON(w, http.StatusOK, b.status(rest))
	case a == "watchlist":
		watchlist := b.defaultList(models.WatchlistListName)
		setMember(watchlist, rest, !watchlist.Contains(rest))
		writeJSON(w, http.StatusOK, b.status(rest))
	case rest == "items":
		i := b.findList(a)
		if i < 0 {
			writeDetail(w, http.StatusNotFound, "List not found")
			return
		}
		var in models.ListItemInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.MovieID == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "movie_id is required")
			return
		}
		l := &b.lists[i]
		setMember(l, in.MovieID, true)
		item := l.Items[l.IndexOf(in.MovieID)]
		if in.Notes != "" {
			l.Items[l.IndexOf(in.MovieID)].Notes = in.Notes
			item.Notes = in.Notes
		}
		writeJSON(w, http.StatusOK, item)
	default:
		http.NotFound(w, r)
	}
}

func (b *FakeBackend) removeItem(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findList(r.PathValue("id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "List not found")
		return
	}
	setMember(&b.lists[i], r.PathValue("movieID"), false)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (b *FakeBackend) getFilters(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.FilterSetting{}, b.filters...))
}

func (b *FakeBackend) getHomepageFilters(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	enabled := []models.FilterSetting{}
	for _, f := range b.filters {
		if f.IsHomepageEnabled {
			enabled = append(enabled, f)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].HomepageOrder() < enabled[j].HomepageOrder() })
	writeJSON(w, http.StatusOK, enabled)
}

func (b *FakeBackend) filterIndex(w http.ResponseWriter, r *http.Request) int {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return -1
	}
	for i, f := range b.filters {
		if f.ID == id {
			return i
		}
	}
	writeDetail(w, http.StatusNotFound, "Filter settings not found")
	return -1
}

func (b *FakeBackend) getFilter(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.filterIndex(w, r); i >= 0 {
		writeJSON(w, http.StatusOK, b.filters[i])
	}
}

func (b *FakeBackend) createFilter(w http.ResponseWriter, r *http.Request) {
	var f models.FilterSetting
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	b.nextFilt++
	f.ID = b.nextFilt
	b.filters = append(b.filters, f)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, f)
}

func (b *FakeBackend) updateFilter(w http.ResponseWriter, r *http.Request) {
	var f models.FilterSetting
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.filterIndex(w, r); i >= 0 {
		f.ID = b.filters[i].ID
		b.filters[i] = f
		writeJSON(w, http.StatusOK, f)
	}
}

func (b *FakeBackend) deleteFilter(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.filterIndex(w, r); i >= 0 {
		b.filters = append(b.filters[:i], b.filters[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (b *FakeBackend) moviePage(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	query := strings.ToLower(r.URL.Query().Get("query"))
	results := []models.Movie{}
	for _, m := range b.movies {
		if query != "" && !strings.Contains(strings.ToLower(m.Title), query) {
			continue
		}
		results = append(results, m.Movie)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page == 0 {
		page = 1
	}
	writeJSON(w, http.StatusOK, models.MoviePage{Page: page, Results: results, TotalPages: 1, TotalResults: len(results)})
}

func (b *FakeBackend) movie(w http.ResponseWriter, r *http.Request) (models.MovieDetails, bool) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	b.mu.Lock()
	m, ok := b.movies[id]
	b.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Movie not found")
	}
	return m, ok
}

func (b *FakeBackend) movieDetails(w http.ResponseWriter, r *http.Request) {
	if m, ok := b.movie(w, r); ok {
		writeJSON(w, http.StatusOK, m)
	}
}

func (b *FakeBackend) movieCredits(w http.ResponseWriter, r *http.Request) {
	if m, ok := b.movie(w, r); ok {
		writeJSON(w, http.StatusOK, models.Credits{
			ID:   m.ID,
			Cast: []models.CastMember{{ID: 1, Name: "Lead Actor", Character: "Hero", Order: 0}},
			Crew: []models.CrewMember{{ID: 2, Name: "A. Director", Job: "Director", Department: "Directing"}},
		})
	}
}

func (b *FakeBackend) movieVideos(w http.ResponseWriter, r *http.Request) {
	if m, ok := b.movie(w, r); ok {
		writeJSON(w, http.StatusOK, models.VideoList{
			ID:      m.ID,
			Results: []models.Video{{ID: "v1", Key: "abc123", Name: "Official Trailer", Site: "YouTube", Type: "Trailer", Official: true}},
		})
	}
}

func (b *FakeBackend) movieProviders(w http.ResponseWriter, r *http.Request) {
	if m, ok := b.movie(w, r); ok {
		writeJSON(w, http.StatusOK, models.WatchProviders{
			ID: m.ID,
			Results: map[string]models.RegionProviders{
				"US": {Link: "https://example.com/watch", Flatrate: []models.Provider{{ID: 8, Name: "Streamer"}}},
			},
		})
	}
}

func (b *FakeBackend) getGenres(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, models.GenreList{Genres: b.genres})
}

func (b *FakeBackend) getNews(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.news)
}

func (b *FakeBackend) getPerson(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	b.mu.Lock()
	p, ok := b.people[id]
	b.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Person not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
