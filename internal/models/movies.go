package models

import (
	"fmt"
	"sort"
	"strconv"
)

// Movie is the summary form returned by listing and search endpoints.
type Movie struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	BackdropPath  string  `json:"backdrop_path,omitempty"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
	GenreIDs      []int   `json:"genre_ids,omitempty"`
	Adult         bool    `json:"adult,omitempty"`
}

// MovieID is the string key used by personal lists.
func (m Movie) MovieID() string {
	return strconv.Itoa(m.ID)
}

// Year returns the release year or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Label formats the movie as "Title (Year)".
func (m Movie) Label() string {
	if y := m.Year(); y != "" {
		return fmt.Sprintf("%s (%s)", m.Title, y)
	}
	return m.Title
}

// MoviePage is one page of movie results.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is a metadata genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the response of the genre catalogue endpoint.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// Names maps genre ids to names.
func (g GenreList) Names() map[int]string {
	names := make(map[int]string, len(g.Genres))
	for _, genre := range g.Genres {
		names[genre.ID] = genre.Name
	}
	return names
}

// MovieDetails is the full record for a single movie.
type MovieDetails struct {
	Movie
	Genres   []Genre `json:"genres"`
	Runtime  int     `json:"runtime"`
	Tagline  string  `json:"tagline,omitempty"`
	Status   string  `json:"status,omitempty"`
	Budget   int64   `json:"budget,omitempty"`
	Revenue  int64   `json:"revenue,omitempty"`
	ImdbID   string  `json:"imdb_id,omitempty"`
	Homepage string  `json:"homepage,omitempty"`
}

// CastMember is a credited actor.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// CrewMember is a credited crew member.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the cast and crew of a movie.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// TopCast returns up to n cast members in billing order.
func (c Credits) TopCast(n int) []CastMember {
	cast := make([]CastMember, len(c.Cast))
	copy(cast, c.Cast)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if n >= 0 && len(cast) > n {
		cast = cast[:n]
	}
	return cast
}

// Directors returns the crew members whose job is Director.
func (c Credits) Directors() []CrewMember {
	var directors []CrewMember
	for _, member := range c.Crew {
		if member.Job == "Director" {
			directors = append(directors, member)
		}
	}
	return directors
}

// Video is a trailer, teaser or clip.
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// URL returns a watchable link for known hosting sites.
func (v Video) URL() string {
	switch v.Site {
	case "YouTube":
		return "https://www.youtube.com/watch?v=" + v.Key
	case "Vimeo":
		return "https://vimeo.com/" + v.Key
	default:
		return ""
	}
}

// VideoList is the response of the videos endpoint.
type VideoList struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

// Trailer returns the first official trailer, falling back to any trailer.
func (v VideoList) Trailer() (Video, bool) {
	var fallback *Video
	for i, video := range v.Results {
		if video.Type != "Trailer" {
			continue
		}
		if video.Official {
			return video, true
		}
		if fallback == nil {
			fallback = &v.Results[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Video{}, false
}

// Provider is a streaming, rental or purchase provider.
type Provider struct {
	ID              int    `json:"provider_id"`
	Name            string `json:"provider_name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority"`
}

// RegionProviders groups providers for one country.
type RegionProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// WatchProviders maps ISO 3166-1 country codes to providers.
type WatchProviders struct {
	ID      int                        `json:"id"`
	Results map[string]RegionProviders `json:"results"`
}

// Region returns the providers for a country code.
func (w WatchProviders) Region(code string) (RegionProviders, bool) {
	r, ok := w.Results[code]
	return r, ok
}

// Person is a cast or crew member's profile.
type Person struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Biography          string   `json:"biography"`
	Birthday           string   `json:"birthday,omitempty"`
	Deathday           string   `json:"deathday,omitempty"`
	PlaceOfBirth       string   `json:"place_of_birth,omitempty"`
	ProfilePath        string   `json:"profile_path,omitempty"`
	KnownForDepartment string   `json:"known_for_department,omitempty"`
	AlsoKnownAs        []string `json:"also_known_as,omitempty"`
	Popularity         float64  `json:"popularity"`
	Adult              bool     `json:"adult"`
	Homepage           string   `json:"homepage,omitempty"`
}

// Lifespan formats the birth and death dates, e.g. "1930-05-31 to 2020-01-01".
func (p Person) Lifespan() string {
	switch {
	case p.Birthday == "":
		return ""
	case p.Deathday == "":
		return "born " + p.Birthday
	default:
		return p.Birthday + " to " + p.Deathday
	}
}

// NewsArticle is a movie news headline linking to an external article.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Date        string `json:"date,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// CuratedList is a built-in browseable movie list.
type CuratedList struct {
	ID          string
	Name        string
	Path        string
	Description string
}

// CuratedLists is the catalogue shown when browsing without a search query.
var CuratedLists = []CuratedList{
	{ID: "popular", Name: "Popular Movies", Path: "/api/movies/popular", Description: "Currently popular movies across all platforms"},
	{ID: "top_rated", Name: "Top Rated Movies", Path: "/api/movies/top-rated", Description: "Highest rated movies of all time"},
	{ID: "upcoming", Name: "Upcoming Movies", Path: "/api/movies/upcoming", Description: "Movies that are being released soon"},
	{ID: "now_playing", Name: "Now Playing", Path: "/api/movies/now-playing", Description: "Movies currently in theaters"},
}

// FindCuratedList looks up a catalogue entry by id.
func FindCuratedList(id string) (CuratedList, bool) {
	for _, l := range CuratedLists {
		if l.ID == id {
			return l, true
		}
	}
	return CuratedList{}, false
}
