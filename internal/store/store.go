package store

import (
	"sync"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
)

// ListStatusStore coordinates concurrent reads and writes of the user's lists.
type ListStatusStore struct {
	mu       sync.RWMutex
	lists    []models.List
	tokens   map[string]uint64
	inflight map[string][]*request
	touched  map[string]uint64
	version  uint64
	updated  time.Time
	now      func() time.Time
}

// New creates a store seeded with lists.
func New(lists []models.List) *ListStatusStore {
	s := &ListStatusStore{now: time.Now}
	s.lists = cloneLists(lists)
	return s
}

// Replace swaps the stored lists for a fresh server snapshot.
func (s *ListStatusStore) Replace(lists []models.List) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists = cloneLists(lists)
	s.updated = s.clock()
}

// Lists returns a deep copy of every stored list.
func (s *ListStatusStore) Lists() []models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneLists(s.lists)
}

// List returns a copy of the list with the given id.
func (s *ListStatusStore) List(id string) (models.List, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.lists {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return models.List{}, false
}

// FindByName returns a copy of the first list named name.
func (s *ListStatusStore) FindByName(name string) (models.List, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.lists {
		if l.Name == name {
			return l.Clone(), true
		}
	}
	return models.List{}, false
}

// LastUpdated reports when the store last received a server snapshot.
func (s *ListStatusStore) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.updated
}

// Status returns movieID's membership in Watched and Watchlist.
func (s *ListStatusStore) Status(movieID string) models.ListStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status(movieID)
}

// IsWatched reports whether movieID is in the Watched list.
func (s *ListStatusStore) IsWatched(movieID string) bool {
	return s.Status(movieID).IsWatched
}

// IsInWatchlist reports whether movieID is in the Watchlist list.
func (s *ListStatusStore) IsInWatchlist(movieID string) bool {
	return s.Status(movieID).InWatchlist
}

// UpdateListStatus rewrites the Watched and Watchlist items so that movieID's membership equals status.
//
// It adds the movie where the flag is true and it is absent, removes it where the flag is false and it is
// present, and otherwise leaves the list untouched. A missing default list is created locally when the
// movie must be added to it.
func (s *ListStatusStore) UpdateListStatus(movieID string, status models.ListStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(movieID, status)
}

// request is one toggle for a movie, kept in issue order until every request for the movie settles.
type request struct {
	token   uint64
	prev    models.ListStatus
	staged  models.ListStatus
	status  models.ListStatus
	settled bool
	failed  bool
}

// Stage atomically reads movieID's status, applies next(prev) and issues a request token for the change.
//
// The change stays in flight until it is reported with [ListStatusStore.Settle].
func (s *ListStatusStore) Stage(movieID string, next func(models.ListStatus) models.ListStatus) (prev, staged models.ListStatus, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		s.tokens = make(map[string]uint64)
	}
	if s.inflight == nil {
		s.inflight = make(map[string][]*request)
	}
	s.tokens[movieID]++
	token = s.tokens[movieID]

	prev = s.status(movieID)
	staged = next(prev)
	s.inflight[movieID] = append(s.inflight[movieID], &request{token: token, prev: prev, staged: staged})
	s.apply(movieID, staged)
	s.touch(movieID)
	return prev, staged, token
}

// IsCurrent reports whether token is the newest issued for movieID.
func (s *ListStatusStore) IsCurrent(movieID string, token uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens[movieID] == token
}

// Settle records the outcome of a staged request; a nil status marks it failed.
//
// The movie's status is then resolved from its newest request that has not failed: that request's
// server status once settled, its staged status while in flight. When every request has failed the
// status captured before the first of them is restored. Settle reports whether this request was the
// one deciding the movie's status, which is false once a newer request that has not failed exists.
func (s *ListStatusStore) Settle(movieID string, token uint64, status *models.ListStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs := s.inflight[movieID]
	var r *request
	for _, q := range reqs {
		if q.token == token {
			r = q
			break
		}
	}
	if r == nil || r.settled {
		return false
	}

	decided := effective(reqs) == r
	r.settled = true
	if status == nil {
		r.failed = true
	} else {
		r.status = *status
	}

	s.apply(movieID, resolve(reqs))
	s.touch(movieID)

	for _, q := range reqs {
		if !q.settled {
			return decided
		}
	}
	delete(s.inflight, movieID)
	return decided
}

// Version returns a counter that advances on every staged or settled toggle.
//
// Pass it to [ListStatusStore.ReplaceSince] with a snapshot requested at that moment.
func (s *ListStatusStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// ReplaceSince swaps in a server snapshot that was requested at version.
//
// Movies toggled after version, or still in flight, keep their current status.
func (s *ListStatusStore) ReplaceSince(lists []models.List, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]models.ListStatus)
	for id, v := range s.touched {
		if v > version {
			keep[id] = s.status(id)
		}
	}
	for id := range s.inflight {
		keep[id] = s.status(id)
	}

	s.lists = cloneLists(lists)
	s.updated = s.clock()
	for id, st := range keep {
		s.apply(id, st)
	}
}

func (s *ListStatusStore) touch(movieID string) {
	if s.touched == nil {
		s.touched = make(map[string]uint64)
	}
	s.version++
	s.touched[movieID] = s.version
}

// effective returns the newest request that has not failed.
func effective(reqs []*request) *request {
	for i := len(reqs) - 1; i >= 0; i-- {
		if !reqs[i].failed {
			return reqs[i]
		}
	}
	return nil
}

func resolve(reqs []*request) models.ListStatus {
	r := effective(reqs)
	switch {
	case r == nil:
		return reqs[0].prev
	case r.settled:
		return r.status
	default:
		return r.staged
	}
}

func (s *ListStatusStore) status(movieID string) models.ListStatus {
	var st models.ListStatus
	if i := s.indexOf(models.WatchedListName); i >= 0 {
		st.IsWatched = s.lists[i].Contains(movieID)
	}
	if i := s.indexOf(models.WatchlistListName); i >= 0 {
		st.InWatchlist = s.lists[i].Contains(movieID)
	}
	return st
}

func (s *ListStatusStore) apply(movieID string, status models.ListStatus) {
	s.setMembership(models.WatchedListName, movieID, status.IsWatched)
	s.setMembership(models.WatchlistListName, movieID, status.InWatchlist)
}

func (s *ListStatusStore) setMembership(name, movieID string, member bool) {
	i := s.indexOf(name)
	if i < 0 {
		if !member {
			return
		}
		s.lists = append(s.lists, models.List{Name: name, IsDefault: true})
		i = len(s.lists) - 1
	}

	l := &s.lists[i]
	at := l.IndexOf(movieID)
	switch {
	case member && at < 0:
		l.Items = append(l.Items, models.ListItem{
			ListID:  l.ID,
			MovieID: movieID,
			AddedAt: models.Timestamp{Time: s.clock()},
		})
	case !member && at >= 0:
		items := make([]models.ListItem, 0, len(l.Items)-1)
		for _, item := range l.Items {
			if item.MovieID != movieID {
				items = append(items, item)
			}
		}
		l.Items = items
	}
}

// indexOf locates a default list by name, preferring lists flagged is_default.
func (s *ListStatusStore) indexOf(name string) int {
	found := -1
	for i := range s.lists {
		l := &s.lists[i]
		var match bool
		switch name {
		case models.WatchedListName:
			match = l.IsWatched()
		case models.WatchlistListName:
			match = l.IsWatchlist()
		}
		if !match {
			continue
		}
		if l.IsDefault {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

func (s *ListStatusStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func cloneLists(lists []models.List) []models.List {
	if len(lists) == 0 {
		return nil
	}
	dup := make([]models.List, len(lists))
	for i, l := range lists {
		dup[i] = l.Clone()
	}
	return dup
}
