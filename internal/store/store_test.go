package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/cinelist/internal/models"
)

func defaultLists() []models.List {
	return []models.List{
		{ID: "w", Name: models.WatchedListName, IsDefault: true, Items: []models.ListItem{{MovieID: "7"}}},
		{ID: "wl", Name: models.WatchlistListName, IsDefault: true, Items: []models.ListItem{{MovieID: "9"}}},
		{ID: "c", Name: "Noir", Items: []models.ListItem{{MovieID: "7"}}},
	}
}

func TestStatus(t *testing.T) {
	s := New(defaultLists())

	t.Run("Reads Membership", func(t *testing.T) {
		assert.Equal(t, models.ListStatus{IsWatched: true}, s.Status("7"))
		assert.Equal(t, models.ListStatus{InWatchlist: true}, s.Status("9"))
		assert.Equal(t, models.ListStatus{}, s.Status("42"))
	})

	t.Run("Empty Store", func(t *testing.T) {
		empty := New(nil)
		assert.False(t, empty.IsWatched("1"))
		assert.False(t, empty.IsInWatchlist("1"))
	})

	t.Run("Custom Lists Do Not Count", func(t *testing.T) {
		s := New([]models.List{{ID: "c", Name: "Noir", Items: []models.ListItem{{MovieID: "3"}}}})
		assert.Equal(t, models.ListStatus{}, s.Status("3"))
	})
}

func TestUpdateListStatus(t *testing.T) {
	cases := []models.ListStatus{
		{IsWatched: false, InWatchlist: false},
		{IsWatched: true, InWatchlist: false},
		{IsWatched: false, InWatchlist: true},
		{IsWatched: true, InWatchlist: true},
	}

	for _, want := range cases {
		t.Run("Round Trip "+want.String(), func(t *testing.T) {
			for _, id := range []string{"7", "9", "42"} {
				s := New(defaultLists())
				s.UpdateListStatus(id, want)
				assert.Equal(t, want, s.Status(id), "movie %s", id)
			}
		})
	}

	t.Run("Idempotent", func(t *testing.T) {
		s := New(defaultLists())
		st := models.ListStatus{IsWatched: true, InWatchlist: true}

		s.UpdateListStatus("42", st)
		once := s.Lists()
		s.UpdateListStatus("42", st)

		assert.Equal(t, once, s.Lists())
	})

	t.Run("Leaves Other Movies Alone", func(t *testing.T) {
		s := New(defaultLists())
		s.UpdateListStatus("42", models.ListStatus{IsWatched: true})

		assert.True(t, s.IsWatched("7"))
		assert.True(t, s.IsInWatchlist("9"))
	})

	t.Run("Leaves Custom Lists Alone", func(t *testing.T) {
		s := New(defaultLists())
		s.UpdateListStatus("7", models.ListStatus{})

		custom, ok := s.List("c")
		require.True(t, ok)
		assert.True(t, custom.Contains("7"))
	})

	t.Run("Creates Missing Default Lists", func(t *testing.T) {
		s := New(nil)
		s.UpdateListStatus("42", models.ListStatus{IsWatched: true})

		watched, ok := s.FindByName(models.WatchedListName)
		require.True(t, ok)
		assert.True(t, watched.IsDefault)
		assert.True(t, watched.Contains("42"))

		_, ok = s.FindByName(models.WatchlistListName)
		assert.False(t, ok, "watchlist should not be created for a false flag")
	})

	t.Run("Removes Duplicate Entries", func(t *testing.T) {
		s := New([]models.List{{Name: models.WatchedListName, IsDefault: true, Items: []models.ListItem{{MovieID: "1"}, {MovieID: "1"}}}})
		s.UpdateListStatus("1", models.ListStatus{})
		assert.False(t, s.IsWatched("1"))
	})

	t.Run("Prefers Flagged Default List", func(t *testing.T) {
		s := New([]models.List{
			{ID: "custom", Name: "watched"},
			{ID: "default", Name: models.WatchedListName, IsDefault: true},
		})
		s.UpdateListStatus("5", models.ListStatus{IsWatched: true})

		l, _ := s.List("default")
		assert.True(t, l.Contains("5"))
		other, _ := s.List("custom")
		assert.False(t, other.Contains("5"))
	})

	t.Run("Stamps Added Items", func(t *testing.T) {
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		s := New(nil)
		s.now = func() time.Time { return fixed }

		s.UpdateListStatus("42", models.ListStatus{InWatchlist: true})
		l, _ := s.FindByName(models.WatchlistListName)
		require.Len(t, l.Items, 1)
		assert.Equal(t, fixed, l.Items[0].AddedAt.Time)
	})
}

func TestSnapshots(t *testing.T) {
	t.Run("Lists Returns Deep Copy", func(t *testing.T) {
		s := New(defaultLists())
		lists := s.Lists()
		lists[0].Items[0].MovieID = "mutated"
		lists[0].Items = append(lists[0].Items, models.ListItem{MovieID: "99"})

		assert.True(t, s.IsWatched("7"))
		assert.False(t, s.IsWatched("99"))
	})

	t.Run("New Copies Input", func(t *testing.T) {
		in := defaultLists()
		s := New(in)
		in[0].Items[0].MovieID = "mutated"
		assert.True(t, s.IsWatched("7"))
	})

	t.Run("Replace Swaps Contents", func(t *testing.T) {
		s := New(defaultLists())
		before := s.LastUpdated()

		s.Replace([]models.List{{Name: models.WatchedListName, IsDefault: true, Items: []models.ListItem{{MovieID: "100"}}}})

		assert.False(t, s.IsWatched("7"))
		assert.True(t, s.IsWatched("100"))
		assert.False(t, s.IsInWatchlist("9"))
		assert.True(t, s.LastUpdated().After(before))
	})
}

func flipWatched(st models.ListStatus) models.ListStatus {
	return models.ListStatus{IsWatched: !st.IsWatched}
}

func TestTokens(t *testing.T) {
	watched := models.ListStatus{IsWatched: true}

	t.Run("Newest Token Is Current", func(t *testing.T) {
		s := New(nil)
		_, _, first := s.Stage("42", flipWatched)
		_, _, second := s.Stage("42", flipWatched)

		assert.False(t, s.IsCurrent("42", first))
		assert.True(t, s.IsCurrent("42", second))
	})

	t.Run("Tokens Are Per Movie", func(t *testing.T) {
		s := New(nil)
		_, _, a := s.Stage("1", flipWatched)
		s.Stage("2", flipWatched)
		assert.True(t, s.IsCurrent("1", a))
	})

	t.Run("Stale Success Does Not Override Newer Commit", func(t *testing.T) {
		s := New(nil)
		_, _, first := s.Stage("42", flipWatched)
		_, _, second := s.Stage("42", flipWatched)

		assert.True(t, s.Settle("42", second, &models.ListStatus{}))
		assert.False(t, s.Settle("42", first, &watched))
		assert.Equal(t, models.ListStatus{}, s.Status("42"))
	})

	t.Run("Overlapping Failures Restore Status From Before The First", func(t *testing.T) {
		s := New(nil)
		_, _, first := s.Stage("42", flipWatched)
		_, _, second := s.Stage("42", flipWatched)

		assert.True(t, s.Settle("42", second, nil))
		assert.Equal(t, watched, s.Status("42"), "first request is still in flight")

		assert.True(t, s.Settle("42", first, nil))
		assert.Equal(t, models.ListStatus{}, s.Status("42"))
	})

	t.Run("Stale Success Applies After Newer Failure", func(t *testing.T) {
		s := New(nil)
		_, _, first := s.Stage("42", flipWatched)
		_, _, second := s.Stage("42", flipWatched)

		assert.True(t, s.Settle("42", second, nil))
		assert.True(t, s.Settle("42", first, &models.ListStatus{IsWatched: true, InWatchlist: false}))
		assert.Equal(t, watched, s.Status("42"))
	})

	t.Run("Newer Failure Falls Back To Older Commit", func(t *testing.T) {
		s := New(nil)
		_, _, first := s.Stage("42", flipWatched)
		_, _, second := s.Stage("42", flipWatched)

		assert.False(t, s.Settle("42", first, &watched))
		assert.Equal(t, models.ListStatus{}, s.Status("42"), "second request is still in flight")

		assert.True(t, s.Settle("42", second, nil))
		assert.Equal(t, watched, s.Status("42"))
	})

	t.Run("Unknown Or Repeated Settle Is Ignored", func(t *testing.T) {
		s := New(nil)
		assert.False(t, s.Settle("42", 7, &watched))
		assert.False(t, s.IsWatched("42"))

		_, _, tok := s.Stage("42", flipWatched)
		assert.True(t, s.Settle("42", tok, nil))
		assert.False(t, s.Settle("42", tok, &watched))
		assert.False(t, s.IsWatched("42"))
	})

	t.Run("Zero Value Store", func(t *testing.T) {
		var s ListStatusStore
		_, _, tok := s.Stage("1", flipWatched)
		assert.True(t, s.Settle("1", tok, &watched))
		assert.True(t, s.IsWatched("1"))
	})
}

func TestReplaceSince(t *testing.T) {
	snapshot := func(watched ...string) []models.List {
		items := []models.ListItem{}
		for _, id := range watched {
			items = append(items, models.ListItem{MovieID: id})
		}
		return []models.List{
			{ID: "w", Name: models.WatchedListName, IsDefault: true, Items: items},
			{ID: "wl", Name: models.WatchlistListName, IsDefault: true},
		}
	}

	t.Run("Keeps Toggles Settled After The Fetch Began", func(t *testing.T) {
		s := New(snapshot())
		version := s.Version()

		_, _, tok := s.Stage("42", flipWatched)
		s.Settle("42", tok, &models.ListStatus{IsWatched: true})

		s.ReplaceSince(snapshot("7"), version)
		assert.True(t, s.IsWatched("42"))
		assert.True(t, s.IsWatched("7"))
	})

	t.Run("Keeps In Flight Toggles", func(t *testing.T) {
		s := New(snapshot())
		s.Stage("42", flipWatched)

		s.ReplaceSince(snapshot(), s.Version())
		assert.True(t, s.IsWatched("42"))
	})

	t.Run("Applies Snapshot For Toggles Settled Before The Fetch", func(t *testing.T) {
		s := New(snapshot())
		_, _, tok := s.Stage("42", flipWatched)
		s.Settle("42", tok, &models.ListStatus{IsWatched: true})
		version := s.Version()

		s.ReplaceSince(snapshot(), version)
		assert.False(t, s.IsWatched("42"))
	})
}

func TestConcurrentAccess(t *testing.T) {
	s := New(defaultLists())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.UpdateListStatus("42", models.ListStatus{IsWatched: i%2 == 0})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Status("42")
			_ = s.Lists()
		}()
	}
	wg.Wait()

	s.UpdateListStatus("42", models.ListStatus{IsWatched: true})
	assert.Equal(t, models.ListStatus{IsWatched: true}, s.Status("42"))
}

func TestStage(t *testing.T) {
	s := New(defaultLists())

	prev, staged, tok := s.Stage("9", func(st models.ListStatus) models.ListStatus {
		return models.ListStatus{IsWatched: !st.IsWatched}
	})

	assert.Equal(t, models.ListStatus{InWatchlist: true}, prev)
	assert.Equal(t, models.ListStatus{IsWatched: true}, staged)
	assert.Equal(t, staged, s.Status("9"))
	assert.True(t, s.IsCurrent("9", tok))

	s.Stage("9", flipWatched)
	assert.False(t, s.IsCurrent("9", tok))
}
