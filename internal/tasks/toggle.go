package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
	"github.com/desertthunder/cinelist/internal/store"
)

// ToggleKind names which default list a toggle targets.
type ToggleKind int

const (
	Watched ToggleKind = iota
	Watchlist
)

func (k ToggleKind) String() string {
	switch k {
	case Watched:
		return "watched"
	case Watchlist:
		return "watchlist"
	default:
		return ""
	}
}

// Outcome is the settled state of a toggle.
type Outcome int

const (
	// Pending means the optimistic status is applied and the remote call is in flight.
	Pending Outcome = iota
	// Committed means the server's authoritative status was applied.
	Committed
	// RolledBack means the remote call failed and the pre-toggle status was restored.
	RolledBack
	// Superseded means a newer toggle for the same movie, still pending or committed, decides the
	// status, so the response was not applied.
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	case Superseded:
		return "superseded"
	default:
		return ""
	}
}

// ToggleResult describes one run of the toggle protocol.
type ToggleResult struct {
	MovieID    string
	Kind       ToggleKind
	Outcome    Outcome
	Previous   models.ListStatus // status read before the toggle
	Optimistic models.ListStatus // status applied before the remote call
	Final      models.ListStatus // store status once the toggle settled
	Err        error             // remote error for RolledBack and failed Superseded toggles
}

// ListsAPI is the remote half of a toggle.
type ListsAPI interface {
	ToggleWatched(ctx context.Context, movieID string) (*models.ListStatus, error)
	ToggleWatchlist(ctx context.Context, movieID string) (*models.ListStatus, error)
}

// Notification is a user-visible failure message emitted when a toggle's remote call fails.
type Notification struct {
	MovieID string
	Kind    ToggleKind
	Message string
	Err     error
}

// Notifier receives toggle failure notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Toggler runs the optimistic Watched/Watchlist update protocol against a [store.ListStatusStore].
//
// Every toggle reads the current status, applies an optimistic target, calls the backend, then either
// applies the backend's authoritative status or restores the pre-toggle status and notifies. A response
// is written only while its request is still the newest for the movie.
type Toggler struct {
	store    *store.ListStatusStore
	api      ListsAPI
	notifier Notifier
	logger   *log.Logger
}

// NewToggler creates a Toggler. A nil notifier drops notifications; a nil logger discards logs.
func NewToggler(st *store.ListStatusStore, api ListsAPI, notifier Notifier, logger *log.Logger) *Toggler {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Toggler{store: st, api: api, notifier: notifier, logger: logger}
}

// ToggleWatched flips movieID's watched flag. Marking a movie watched removes it from the watchlist.
func (t *Toggler) ToggleWatched(ctx context.Context, progress chan<- ProgressUpdate, movieID string) (ToggleResult, error) {
	return t.toggle(ctx, progress, Watched, movieID)
}

// ToggleWatchlist flips movieID's watchlist flag and leaves the watched flag untouched.
func (t *Toggler) ToggleWatchlist(ctx context.Context, progress chan<- ProgressUpdate, movieID string) (ToggleResult, error) {
	return t.toggle(ctx, progress, Watchlist, movieID)
}

// OptimisticTarget computes the status a toggle of kind applies before the remote call.
func OptimisticTarget(kind ToggleKind, current models.ListStatus) models.ListStatus {
	switch kind {
	case Watchlist:
		return models.ListStatus{IsWatched: current.IsWatched, InWatchlist: !current.InWatchlist}
	default:
		next := models.ListStatus{IsWatched: !current.IsWatched, InWatchlist: current.InWatchlist}
		if next.IsWatched {
			next.InWatchlist = false
		}
		return next
	}
}

// toggle returns an error only for invalid arguments; remote failures settle as RolledBack or Superseded.
func (t *Toggler) toggle(ctx context.Context, progress chan<- ProgressUpdate, kind ToggleKind, movieID string) (ToggleResult, error) {
	if movieID == "" {
		return ToggleResult{}, fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}
	if t.store == nil || t.api == nil {
		return ToggleResult{}, fmt.Errorf("%w: toggler not initialized", shared.ErrServiceUnavailable)
	}

	prev, staged, token := t.store.Stage(movieID, func(st models.ListStatus) models.ListStatus {
		return OptimisticTarget(kind, st)
	})

	res := ToggleResult{
		MovieID:    movieID,
		Kind:       kind,
		Outcome:    Pending,
		Previous:   prev,
		Optimistic: staged,
	}
	sendProgress(progress, pendingUpdate(res))
	t.logger.Debug("toggle staged", "movie", movieID, "kind", kind, "from", prev, "to", staged, "token", token)

	status, err := t.call(ctx, kind, movieID)
	if err != nil {
		res.Err = err
		if t.store.Settle(movieID, token, nil) {
			res.Outcome = RolledBack
		} else {
			res.Outcome = Superseded
		}
		t.logger.Warn("toggle failed", "movie", movieID, "kind", kind, "outcome", res.Outcome, "err", err)
		t.notifier.Notify(Notification{
			MovieID: movieID,
			Kind:    kind,
			Message: fmt.Sprintf("Failed to update %s status", kind),
			Err:     err,
		})
	} else if t.store.Settle(movieID, token, status) {
		res.Outcome = Committed
		t.logger.Debug("toggle committed", "movie", movieID, "kind", kind, "status", *status)
	} else {
		res.Outcome = Superseded
		t.logger.Debug("toggle superseded", "movie", movieID, "kind", kind, "token", token)
	}

	res.Final = t.store.Status(movieID)
	sendProgress(progress, settledUpdate(res))
	return res, nil
}

func (t *Toggler) call(ctx context.Context, kind ToggleKind, movieID string) (*models.ListStatus, error) {
	var (
		status *models.ListStatus
		err    error
	)
	switch kind {
	case Watchlist:
		status, err = t.api.ToggleWatchlist(ctx, movieID)
	default:
		status, err = t.api.ToggleWatched(ctx, movieID)
	}
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, fmt.Errorf("%w: empty toggle response", shared.ErrMalformedResponse)
	}
	return status, nil
}

// IsFailure reports whether a settled toggle hit a remote error.
func (r ToggleResult) IsFailure() bool {
	return r.Err != nil
}
