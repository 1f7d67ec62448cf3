package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running or optimistic operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ToggleWatchedPhase Phase = iota
	ToggleWatchlistPhase
	FetchLists
	FetchMovies
	ExportList
)

func (p Phase) String() string {
	switch p {
	case ToggleWatchedPhase:
		return "toggle_watched"
	case ToggleWatchlistPhase:
		return "toggle_watchlist"
	case FetchLists:
		return "fetch_lists"
	case FetchMovies:
		return "fetch_movies"
	case ExportList:
		return "export_list"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func togglePhase(kind ToggleKind) Phase {
	if kind == Watchlist {
		return ToggleWatchlistPhase
	}
	return ToggleWatchedPhase
}

func pendingUpdate(res ToggleResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   togglePhase(res.Kind),
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Updating %s for movie %s...", res.Kind, res.MovieID),
		Data:    res,
	}
}

func settledUpdate(res ToggleResult) ProgressUpdate {
	var msg string
	switch res.Outcome {
	case Committed:
		msg = fmt.Sprintf("✓ %s updated for movie %s (%s)", res.Kind, res.MovieID, res.Final)
	case RolledBack:
		msg = fmt.Sprintf("✗ %s update failed for movie %s: %v", res.Kind, res.MovieID, res.Err)
	case Superseded:
		msg = fmt.Sprintf("%s response for movie %s superseded by a newer request", res.Kind, res.MovieID)
	}
	return ProgressUpdate{
		Phase:   togglePhase(res.Kind),
		Step:    2,
		Total:   2,
		Message: msg,
		Data:    res,
	}
}

func fetchingMovieUpdate(step, total int, movieID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovies,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching movie %s...", step, total, movieID),
	}
}

func exportingListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
