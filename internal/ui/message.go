package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListsFetched MsgKind = iota
	MsgMoviesFetched
	MsgDetailsFetched
	MsgProgressUpdate
	MsgToggleSettled
	MsgNotification
	MsgNoticeExpired
)

type listsFetched struct {
	lists   []models.List
	version uint64 // store version when the fetch was issued
	err     error
}

type moviesFetched struct {
	title string
	page  *models.MoviePage
	err   error
}

type detailsFetched struct {
	details *models.MovieDetails
	err     error
}

// listsFetchedMsg is the constructor for [MsgListsFetched]
func listsFetchedMsg(lists []models.List, version uint64, err error) Msg {
	return Msg{kind: MsgListsFetched, data: listsFetched{lists, version, err}}
}

// moviesFetchedMsg is the constructor for [MsgMoviesFetched]
func moviesFetchedMsg(title string, page *models.MoviePage, err error) Msg {
	return Msg{kind: MsgMoviesFetched, data: moviesFetched{title, page, err}}
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(details *models.MovieDetails, err error) Msg {
	return Msg{kind: MsgDetailsFetched, data: detailsFetched{details, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// toggleSettledMsg is the constructor for [MsgToggleSettled]
func toggleSettledMsg(result tasks.ToggleResult) Msg {
	return Msg{kind: MsgToggleSettled, data: result}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n tasks.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

// noticeExpiredMsg is the constructor for [MsgNoticeExpired]; seq identifies the notice to clear.
func noticeExpiredMsg(seq int) Msg {
	return Msg{kind: MsgNoticeExpired, data: seq}
}
