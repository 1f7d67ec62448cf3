package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/store"
	"github.com/desertthunder/cinelist/internal/tasks"
)

// noticeTTL is how long a failure notice stays on screen.
const noticeTTL = 4 * time.Second

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	SearchView
	MovieListView
	DetailsView
)

// MovieSource reads movie listings and details.
type MovieSource interface {
	Curated(ctx context.Context, listID string, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int) (*models.MoviePage, error)
	Details(ctx context.Context, movieID string) (*models.MovieDetails, error)
}

// ListFetcher loads the user's lists.
type ListFetcher interface {
	Lists(ctx context.Context) ([]models.List, error)
}

// Deps are the collaborators of the TUI. Store is owned by the caller.
type Deps struct {
	Movies MovieSource
	Lists  ListFetcher
	Remote tasks.ListsAPI
	Store  *store.ListStatusStore
	Logger *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	movies  MovieSource
	lists   ListFetcher
	store   *store.ListStatusStore
	toggler *tasks.Toggler
	logger  *log.Logger

	width  int
	height int

	menu      list.Model
	movieList list.Model
	search    textinput.Model
	details   *models.MovieDetails

	source     string // curated list id, or "" for search results
	query      string
	page       int
	totalPages int

	pending   map[string]int
	status    string
	notice    string
	noticeSeq int

	progress chan tasks.ProgressUpdate
	notes    chan tasks.Notification

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Model{
		ctx:      ctx,
		view:     MenuView,
		movies:   deps.Movies,
		lists:    deps.Lists,
		store:    deps.Store,
		logger:   logger,
		pending:  make(map[string]int),
		progress: make(chan tasks.ProgressUpdate, 64),
		notes:    make(chan tasks.Notification, 16),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.toggler = tasks.NewToggler(deps.Store, deps.Remote, tasks.NotifierFunc(func(n tasks.Notification) {
		select {
		case m.notes <- n:
		default:
		}
	}), logger)

	items := make([]list.Item, 0, len(models.CuratedLists)+1)
	for _, c := range models.CuratedLists {
		items = append(items, menuItem{curated: c})
	}
	items = append(items, menuItem{search: true})
	m.menu = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.menu.Title = "Discover"

	m.search = textinput.New()
	m.search.Placeholder = "Movie title"
	m.search.CharLimit = 100

	m.movieList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	return m
}

// Init loads the user's lists and starts listening for toggle progress and notifications.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchLists(), m.waitForProgress(), m.waitForNotification())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-8)
		m.movieList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case MovieListView:
			return m.handleMovieListKeys(msg)
		case DetailsView:
			return m.handleDetailsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListsFetched:
		data := msg.data.(listsFetched)
		if data.err != nil {
			m.logger.Warn("failed to load lists", "err", data.err)
			return m, m.setNotice("Could not load your lists")
		}
		m.store.ReplaceSince(data.lists, data.version)
		return m, m.refreshItems()

	case MsgMoviesFetched:
		data := msg.data.(moviesFetched)
		m.status = ""
		if data.err != nil {
			m.logger.Warn("failed to load movies", "title", data.title, "err", data.err)
			return m, m.setNotice(fmt.Sprintf("Could not load %s", data.title))
		}
		m.page = data.page.Page
		m.totalPages = data.page.TotalPages
		m.movieList.Title = data.title
		m.movieList.SetItems(m.movieItems(data.page.Results))
		m.movieList.Select(0)
		m.view = MovieListView
		return m, nil

	case MsgDetailsFetched:
		data := msg.data.(detailsFetched)
		m.status = ""
		if data.err != nil {
			m.logger.Warn("failed to load details", "err", data.err)
			return m, m.setNotice("Could not load movie details")
		}
		m.details = data.details
		m.view = DetailsView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.status = update.Message
		return m, tea.Batch(m.refreshItems(), m.waitForProgress())

	case MsgToggleSettled:
		res := msg.data.(tasks.ToggleResult)
		if n := m.pending[res.MovieID] - 1; n > 0 {
			m.pending[res.MovieID] = n
		} else {
			delete(m.pending, res.MovieID)
		}
		m.logger.Debug("toggle settled", "movie", res.MovieID, "kind", res.Kind, "outcome", res.Outcome)
		return m, m.refreshItems()

	case MsgNotification:
		n := msg.data.(tasks.Notification)
		return m, tea.Batch(m.setNotice(n.Message), m.waitForNotification())

	case MsgNoticeExpired:
		if seq := msg.data.(int); seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.menu.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		selected, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return m, nil
		}
		if selected.search {
			m.view = SearchView
			m.search.SetValue("")
			return m, m.search.Focus()
		}
		m.source, m.query = selected.curated.ID, ""
		return m, m.fetchPage(1)
	case key.Matches(msg, m.keys.back):
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		m.view = MenuView
		return m, nil
	case tea.KeyEnter:
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			return m, nil
		}
		m.search.Blur()
		m.source, m.query = "", query
		return m, m.fetchPage(1)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleMovieListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.movieList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MenuView
		return m, nil
	case key.Matches(msg, m.keys.watched):
		if movie, ok := m.selectedMovie(); ok {
			return m, m.toggle(tasks.Watched, movie.MovieID())
		}
		return m, nil
	case key.Matches(msg, m.keys.watchlist):
		if movie, ok := m.selectedMovie(); ok {
			return m, m.toggle(tasks.Watchlist, movie.MovieID())
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if movie, ok := m.selectedMovie(); ok {
			return m, m.fetchDetails(movie.MovieID())
		}
		return m, nil
	case key.Matches(msg, m.keys.nextPage):
		if m.page < m.totalPages {
			return m, m.fetchPage(m.page + 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.prevPage):
		if m.page > 1 {
			return m, m.fetchPage(m.page - 1)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleDetailsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MovieListView
		m.details = nil
		return m, nil
	case key.Matches(msg, m.keys.watched):
		return m, m.toggle(tasks.Watched, m.details.MovieID())
	case key.Matches(msg, m.keys.watchlist):
		return m, m.toggle(tasks.Watchlist, m.details.MovieID())
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MenuView:
		m.menu, cmd = m.menu.Update(msg)
	case MovieListView:
		m.movieList, cmd = m.movieList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedMovie() (models.Movie, bool) {
	item, ok := m.movieList.SelectedItem().(movieItem)
	return item.movie, ok
}

func (m *Model) movieItems(movies []models.Movie) []list.Item {
	items := make([]list.Item, len(movies))
	for i, movie := range movies {
		id := movie.MovieID()
		items[i] = movieItem{movie: movie, status: m.store.Status(id), pending: m.pending[id] > 0}
	}
	return items
}

// refreshItems re-reads list status from the store for the visible movies.
func (m *Model) refreshItems() tea.Cmd {
	current := m.movieList.Items()
	if len(current) == 0 {
		return nil
	}

	movies := make([]models.Movie, 0, len(current))
	for _, item := range current {
		if mi, ok := item.(movieItem); ok {
			movies = append(movies, mi.movie)
		}
	}
	idx := m.movieList.Index()
	cmd := m.movieList.SetItems(m.movieItems(movies))
	m.movieList.Select(idx)
	return cmd
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg(seq) })
}

// toggle marks movieID pending immediately and runs the optimistic toggle in the background.
func (m *Model) toggle(kind tasks.ToggleKind, movieID string) tea.Cmd {
	m.pending[movieID]++
	cmd := m.refreshItems()

	run := func() tea.Msg {
		var (
			res tasks.ToggleResult
			err error
		)
		if kind == tasks.Watchlist {
			res, err = m.toggler.ToggleWatchlist(m.ctx, m.progress, movieID)
		} else {
			res, err = m.toggler.ToggleWatched(m.ctx, m.progress, movieID)
		}
		if err != nil {
			return toggleSettledMsg(tasks.ToggleResult{MovieID: movieID, Kind: kind, Outcome: tasks.RolledBack, Err: err})
		}
		return toggleSettledMsg(res)
	}
	return tea.Batch(cmd, run)
}

func (m *Model) fetchLists() tea.Cmd {
	version := m.store.Version()
	return func() tea.Msg {
		lists, err := m.lists.Lists(m.ctx)
		return listsFetchedMsg(lists, version, err)
	}
}

func (m *Model) fetchPage(page int) tea.Cmd {
	source, query := m.source, m.query
	m.status = "Loading…"

	return func() tea.Msg {
		if source == "" {
			p, err := m.movies.Search(m.ctx, query, page)
			return moviesFetchedMsg(fmt.Sprintf("Results for %q", query), p, err)
		}

		title := source
		if c, ok := models.FindCuratedList(source); ok {
			title = c.Name
		}
		p, err := m.movies.Curated(m.ctx, source, page)
		return moviesFetchedMsg(title, p, err)
	}
}

func (m *Model) fetchDetails(movieID string) tea.Cmd {
	m.status = "Loading…"
	return func() tea.Msg {
		d, err := m.movies.Details(m.ctx, movieID)
		return detailsFetchedMsg(d, err)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.progress:
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-m.notes:
			return notificationMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case MenuView:
		body = m.renderMenu()
	case SearchView:
		body = m.renderSearch()
	case MovieListView:
		body = m.renderMovieList()
	case DetailsView:
		body = m.renderDetails()
	}

	var footer []string
	if m.notice != "" {
		footer = append(footer, styles.err.Render("✗ "+m.notice))
	} else if m.status != "" {
		footer = append(footer, styles.help.Render(m.status))
	}
	if len(footer) == 0 {
		return body
	}
	return fmt.Sprintf("%s\n%s", body, strings.Join(footer, "\n"))
}

func (m *Model) renderMenu() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.menu.View(), helpView)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search movies")
	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		m.keys.back,
	})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.search.View(), helpView)
}

func (m *Model) renderMovieList() string {
	pageInfo := styles.help.Render(fmt.Sprintf("page %d of %d", m.page, max(m.totalPages, 1)))
	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.watched, m.keys.watchlist, m.keys.enter, m.keys.nextPage, m.keys.prevPage, m.keys.back, m.keys.quit,
	})
	return fmt.Sprintf("%s\n%s\n\n%s", m.movieList.View(), pageInfo, helpView)
}

func (m *Model) renderDetails() string {
	d := m.details
	if d == nil {
		return ""
	}
	id := d.MovieID()

	var b strings.Builder
	b.WriteString(styles.title.Render(d.Label()))
	b.WriteString("\n")
	if d.Tagline != "" {
		b.WriteString(styles.help.Render(d.Tagline) + "\n")
	}

	facts := []string{}
	if d.Runtime > 0 {
		facts = append(facts, fmt.Sprintf("%d min", d.Runtime))
	}
	if d.VoteAverage > 0 {
		facts = append(facts, fmt.Sprintf("★ %.1f (%d votes)", d.VoteAverage, d.VoteCount))
	}
	if names := genreNames(d.Genres); names != "" {
		facts = append(facts, names)
	}
	if len(facts) > 0 {
		b.WriteString(strings.Join(facts, " • ") + "\n")
	}

	if badges := statusBadges(m.store.Status(id), m.pending[id] > 0); badges != "" {
		b.WriteString(badges + "\n")
	}
	if d.Overview != "" {
		b.WriteString("\n" + d.Overview + "\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.watched, m.keys.watchlist, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

func genreNames(genres []models.Genre) string {
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}
