package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/services"
	"github.com/desertthunder/cinelist/internal/shared"
	"github.com/desertthunder/cinelist/internal/store"
	"github.com/desertthunder/cinelist/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	api        *services.APIService
	lists      *services.ListsService
	filters    *services.FilterService
	movies     *services.MovieService
	exporter   *tasks.Exporter
	store      *store.ListStatusStore
	logger     *log.Logger
	output     io.Writer

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Store      *store.ListStatusStore
	DB         *sql.DB // opened lazily from Config.Database when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = services.NewHTTPClient(opts.Config.API)
	}
	if opts.Store == nil {
		opts.Store = store.New(nil)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.DB != nil {
		r.dbOnce.Do(func() { r.db = opts.DB })
	}
	r.wire()
	return r
}

// wire (re)builds the services around the current logger.
func (r *Runner) wire() {
	client := services.NewClient(r.config.API.BaseURL, r.httpClient)
	r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient)
	r.lists = services.NewListsService(client)
	r.filters = services.NewFilterService(client)
	r.movies = services.NewMovieService(client, r.config.API.RateLimit, shared.WithLogger(r.logger, "service", "movies"))
	r.exporter = tasks.NewExporter(r.movies, shared.WithLogger(r.logger, "task", "export"))
}

// SetLogger replaces the runner's logger and the loggers of its services.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

// Close releases the cache database if it was opened.
func (r *Runner) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// cache returns the SQLite cache, opening and migrating it on first use.
func (r *Runner) cache() (*sql.DB, error) {
	r.dbOnce.Do(func() {
		r.db, r.dbErr = shared.OpenCache(r.config.Database)
	})
	return r.db, r.dbErr
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, listsCommand, watchedCommand, watchlistCommand, statusCommand,
		filtersCommand, moviesCommand, apiCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
