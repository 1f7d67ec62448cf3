package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cinelist/internal/formatter"
	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// MovieFetcher looks up movie metadata for list items.
type MovieFetcher interface {
	Details(ctx context.Context, movieID string) (*models.MovieDetails, error)
}

// BulkExportOpts contains configuration for bulk list exports.
type BulkExportOpts struct {
	Format     string                   // Export format: json, csv, markdown, txt
	OutputDir  string                   // Base output directory (default: cinelist_export_{epoch})
	NumWorkers int                      // Concurrent workers (default: 3)
	RateLimit  float64                  // Metadata requests per second (default: 5)
	Enrich     bool                     // Fetch movie metadata for every item
	PosterURL  func(path string) string // Builds the cover image URL for markdown exports
}

// ListExportResult is the outcome of exporting one list.
type ListExportResult struct {
	ListID   string   `json:"list_id"`
	ListName string   `json:"list_name"`
	Success  bool     `json:"success"`
	Files    []string `json:"files"`
	Missing  int      `json:"missing_metadata,omitempty"`
	Error    error    `json:"-"`
	ErrorMsg string   `json:"error,omitempty"`

	index int
}

// BulkExportResult summarizes a bulk export and is written as the export manifest.
type BulkExportResult struct {
	ExportedAt        time.Time          `json:"exported_at"`
	Format            string             `json:"format"`
	TotalLists        int                `json:"total_lists"`
	SuccessfulExports int                `json:"successful_exports"`
	FailedExports     int                `json:"failed_exports"`
	OutputDirectory   string             `json:"output_directory"`
	ManifestPath      string             `json:"-"`
	Results           []ListExportResult `json:"results"`
}

// Exporter writes personal lists to disk, optionally enriched with movie metadata.
type Exporter struct {
	movies MovieFetcher
	logger *log.Logger
}

// NewExporter creates an Exporter. movies may be nil when no enrichment is needed.
func NewExporter(movies MovieFetcher, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{movies: movies, logger: logger}
}

// Enrich builds a [formatter.ListExport] for l, fetching metadata for each item.
//
// Lookups that fail leave the entry without metadata; the count of such entries is returned.
func (e *Exporter) Enrich(ctx context.Context, prog chan<- ProgressUpdate, l models.List, limiter *rate.Limiter) (*formatter.ListExport, int) {
	export := formatter.NewListExport(l)
	if e.movies == nil {
		return export, len(export.Entries)
	}

	missing := 0
	for i := range export.Entries {
		movieID := export.Entries[i].Item.MovieID
		sendProgress(prog, fetchingMovieUpdate(i+1, len(export.Entries), movieID))

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				missing += len(export.Entries) - i
				break
			}
		}

		details, err := e.movies.Details(ctx, movieID)
		if err != nil {
			e.logger.Warn("movie metadata unavailable", "list", l.Name, "movie", movieID, "err", err)
			missing++
			continue
		}
		movie := details.Movie
		export.Entries[i].Movie = &movie
	}
	return export, missing
}

// BulkExport exports lists concurrently with rate-limited metadata lookups and writes a manifest
// summarizing the results.
//
// Partial failures are reported per list; the returned error is reserved for setup and manifest failures.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, lists []models.List, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !validFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("cinelist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		ExportedAt:      time.Now().UTC(),
		Format:          opts.Format,
		TotalLists:      len(lists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ListExportResult, 0, len(lists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	type job struct {
		index int
		list  models.List
	}
	jobs := make(chan job, len(lists))
	results := make(chan ListExportResult, len(lists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					results <- ListExportResult{ListID: j.list.ID, ListName: j.list.Name, Error: ctx.Err(), index: j.index}
					continue
				}
				res := e.exportList(ctx, prog, j.list, limiter, opts)
				res.index = j.index
				results <- res
			}
		}()
	}

	for i, l := range lists {
		sendProgress(prog, exportingListUpdate(i+1, len(lists), l.Name))
		jobs <- job{index: i, list: l}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(lists), res.ListName, len(res.Files)))
		} else {
			result.FailedExports++
			res.ErrorMsg = res.Error.Error()
			sendProgress(prog, exportFailedUpdate(completed, len(lists), res.ListName, res.Error))
		}
		result.Results = append(result.Results, res)
	}
	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].index < result.Results[j].index })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err == nil {
		err = os.WriteFile(manifestPath, data, 0644)
	}
	if err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportList writes a single list in the requested format.
func (e *Exporter) exportList(ctx context.Context, prog chan<- ProgressUpdate, l models.List, limiter *rate.Limiter, opts BulkExportOpts) ListExportResult {
	result := ListExportResult{ListID: l.ID, ListName: l.Name, Files: []string{}}

	var export *formatter.ListExport
	if opts.Enrich {
		export, result.Missing = e.Enrich(ctx, prog, l, limiter)
	} else {
		export = formatter.NewListExport(l)
	}

	base := filepath.Join(opts.OutputDir, fileBase(l))

	switch opts.Format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.ItemsFile, csvRes.MetadataFile}
	case formatter.FormatMarkdown:
		mdRes, err := formatter.WriteMarkdownExport(export, base, coverURL(export, opts.PosterURL))
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
	case formatter.FormatText:
		path, err := formatter.WriteTextExport(export, base+"_movies.txt")
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	default:
		path, err := formatter.WriteJSONExport(export, base+".json")
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

// coverURL picks the poster of the first entry with metadata.
func coverURL(export *formatter.ListExport, posterURL func(string) string) string {
	if posterURL == nil {
		return ""
	}
	for _, entry := range export.Entries {
		if entry.Movie != nil && entry.Movie.PosterPath != "" {
			return posterURL(entry.Movie.PosterPath)
		}
	}
	return ""
}

func fileBase(l models.List) string {
	if slug := shared.Slugify(l.Name); slug != "" {
		return slug
	}
	return l.ID
}

func validFormat(format string) bool {
	for _, f := range formatter.Formats {
		if f == format {
			return true
		}
	}
	return false
}
