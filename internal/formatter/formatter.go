// package formatter exports personal lists to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists every supported export format.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ExportEntry is a list item with its movie metadata when it could be fetched.
type ExportEntry struct {
	Item  models.ListItem `json:"item"`
	Movie *models.Movie   `json:"movie,omitempty"`
}

// Title returns the movie label or a placeholder built from the movie id.
func (e ExportEntry) Title() string {
	if e.Movie != nil && e.Movie.Title != "" {
		return e.Movie.Label()
	}
	return "Movie " + e.Item.MovieID
}

// ListExport is a list with its entries in list order.
type ListExport struct {
	List    models.List   `json:"list"`
	Entries []ExportEntry `json:"entries"`
}

// NewListExport builds an export with no movie metadata.
func NewListExport(l models.List) *ListExport {
	entries := make([]ExportEntry, len(l.Items))
	for i, item := range l.Items {
		entries[i] = ExportEntry{Item: item}
	}
	return &ListExport{List: l, Entries: entries}
}

// ExportToCSV converts a ListExport to CSV format with columns: Position, Movie ID, Title, Year, Rating, Added, Notes
func ExportToCSV(export *ListExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Movie ID", "Title", "Year", "Rating", "Added", "Notes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, entry := range export.Entries {
		var title, year, rating string
		if m := entry.Movie; m != nil {
			title = m.Title
			year = m.Year()
			rating = strconv.FormatFloat(m.VoteAverage, 'f', 1, 64)
		}
		record := []string{
			strconv.Itoa(i + 1),
			entry.Item.MovieID,
			title,
			year,
			rating,
			formatAdded(entry.Item.AddedAt),
			entry.Item.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ListExport to Markdown format with an optional cover image
func ExportToMarkdown(export *ListExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.List.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if export.List.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.List.Description))
	}

	buf.WriteString(fmt.Sprintf("**Movies**: %d\n", len(export.Entries)))
	buf.WriteString(fmt.Sprintf("**Type**: %s\n\n", listKind(export.List)))

	buf.WriteString("## Movies\n\n")
	for i, entry := range export.Entries {
		line := fmt.Sprintf("%d. %s", i+1, entry.Title())
		if entry.Movie != nil && entry.Movie.VoteAverage > 0 {
			line += fmt.Sprintf(" ★ %.1f", entry.Movie.VoteAverage)
		}
		if added := formatAdded(entry.Item.AddedAt); added != "" {
			line += fmt.Sprintf(" [added %s]", added)
		}
		buf.WriteString(line + "\n")
		if entry.Item.Notes != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", entry.Item.Notes))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ListExport to plain text format
func ExportToText(export *ListExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("List: %s\n", export.List.Name))
	if export.List.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.List.Description))
	}
	buf.WriteString(fmt.Sprintf("Movies: %d\n\n", len(export.Entries)))

	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry.Title()))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ListExport to indented JSON
func ExportToJSON(export *ListExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Export renders export in the named format.
func Export(export *ListExport, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export, "")
	case FormatText, "text":
		return ExportToText(export)
	case FormatJSON, "":
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidArgument, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of list metadata (without items)
func ToMetadataJSON(l models.List) ([]byte, error) {
	meta := struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		IsDefault   bool   `json:"is_default"`
		ItemCount   int    `json:"item_count"`
	}{l.ID, l.Name, l.Description, l.IsDefault, len(l.Items)}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport exports a list to CSV format with accompanying metadata JSON file.
//
// Defaults to the list ID as the base filename & creates {base}_movies.csv and {base}_metadata.json
func WriteCSVExport(export *ListExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = baseName(export.List)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_movies.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.List)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		ItemsFile:    itemsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a list to Markdown format in a dedicated directory.
//
// Directory name defaults to the list ID.
// The imageURL parameter is optional; when set, the poster is downloaded as {dir}/cover.jpg.
func WriteMarkdownExport(export *ListExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = baseName(export.List)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		if imageData, err := DownloadImage(imageURL); err == nil {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a list to plain text format.
//
// Defaults to {list.ID}_movies.txt as the filename.
func WriteTextExport(export *ListExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_movies.txt", baseName(export.List))
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a list to an indented JSON file.
//
// Defaults to {list.ID}.json as the filename.
func WriteJSONExport(export *ListExport, path string) (string, error) {
	if path == "" {
		path = baseName(export.List) + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}

	return path, nil
}

func baseName(l models.List) string {
	if l.ID != "" {
		return l.ID
	}
	return shared.Slugify(l.Name)
}

func listKind(l models.List) string {
	if l.IsDefault {
		return "default"
	}
	return "custom"
}

func formatAdded(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format("2006-01-02")
}
