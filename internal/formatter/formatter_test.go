package formatter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
	th "github.com/desertthunder/cinelist/internal/testing"
)

func sampleExport() *ListExport {
	added := models.Timestamp{Time: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}
	export := NewListExport(models.List{
		ID:          "list-1",
		Name:        "Late Night Noir",
		Description: "Shadows and rain",
		Items: []models.ListItem{
			{MovieID: "42", Notes: "rewatch", AddedAt: added},
			{MovieID: "7"},
		},
	})
	export.Entries[0].Movie = &models.Movie{ID: 42, Title: "The Answer", ReleaseDate: "1999-05-01", VoteAverage: 8.3}
	return export
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Position,Movie ID,Title,Year,Rating,Added,Notes") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,42,The Answer,1999,8.3,2024-03-09,rewatch") {
			t.Errorf("CSV missing enriched row, got: %s", output)
		}
		if !strings.Contains(output, "2,7,,,,,") {
			t.Errorf("CSV missing bare row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Late Night Noir") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(output, "**Description**: Shadows and rain") {
				t.Errorf("Markdown missing description")
			}
			if !strings.Contains(output, "**Movies**: 2") {
				t.Errorf("Markdown missing movie count")
			}
			if !strings.Contains(output, "**Type**: custom") {
				t.Errorf("Markdown missing list type")
			}
			if !strings.Contains(output, "1. The Answer (1999) ★ 8.3 [added 2024-03-09]") {
				t.Errorf("Markdown missing first entry, got: %s", output)
			}
			if !strings.Contains(output, "   > rewatch") {
				t.Errorf("Markdown missing notes")
			}
			if !strings.Contains(output, "2. Movie 7") {
				t.Errorf("Markdown missing placeholder entry, got: %s", output)
			}
			if strings.Contains(output, "![Cover]") {
				t.Errorf("Markdown should not reference a cover")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		lines := strings.Split(string(data), "\n")
		if lines[0] != "List: Late Night Noir" {
			t.Errorf("unexpected first line %q", lines[0])
		}
		if !strings.Contains(string(data), "Movies: 2") {
			t.Errorf("Text missing movie count")
		}
		if !strings.Contains(string(data), "1. The Answer (1999)") {
			t.Errorf("Text missing first entry")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport().List)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{`"id": "list-1"`, `"name": "Late Night Noir"`, `"is_default": false`, `"item_count": 2`} {
			if !strings.Contains(output, want) {
				t.Errorf("metadata missing %s, got: %s", want, output)
			}
		}
		if strings.Contains(output, "rewatch") {
			t.Errorf("metadata should not include items")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{`"list-1"`, `"The Answer"`, `"movie_id": "42"`, `"rewatch"`} {
			if !strings.Contains(output, want) {
				t.Errorf("JSON missing %s", want)
			}
		}
	})

	t.Run("Export", func(t *testing.T) {
		for _, format := range []string{FormatCSV, FormatMarkdown, "md", FormatText, "text", FormatJSON, ""} {
			if _, err := Export(sampleExport(), format); err != nil {
				t.Errorf("format %q failed: %v", format, err)
			}
		}

		if _, err := Export(sampleExport(), "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		data, err := DownloadImage(server.URL)
		if err != nil || string(data) != "jpeg" {
			t.Errorf("unexpected result %q, %v", data, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.ItemsFile != "list-1_movies.csv" {
				t.Errorf("Expected items file 'list-1_movies.csv', got '%s'", result.ItemsFile)
			}
			if result.MetadataFile != "list-1_metadata.json" {
				t.Errorf("Expected metadata file 'list-1_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.ItemsFile)
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom_export")

			result, err := WriteCSVExport(sampleExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.ItemsFile != base+"_movies.csv" {
				t.Errorf("unexpected items file %s", result.ItemsFile)
			}
			th.AssertFileExists(t, result.ItemsFile)
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("UnnamedListUsesSlug", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(NewListExport(models.List{Name: "Best of 1999!"}), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.ItemsFile != "best-of-1999_movies.csv" {
				t.Errorf("unexpected items file %s", result.ItemsFile)
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithoutCover", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "noir")

			result, err := WriteMarkdownExport(sampleExport(), dir, "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, result.Directory)
			if len(result.Files) != 1 || result.CoverImage != "" {
				t.Errorf("expected only README.md, got %v", result.Files)
			}
			th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		})

		t.Run("WithCover", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("jpeg"))
			}))
			defer server.Close()

			dir := filepath.Join(t.TempDir(), "noir")
			result, err := WriteMarkdownExport(sampleExport(), dir, server.URL+"/poster.jpg")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.CoverImage != filepath.Join(dir, "cover.jpg") {
				t.Errorf("unexpected cover path %s", result.CoverImage)
			}
			readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(readme, "![Cover](cover.jpg)") {
				t.Errorf("README missing cover reference")
			}
		})

		t.Run("CoverFailureIsIgnored", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			defer server.Close()

			result, err := WriteMarkdownExport(sampleExport(), t.TempDir(), server.URL)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.CoverImage != "" {
				t.Errorf("expected no cover, got %s", result.CoverImage)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "noir.txt")

		got, err := WriteTextExport(sampleExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "List: Late Night Noir") {
			t.Errorf("unexpected text export")
		}
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		got, err := WriteJSONExport(sampleExport(), "")
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		if got != "list-1.json" {
			t.Errorf("expected list-1.json, got %s", got)
		}
		th.AssertFileExists(t, got)
	})
}
