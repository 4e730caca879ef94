package formatter

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/msrv/internal/models"
	tu "github.com/desertthunder/msrv/internal/testing"
)

func fixture() []*models.Artwork {
	first := models.NewArtwork("Artist One", "Album One", "/music/Artist One/Album One/cover.jpg")
	first.SetID("art1")
	first.SetUpdatedAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	second := models.NewArtwork("Artist One", "", "/music/Artist One/Singles/folder.png")
	second.SetID("art2")

	third := models.NewArtwork("Artist Two", "Album Two", "/music/Artist Two/Album Two/front.jpg")
	third.SetID("art3")

	return []*models.Artwork{first, second, third}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixture())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.HasPrefix(output, "ID,Artist,Album,Directory,Path,Updated\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "art1,Artist One,Album One,/music/Artist One/Album One,") {
			t.Errorf("CSV missing art1 record, got: %s", output)
		}
		if !strings.Contains(output, "2024-03-01T12:00:00Z") {
			t.Errorf("CSV missing updated timestamp")
		}
		if lines := strings.Count(output, "\n"); lines != 4 {
			t.Errorf("expected 4 lines, got %d", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(fixture())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Artwork Index") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Albums**: 3") {
			t.Errorf("Markdown missing album count")
		}
		if n := strings.Count(output, "## Artist One"); n != 1 {
			t.Errorf("expected one Artist One heading, got %d", n)
		}
		if !strings.Contains(output, "- (untitled): `/music/Artist One/Singles/folder.png`") {
			t.Errorf("Markdown missing untitled entry, got: %s", output)
		}
		if !strings.Contains(output, "## Artist Two") {
			t.Errorf("Markdown missing Artist Two heading")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(fixture())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Albums: 3") {
			t.Errorf("Text missing album count")
		}
		if !strings.Contains(output, "1. Artist One - Album One") {
			t.Errorf("Text missing first entry, got: %s", output)
		}
		if !strings.Contains(output, "3. Artist Two - Album Two") {
			t.Errorf("Text missing third entry")
		}
	})

	t.Run("empty index", func(t *testing.T) {
		data, err := ExportToMarkdown(nil)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "**Albums**: 0") {
			t.Errorf("unexpected output: %s", data)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"", FormatText, false},
		{"txt", FormatText, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.csv")

		if err := WriteExport(FormatCSV, fixture(), path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "art3") {
			t.Errorf("export file missing art3")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.xml")
		if err := WriteExport(Format("xml"), fixture(), path); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
