// package formatter renders the artwork index as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/msrv/internal/models"
)

// Format names an export format accepted by [Export].
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "text"
)

// ParseFormat maps a user supplied name onto a [Format].
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "", "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// Export renders artwork in the given format.
func Export(format Format, artwork []*models.Artwork) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(artwork)
	case FormatMarkdown:
		return ExportToMarkdown(artwork)
	case FormatText:
		return ExportToText(artwork)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ExportToCSV converts artwork records to CSV format with columns: ID, Artist, Album, Directory, Path, Updated
func ExportToCSV(artwork []*models.Artwork) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Artist", "Album", "Directory", "Path", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, art := range artwork {
		record := []string{
			art.ID(),
			art.Artist(),
			art.Album(),
			art.Directory(),
			art.Path(),
			formatTime(art.UpdatedAt()),
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

// ExportToMarkdown converts artwork records to a Markdown catalog grouped by artist
func ExportToMarkdown(artwork []*models.Artwork) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Artwork Index\n\n")
	buf.WriteString(fmt.Sprintf("**Albums**: %d\n\n", len(artwork)))

	current := ""
	for i, art := range artwork {
		artist := art.Artist()
		if artist == "" {
			artist = "Unknown Artist"
		}
		if i == 0 || artist != current {
			buf.WriteString(fmt.Sprintf("## %s\n\n", artist))
			current = artist
		}
		buf.WriteString(fmt.Sprintf("- %s: `%s`\n", albumTitle(art), art.Path()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts artwork records to plain text format
func ExportToText(artwork []*models.Artwork) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Albums: %d\n\n", len(artwork)))
	for i, art := range artwork {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n   %s\n", i+1, art.Artist(), albumTitle(art), art.Path()))
	}

	return buf.Bytes(), nil
}

// WriteExport renders artwork and writes it to path.
func WriteExport(format Format, artwork []*models.Artwork, path string) error {
	data, err := Export(format, artwork)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func albumTitle(art *models.Artwork) string {
	if art.Album() == "" {
		return "(untitled)"
	}
	return art.Album()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
