// package contenttype maps file extensions to the content types sent with file responses
package contenttype

import (
	"path/filepath"
	"strings"
)

// Default is returned for extensions the map does not know.
const Default = "application/octet-stream"

var builtin = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".wv":   "audio/x-wavpack",
	".ape":  "audio/x-ape",
	".m3u":  "audio/x-mpegurl",
	".m3u8": "application/vnd.apple.mpegurl",
	".cue":  "application/x-cue",
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
}

// Lookup resolves the content type of a file path.
type Lookup interface {
	Get(path string) string
}

// Map is a read-only extension table. It is safe for concurrent use.
type Map struct {
	types map[string]string
}

// New builds a map from the built-in table plus overrides keyed by extension.
//
// Override keys are matched case-insensitively and may omit the leading dot.
func New(overrides map[string]string) *Map {
	types := make(map[string]string, len(builtin)+len(overrides))
	for ext, ct := range builtin {
		types[ext] = ct
	}
	for ext, ct := range overrides {
		if ct == "" {
			continue
		}
		types[normalizeExt(ext)] = ct
	}
	return &Map{types: types}
}

// Get returns the content type for path's extension, or [Default].
func (m *Map) Get(path string) string {
	if ct, ok := m.types[normalizeExt(filepath.Ext(path))]; ok {
		return ct
	}
	return Default
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
