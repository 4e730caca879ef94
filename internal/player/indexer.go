package player

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/msrv/internal/models"
	"github.com/desertthunder/msrv/internal/shared"
)

// ArtworkWriter stores indexed artwork.
type ArtworkWriter interface {
	Upsert(art *models.Artwork) error
}

// RunRecorder records indexer runs.
type RunRecorder interface {
	Start(root string) (*models.ScanRun, error)
	Finish(run *models.ScanRun, indexed int) error
}

// Indexer walks library roots laid out as Artist/Album/<image> and stores the artwork it finds.
type Indexer struct {
	Store        ArtworkWriter
	Runs         RunRecorder // Runs may be nil
	ArtworkNames []string
	Logger       *log.Logger
}

// Index walks root and returns the number of album directories indexed.
//
// Directories directly under root are treated as artists; anything deeper takes the
// first segment as artist and the directory name as album.
func (ix *Indexer) Index(ctx context.Context, root string) (int, error) {
	logger := ix.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	root = filepath.Clean(root)

	var run *models.ScanRun
	if ix.Runs != nil {
		r, err := ix.Runs.Start(root)
		if err != nil {
			return 0, err
		}
		run = r
	}

	indexed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}

		image := FindArtwork(path, ix.ArtworkNames)
		if image == "" {
			return nil
		}

		artist, album := albumFromPath(root, path)
		if err := ix.Store.Upsert(models.NewArtwork(artist, album, image)); err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		logger.Debug("indexed artwork", "artist", artist, "album", album, "path", image)
		indexed++
		return nil
	})

	if run != nil {
		if ferr := ix.Runs.Finish(run, indexed); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return indexed, err
	}

	logger.Info("library indexed", "root", root, "albums", indexed)
	return indexed, nil
}

func albumFromPath(root, dir string) (artist, album string) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", filepath.Base(dir)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}
