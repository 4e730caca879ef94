// package models defines the persistent data model of the artwork index
package models

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/msrv/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Artwork is an indexed cover image for one album directory.
type Artwork struct {
	id        string
	artist    string
	album     string
	directory string
	path      string
	createdAt time.Time
	updatedAt time.Time
}

// NewArtwork creates an unsaved artwork entry for the image at path.
//
// The album directory is the directory containing path.
func NewArtwork(artist, album, path string) *Artwork {
	now := time.Now().UTC()
	return &Artwork{
		artist:    artist,
		album:     album,
		directory: filepath.Dir(path),
		path:      path,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *Artwork) ID() string { return a.id }
func (a *Artwork) Artist() string { return a.artist }
func (a *Artwork) Album() string { return a.album }
func (a *Artwork) Directory() string { return a.directory }
func (a *Artwork) Path() string { return a.path }
func (a *Artwork) CreatedAt() time.Time { return a.createdAt }
func (a *Artwork) UpdatedAt() time.Time { return a.updatedAt }

// AlbumKey is the normalized artist|album lookup key.
func (a *Artwork) AlbumKey() string {
	return shared.NormalizeAlbumKey(a.artist, a.album)
}

func (a *Artwork) SetID(id string) { a.id = id }
func (a *Artwork) SetCreatedAt(t time.Time) { a.createdAt = t }
func (a *Artwork) SetUpdatedAt(t time.Time) { a.updatedAt = t }
func (a *Artwork) SetDirectory(dir string) { a.directory = dir }

// Validate requires an absolute image path and at least one of artist or album.
func (a *Artwork) Validate() error {
	if a.path == "" || !filepath.IsAbs(a.path) {
		return fmt.Errorf("%w: artwork path must be absolute", shared.ErrInvalidInput)
	}
	if a.artist == "" && a.album == "" {
		return fmt.Errorf("%w: artwork needs an artist or album", shared.ErrInvalidInput)
	}
	return nil
}

// ScanRun records one pass of the library indexer over a root.
type ScanRun struct {
	ID         string
	Root       string
	Indexed    int
	StartedAt  time.Time
	FinishedAt *time.Time
}
