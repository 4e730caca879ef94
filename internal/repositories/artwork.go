package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/msrv/internal/models"
	"github.com/desertthunder/msrv/internal/shared"
)

const artworkColumns = `id, artist, album, directory, path, created_at, updated_at`

// ArtworkRepository persists the artwork index in SQLite.
//
// Entries are unique by normalized artist|album; upserting an existing album replaces its path.
type ArtworkRepository struct {
	db *sql.DB
}

// NewArtworkRepository creates a new [ArtworkRepository] with the given database connection
func NewArtworkRepository(db *sql.DB) *ArtworkRepository {
	return &ArtworkRepository{db: db}
}

// Upsert inserts art or replaces the entry with the same album key. The stored ID is written back to art.
func (r *ArtworkRepository) Upsert(art *models.Artwork) error {
	if err := art.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := art.ID()
	if id == "" {
		id = shared.GenerateID()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO artwork (id, artist, album, album_key, directory, path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(album_key) DO UPDATE SET
			artist = excluded.artist,
			album = excluded.album,
			directory = excluded.directory,
			path = excluded.path,
			updated_at = excluded.updated_at
		RETURNING id
	`

	var stored string
	err := r.db.QueryRow(query, id, art.Artist(), art.Album(), art.AlbumKey(), art.Directory(), art.Path(), art.CreatedAt(), now).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to upsert artwork: %w", err)
	}

	art.SetID(stored)
	art.SetUpdatedAt(now)
	return nil
}

// Get retrieves an entry by ID.
func (r *ArtworkRepository) Get(id string) (*models.Artwork, error) {
	row := r.db.QueryRow(`SELECT `+artworkColumns+` FROM artwork WHERE id = ?`, id)
	return scanArtwork(row)
}

// GetByAlbum retrieves the entry for artist and album, compared by normalized key.
func (r *ArtworkRepository) GetByAlbum(artist, album string) (*models.Artwork, error) {
	row := r.db.QueryRow(`SELECT `+artworkColumns+` FROM artwork WHERE album_key = ?`, shared.NormalizeAlbumKey(artist, album))
	return scanArtwork(row)
}

// GetByDirectory retrieves the most recently updated entry for an album directory.
func (r *ArtworkRepository) GetByDirectory(dir string) (*models.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artwork WHERE directory = ? ORDER BY updated_at DESC LIMIT 1`
	row := r.db.QueryRow(query, filepath.Clean(dir))
	return scanArtwork(row)
}

// List retrieves entries matching the given criteria ordered by album key.
//
// Supported criteria: "artist" (exact), "directory" (exact) and "limit" (int).
func (r *ArtworkRepository) List(criteria map[string]any) ([]*models.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artwork WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if dir, ok := criteria["directory"].(string); ok && dir != "" {
		query += " AND directory = ?"
		args = append(args, filepath.Clean(dir))
	}

	query += " ORDER BY album_key ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artwork: %w", err)
	}
	defer rows.Close()

	var entries []*models.Artwork
	for rows.Next() {
		art, err := scanArtwork(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, art)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Delete removes an entry by ID.
func (r *ArtworkRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM artwork WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete artwork: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrArtworkNotFound, id)
	}

	return nil
}

// Count returns the number of indexed entries.
func (r *ArtworkRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM artwork`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count artwork: %w", err)
	}
	return n, nil
}

func scanArtwork(row rowScanner) (*models.Artwork, error) {
	var (
		id        string
		artist    string
		album     string
		directory string
		path      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &artist, &album, &directory, &path, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrArtworkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artwork: %w", err)
	}

	art := models.NewArtwork(artist, album, path)
	art.SetID(id)
	art.SetDirectory(directory)
	art.SetCreatedAt(createdAt)
	art.SetUpdatedAt(updatedAt)
	return art, nil
}
