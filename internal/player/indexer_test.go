package player

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/desertthunder/msrv/internal/repositories"
	"github.com/desertthunder/msrv/internal/shared"
)

func TestIndexer(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	root := t.TempDir()
	touch(t, filepath.Join(root, "Foo", "Bar", "cover.jpg"))
	touch(t, filepath.Join(root, "Foo", "Baz", "Disc 1", "folder.png"))
	touch(t, filepath.Join(root, "Foo", "NoArt", "track.flac"))
	touch(t, filepath.Join(root, "Solo", "cover.jpg"))

	artwork := repositories.NewArtworkRepository(db)
	runs := repositories.NewScanRunRepository(db)
	ix := &Indexer{Store: artwork, Runs: runs, ArtworkNames: testNames, Logger: shared.NewLogger(io.Discard)}

	n, err := ix.Index(context.Background(), root)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 indexed albums, got %d", n)
	}

	t.Run("AlbumLookup", func(t *testing.T) {
		art, err := artwork.GetByAlbum("foo", "bar")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if art.Path() != filepath.Join(root, "Foo", "Bar", "cover.jpg") {
			t.Errorf("path = %s", art.Path())
		}
	})

	t.Run("NestedUsesLeafAsAlbum", func(t *testing.T) {
		if _, err := artwork.GetByAlbum("Foo", "Disc 1"); err != nil {
			t.Errorf("get: %v", err)
		}
	})

	t.Run("ArtistOnly", func(t *testing.T) {
		if _, err := artwork.GetByAlbum("Solo", ""); err != nil {
			t.Errorf("get: %v", err)
		}
	})

	t.Run("RunRecorded", func(t *testing.T) {
		run, err := runs.Latest(root)
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if run.Indexed != 3 || run.FinishedAt == nil {
			t.Errorf("unexpected run: %+v", run)
		}
	})

	t.Run("Reindex", func(t *testing.T) {
		if _, err := ix.Index(context.Background(), root); err != nil {
			t.Fatalf("reindex: %v", err)
		}
		if count, _ := artwork.Count(); count != 3 {
			t.Errorf("reindex duplicated entries: %d", count)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := ix.Index(ctx, root); err == nil {
			t.Error("expected context error")
		}
	})
}
