package player

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/models"
	"github.com/desertthunder/msrv/internal/shared"
)

var testNames = []string{"cover.jpg", "folder.png"}

type fakeStore struct {
	byAlbum map[string]string
	byDir   map[string]string
	err     error
	calls   atomic.Int32
	block   chan struct{}
	entered chan struct{}
}

func (s *fakeStore) GetByAlbum(artist, album string) (*models.Artwork, error) {
	return s.get(s.byAlbum, shared.NormalizeAlbumKey(artist, album), artist, album)
}

func (s *fakeStore) GetByDirectory(dir string) (*models.Artwork, error) {
	return s.get(s.byDir, dir, "x", "y")
}

func (s *fakeStore) get(m map[string]string, key, artist, album string) (*models.Artwork, error) {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	if path, ok := m[key]; ok {
		return models.NewArtwork(artist, album, path), nil
	}
	return nil, shared.ErrArtworkNotFound
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}
}

func await(t *testing.T, f *async.Future[ArtworkResult]) (ArtworkResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return async.Await(ctx, f)
}

func newTestLibrary(t *testing.T, store ArtworkStore, workers, queue int) *Library {
	t.Helper()
	l := NewLibrary(LibraryOpts{
		Store:        store,
		ArtworkNames: testNames,
		Workers:      workers,
		Queue:        queue,
		Logger:       shared.NewLogger(io.Discard),
	})
	t.Cleanup(l.Close)
	return l
}

func TestFindArtwork(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "FOLDER.PNG"))
	touch(t, filepath.Join(dir, "Cover.jpg"))
	if err := os.Mkdir(filepath.Join(dir, "cover.JPG.d"), 0755); err != nil {
		t.Fatal(err)
	}

	if got := FindArtwork(dir, testNames); got != filepath.Join(dir, "Cover.jpg") {
		t.Errorf("got %q", got)
	}
	if got := FindArtwork(dir, []string{"folder.png"}); got != filepath.Join(dir, "FOLDER.PNG") {
		t.Errorf("got %q", got)
	}
	if got := FindArtwork(dir, []string{"front.jpg"}); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
	if got := FindArtwork(filepath.Join(dir, "missing"), testNames); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}

func TestLibrary(t *testing.T) {
	t.Run("ByFileSibling", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "01 - Song.flac"))
		touch(t, filepath.Join(dir, "cover.jpg"))

		store := &fakeStore{}
		l := newTestLibrary(t, store, 1, 4)

		res, err := await(t, l.FetchArtwork(ArtworkQuery{File: filepath.Join(dir, "01 - Song.flac")}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Path != filepath.Join(dir, "cover.jpg") {
			t.Errorf("path = %q", res.Path)
		}
		if store.calls.Load() != 0 {
			t.Error("index consulted although the file system had artwork")
		}
	})

	t.Run("ByDirectory", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "folder.png"))

		l := newTestLibrary(t, nil, 1, 4)

		res, err := await(t, l.FetchArtwork(ArtworkQuery{File: dir}))
		if err != nil || res.Path != filepath.Join(dir, "folder.png") {
			t.Errorf("got %+v, %v", res, err)
		}
	})

	t.Run("FallsBackToIndexByDirectory", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "track.mp3"))

		store := &fakeStore{byDir: map[string]string{dir: "/elsewhere/cover.jpg"}}
		l := newTestLibrary(t, store, 1, 4)

		res, err := await(t, l.FetchArtwork(ArtworkQuery{File: filepath.Join(dir, "track.mp3")}))
		if err != nil || res.Path != "/elsewhere/cover.jpg" {
			t.Errorf("got %+v, %v", res, err)
		}
	})

	t.Run("ByAlbum", func(t *testing.T) {
		store := &fakeStore{byAlbum: map[string]string{"foo|bar": "/music/Foo/Bar/cover.jpg"}}
		l := newTestLibrary(t, store, 2, 4)

		res, err := await(t, l.FetchArtwork(ArtworkQuery{Artist: "Foo", Album: "Bar"}))
		if err != nil || res.Path != "/music/Foo/Bar/cover.jpg" {
			t.Errorf("got %+v, %v", res, err)
		}
	})

	t.Run("NotFoundIsEmpty", func(t *testing.T) {
		l := newTestLibrary(t, &fakeStore{}, 1, 4)

		for _, q := range []ArtworkQuery{{Artist: "No", Album: "Body"}, {}} {
			res, err := await(t, l.FetchArtwork(q))
			if err != nil || res.Path != "" {
				t.Errorf("%+v: got %+v, %v", q, res, err)
			}
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		l := newTestLibrary(t, &fakeStore{err: errors.New("disk I/O error")}, 1, 4)

		_, err := await(t, l.FetchArtwork(ArtworkQuery{Artist: "Foo", Album: "Bar"}))
		if !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend, got %v", err)
		}
	})

	t.Run("QueueFull", func(t *testing.T) {
		store := &fakeStore{block: make(chan struct{}), entered: make(chan struct{}, 1)}
		l := newTestLibrary(t, store, 1, 1)
		defer close(store.block)

		first := l.FetchArtwork(ArtworkQuery{Artist: "a", Album: "1"})
		<-store.entered
		second := l.FetchArtwork(ArtworkQuery{Artist: "a", Album: "2"})
		third := l.FetchArtwork(ArtworkQuery{Artist: "a", Album: "3"})

		if first.Done() || second.Done() {
			t.Error("queued lookups completed early")
		}
		if _, err := await(t, third); !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend for overflow, got %v", err)
		}
	})

	t.Run("CloseDrains", func(t *testing.T) {
		store := &fakeStore{byAlbum: map[string]string{"a|b": "/m/a/b/cover.jpg"}}
		l := NewLibrary(LibraryOpts{Store: store, Workers: 1, Queue: 8, Logger: shared.NewLogger(io.Discard)})

		pending := make([]*async.Future[ArtworkResult], 5)
		for i := range pending {
			pending[i] = l.FetchArtwork(ArtworkQuery{Artist: "a", Album: "b"})
		}
		l.Close()

		for i, f := range pending {
			if !f.Done() {
				t.Errorf("lookup %d not finished after Close", i)
			}
		}

		if _, err := await(t, l.FetchArtwork(ArtworkQuery{Artist: "a", Album: "b"})); !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend after Close, got %v", err)
		}
		l.Close()
	})

	t.Run("Throttled", func(t *testing.T) {
		l := NewLibrary(LibraryOpts{Store: &fakeStore{}, Workers: 1, Queue: 8, LookupsPerSecond: 20, Logger: shared.NewLogger(io.Discard)})
		defer l.Close()

		start := time.Now()
		var last *async.Future[ArtworkResult]
		for i := 0; i < 4; i++ {
			last = l.FetchArtwork(ArtworkQuery{Artist: "a", Album: "b"})
		}
		if _, err := await(t, last); err != nil {
			t.Fatal(err)
		}
		if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
			t.Errorf("4 lookups at 20/s with burst 1 took %v", elapsed)
		}
	})
}
