// package player is the media library backend the HTTP controllers call into.
//
// Lookups run on a bounded worker pool and complete through [async.Future] values,
// so callers never block on disk or database access.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/models"
	"github.com/desertthunder/msrv/internal/shared"
)

// ArtworkQuery describes an artwork lookup. File, when set, is an already
// normalized and allowed path.
type ArtworkQuery struct {
	File   string
	Artist string
	Album  string
}

// ArtworkResult is the outcome of a lookup. An empty Path means nothing was found.
type ArtworkResult struct {
	Path string
}

// Player is the backend surface used by controllers.
type Player interface {
	FetchArtwork(q ArtworkQuery) *async.Future[ArtworkResult]
}

// ArtworkStore is the index consulted when the file system has no artwork.
type ArtworkStore interface {
	GetByAlbum(artist, album string) (*models.Artwork, error)
	GetByDirectory(dir string) (*models.Artwork, error)
}

// LibraryOpts configures a [Library].
type LibraryOpts struct {
	Store            ArtworkStore // Store may be nil; lookups then use the file system only
	ArtworkNames     []string
	Workers          int
	Queue            int
	LookupsPerSecond float64 // LookupsPerSecond of zero disables throttling
	Logger           *log.Logger
}

type job struct {
	query   ArtworkQuery
	promise *async.Promise[ArtworkResult]
}

// Library resolves artwork on a fixed set of workers.
type Library struct {
	store   ArtworkStore
	names   []string
	limiter *rate.Limiter
	logger  *log.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     conc.WaitGroup
}

// NewLibrary starts the worker pool described by opts.
func NewLibrary(opts LibraryOpts) *Library {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Queue < 0 {
		opts.Queue = 0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	l := &Library{
		store:  opts.Store,
		names:  opts.ArtworkNames,
		logger: opts.Logger.WithPrefix("player"),
		jobs:   make(chan job, opts.Queue),
	}
	if opts.LookupsPerSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(opts.LookupsPerSecond), opts.Workers)
	}

	for i := 0; i < opts.Workers; i++ {
		l.wg.Go(l.work)
	}
	return l
}

// FetchArtwork queues q and returns its pending result.
//
// A full queue or a closed library rejects immediately with [shared.ErrBackend].
func (l *Library) FetchArtwork(q ArtworkQuery) *async.Future[ArtworkResult] {
	p, f := async.New[ArtworkResult]()

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		_ = p.Reject(fmt.Errorf("%w: library closed", shared.ErrBackend))
		return f
	}

	select {
	case l.jobs <- job{query: q, promise: p}:
	default:
		_ = p.Reject(fmt.Errorf("%w: lookup queue full", shared.ErrBackend))
	}
	return f
}

// Close stops accepting lookups, lets queued ones finish and waits for the workers.
func (l *Library) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.jobs)
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *Library) work() {
	for j := range l.jobs {
		l.run(j)
	}
}

func (l *Library) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("artwork lookup panicked", "panic", r)
			_ = j.promise.Reject(fmt.Errorf("%w: lookup panicked", shared.ErrBackend))
		}
	}()

	if l.limiter != nil {
		if err := l.limiter.Wait(context.Background()); err != nil {
			_ = j.promise.Reject(fmt.Errorf("%w: %v", shared.ErrBackend, err))
			return
		}
	}

	res, err := l.lookup(j.query)
	if err != nil {
		_ = j.promise.Reject(err)
		return
	}
	_ = j.promise.Resolve(res)
}

func (l *Library) lookup(q ArtworkQuery) (ArtworkResult, error) {
	if q.File != "" {
		dir := albumDir(q.File)
		if path := FindArtwork(dir, l.names); path != "" {
			return ArtworkResult{Path: path}, nil
		}
		if l.store == nil {
			return ArtworkResult{}, nil
		}
		return fromStore(l.store.GetByDirectory(dir))
	}

	if (q.Artist == "" && q.Album == "") || l.store == nil {
		return ArtworkResult{}, nil
	}
	return fromStore(l.store.GetByAlbum(q.Artist, q.Album))
}

func fromStore(art *models.Artwork, err error) (ArtworkResult, error) {
	if errors.Is(err, shared.ErrArtworkNotFound) {
		return ArtworkResult{}, nil
	}
	if err != nil {
		return ArtworkResult{}, fmt.Errorf("%w: %v", shared.ErrBackend, err)
	}
	return ArtworkResult{Path: art.Path()}, nil
}

// albumDir is path itself when it is a directory, otherwise its parent.
func albumDir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

// FindArtwork returns the first file in dir matching names, compared case-insensitively,
// in the order names are given. It returns "" when there is none.
func FindArtwork(dir string, names []string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	files := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files[strings.ToLower(e.Name())] = e.Name()
		}
	}

	for _, name := range names {
		if actual, ok := files[strings.ToLower(name)]; ok {
			return filepath.Join(dir, actual)
		}
	}
	return ""
}
