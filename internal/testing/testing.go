// package testing contains shared testing utilities
package testing

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/player"
)

// StubPlayer is a test double for [player.Player].
//
// Each call to FetchArtwork returns a pending future that the test completes with
// [StubPlayer.Complete] or [StubPlayer.Fail]. With AutoResult or AutoErr set, calls
// complete immediately instead.
type StubPlayer struct {
	AutoResult *player.ArtworkResult
	AutoErr    error

	mu       sync.Mutex
	queries  []player.ArtworkQuery
	promises []*async.Promise[player.ArtworkResult]
}

func (s *StubPlayer) FetchArtwork(q player.ArtworkQuery) *async.Future[player.ArtworkResult] {
	p, f := async.New[player.ArtworkResult]()

	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.promises = append(s.promises, p)
	s.mu.Unlock()

	switch {
	case s.AutoErr != nil:
		_ = p.Reject(s.AutoErr)
	case s.AutoResult != nil:
		_ = p.Resolve(*s.AutoResult)
	}
	return f
}

// Calls returns the number of FetchArtwork invocations.
func (s *StubPlayer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// Queries returns the queries received so far.
func (s *StubPlayer) Queries() []player.ArtworkQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]player.ArtworkQuery(nil), s.queries...)
}

// Complete resolves the i-th pending lookup with path. Calling it twice for the same
// lookup returns [async.ErrAlreadyResolved].
func (s *StubPlayer) Complete(i int, path string) error {
	return s.promise(i).Resolve(player.ArtworkResult{Path: path})
}

// Fail rejects the i-th pending lookup.
func (s *StubPlayer) Fail(i int, err error) error {
	return s.promise(i).Reject(err)
}

func (s *StubPlayer) promise(i int) *async.Promise[player.ArtworkResult] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promises[i]
}

// StubPolicy allows paths under Root and records every path it was asked about.
type StubPolicy struct {
	Root string

	mu    sync.Mutex
	asked []string
}

func (p *StubPolicy) IsAllowedPath(normalized string) bool {
	p.mu.Lock()
	p.asked = append(p.asked, normalized)
	p.mu.Unlock()

	return p.Root != "" && (normalized == p.Root || strings.HasPrefix(normalized, strings.TrimSuffix(p.Root, "/")+"/"))
}

// Asked returns the normalized paths the policy has seen.
func (p *StubPolicy) Asked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.asked...)
}

// StubContentTypes maps extensions to content types, falling back to application/octet-stream.
type StubContentTypes map[string]string

func (m StubContentTypes) Get(path string) string {
	for ext, ct := range m {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return ct
		}
	}
	return "application/octet-stream"
}

func MustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
