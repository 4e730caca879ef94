// package settings holds the path allow-list read by controllers and reloads it when the config file changes
package settings

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/desertthunder/msrv/internal/shared"
)

const reloadDebounce = 200 * time.Millisecond

// Policy is an immutable allow-list: a path is allowed when it lies under a root and under no deny entry.
type Policy struct {
	Roots []string
	Deny  []string
}

// NewPolicy cleans roots and deny entries. Relative entries are dropped.
func NewPolicy(roots, deny []string) Policy {
	return Policy{Roots: cleanAll(roots), Deny: cleanAll(deny)}
}

// Allows reports whether normalized lies under one of the roots and under none of the deny entries.
func (p Policy) Allows(normalized string) bool {
	path := filepath.FromSlash(normalized)
	if !filepath.IsAbs(path) {
		return false
	}

	for _, d := range p.Deny {
		if within(d, path) {
			return false
		}
	}
	for _, r := range p.Roots {
		if within(r, path) {
			return true
		}
	}
	return false
}

// Store is the settings store shared by all requests. Reads are lock free.
type Store struct {
	policy atomic.Pointer[Policy]
	logger *log.Logger
}

// NewStore builds a store from the library section of the configuration.
func NewStore(cfg shared.LibraryConfig, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	s := &Store{logger: logger}
	s.Set(NewPolicy(cfg.MusicDirs, cfg.Deny))
	return s
}

// IsAllowedPath implements the server's path policy.
func (s *Store) IsAllowedPath(normalized string) bool {
	return s.policy.Load().Allows(normalized)
}

// Roots returns the configured library roots.
func (s *Store) Roots() []string {
	return append([]string(nil), s.policy.Load().Roots...)
}

// Set replaces the active policy.
func (s *Store) Set(p Policy) {
	s.policy.Store(&p)
}

// Reload re-reads path and swaps in its library section. The previous policy stays active on error.
func (s *Store) Reload(path string) error {
	cfg, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	s.Set(NewPolicy(cfg.Library.MusicDirs, cfg.Library.Deny))
	s.logger.Info("library policy reloaded", "roots", len(cfg.Library.MusicDirs), "deny", len(cfg.Library.Deny))
	return nil
}

// Watch reloads the policy whenever the config file at path changes, until ctx is done.
//
// The parent directory is watched so editors that replace the file on save are seen.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			s.logger.Debug("config file event", "event", event.Op.String(), "file", event.Name)

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := s.Reload(abs); err != nil {
					s.logger.Error("failed to reload config", "file", abs, "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("config watcher error", "error", err)
		}
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func cleanAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || !filepath.IsAbs(p) {
			continue
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}
