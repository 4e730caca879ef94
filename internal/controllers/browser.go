package controllers

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/server"
)

// RootLister provides the library roots shown by the browser.
type RootLister interface {
	Roots() []string
}

// BrowserDeps are the services shared by every [BrowserController].
type BrowserDeps struct {
	Policy server.PathPolicy
	Roots  RootLister
}

// Entry is one file or directory in a browser listing.
type Entry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"` // "D" or "F"
	Size      int64  `json:"size"`
	Timestamp int64  `json:"timestamp"`
}

type rootsBody struct {
	PathSeparator string  `json:"pathSeparator"`
	Roots         []Entry `json:"roots"`
}

type entriesBody struct {
	PathSeparator string  `json:"pathSeparator"`
	Entries       []Entry `json:"entries"`
}

// BrowserController lists library directories.
type BrowserController struct {
	server.ControllerBase
	deps BrowserDeps
}

// NewBrowserController binds deps to req.
func NewBrowserController(req *server.Request, deps BrowserDeps) *BrowserController {
	return &BrowserController{ControllerBase: server.NewControllerBase(req), deps: deps}
}

// GetRoots handles GET /api/browser/roots.
func (c *BrowserController) GetRoots() *server.Response {
	roots := c.deps.Roots.Roots()
	logger := c.Logger()

	return server.Async(async.Go(func() (*server.Response, error) {
		entries := make([]Entry, 0, len(roots))
		for _, root := range roots {
			info, err := os.Stat(root)
			if err != nil {
				logger.Warn("library root unavailable", "root", root, "error", err)
				continue
			}
			entries = append(entries, newEntry(filepath.ToSlash(root), info))
		}
		return server.JSON(rootsBody{PathSeparator: "/", Roots: entries}), nil
	}))
}

// GetEntries handles GET /api/browser/entries?path=&hidden=.
func (c *BrowserController) GetEntries() *server.Response {
	req := c.Request()

	raw, err := server.Param[string](req, "path")
	if err != nil {
		return server.BadRequest(err)
	}
	hidden, err := server.ParamOr(req, "hidden", false)
	if err != nil {
		return server.BadRequest(err)
	}

	dir, err := server.GuardPath(c.deps.Policy, raw)
	if err != nil {
		c.Logger().Warn("browse path denied")
		return server.Forbidden()
	}

	logger := c.Logger()
	return server.Async(async.Go(func() (*server.Response, error) {
		list, err := os.ReadDir(filepath.FromSlash(dir))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return server.NotFound("directory not found"), nil
		case errors.Is(err, fs.ErrPermission):
			return server.Forbidden(), nil
		case err != nil:
			if info, serr := os.Stat(filepath.FromSlash(dir)); serr == nil && !info.IsDir() {
				return server.NotFound("directory not found"), nil
			}
			logger.Error("failed to list directory", "error", err)
			return server.InternalError("failed to list directory"), nil
		}

		entries := make([]Entry, 0, len(list))
		for _, d := range list {
			if !hidden && strings.HasPrefix(d.Name(), ".") {
				continue
			}
			info, err := d.Info()
			if err != nil {
				continue
			}
			entries = append(entries, newEntry(path.Join(dir, d.Name()), info))
		}
		sortEntries(entries)

		return server.JSON(entriesBody{PathSeparator: "/", Entries: entries}), nil
	}))
}

// DefineBrowserRoutes registers the browser routes on router.
func DefineBrowserRoutes(router *server.Router, deps BrowserDeps) {
	routes := server.DefineRoutes[*BrowserController](router)
	routes.SetPrefix("/api/browser")
	routes.CreateWith(func(req *server.Request) *BrowserController {
		return NewBrowserController(req, deps)
	})
	routes.Get("/roots", (*BrowserController).GetRoots)
	routes.Get("/entries", (*BrowserController).GetEntries)
}

func newEntry(p string, info fs.FileInfo) Entry {
	e := Entry{
		Name:      info.Name(),
		Path:      p,
		Type:      "F",
		Size:      info.Size(),
		Timestamp: info.ModTime().Unix(),
	}
	if info.IsDir() {
		e.Type = "D"
		e.Size = 0
	}
	return e
}

// sortEntries orders directories first, then by case-insensitive name.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == "D"
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}
