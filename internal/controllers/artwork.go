package controllers

import (
	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/contenttype"
	"github.com/desertthunder/msrv/internal/player"
	"github.com/desertthunder/msrv/internal/server"
)

// ArtworkDeps are the services shared by every [ArtworkController].
type ArtworkDeps struct {
	Player       player.Player
	Policy       server.PathPolicy
	ContentTypes contenttype.Lookup
	Open         FileOpener      // Open defaults to [OpenFile]
	Metrics      *server.Metrics // Metrics may be nil
}

// ArtworkController serves album artwork.
type ArtworkController struct {
	server.ControllerBase
	deps  ArtworkDeps
	query player.ArtworkQuery
}

// NewArtworkController binds deps to req.
func NewArtworkController(req *server.Request, deps ArtworkDeps) *ArtworkController {
	if deps.Open == nil {
		deps.Open = OpenFile
	}
	return &ArtworkController{ControllerBase: server.NewControllerBase(req), deps: deps}
}

// GetArtwork handles GET /api/artwork?file=&artist=&album=.
func (c *ArtworkController) GetArtwork() *server.Response {
	req := c.Request()

	file, hasFile, err := server.OptionalParam[string](req, "file")
	if err != nil {
		return server.BadRequest(err)
	}
	artist, _, err := server.OptionalParam[string](req, "artist")
	if err != nil {
		return server.BadRequest(err)
	}
	album, _, err := server.OptionalParam[string](req, "album")
	if err != nil {
		return server.BadRequest(err)
	}

	if hasFile {
		normalized, err := server.GuardPath(c.deps.Policy, file)
		if err != nil {
			c.Logger().Warn("artwork path denied")
			c.deps.Metrics.RecordLookup("denied")
			return server.Forbidden()
		}
		file = normalized
	}

	c.query = player.ArtworkQuery{File: file, Artist: artist, Album: album}

	return server.Async(async.Then(c.deps.Player.FetchArtwork(c.query), c.complete))
}

// complete runs on the player's worker once the lookup finishes.
func (c *ArtworkController) complete(res player.ArtworkResult, err error) *server.Response {
	if err != nil {
		c.Logger().Error("artwork lookup failed", "error", err)
		c.deps.Metrics.RecordLookup("error")
		return server.InternalError("artwork lookup failed")
	}
	if res.Path == "" {
		c.deps.Metrics.RecordLookup("not_found")
		return server.NotFound("no artwork found")
	}

	f, err := c.deps.Open(res.Path)
	if err != nil {
		c.Logger().Warn("failed to open artwork", "error", err)
		c.deps.Metrics.RecordLookup("not_found")
		return server.NotFound("no artwork found")
	}
	if info, err := f.Stat(); err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		c.Logger().Warn("artwork is not a regular file")
		c.deps.Metrics.RecordLookup("not_found")
		return server.NotFound("no artwork found")
	}

	c.deps.Metrics.RecordLookup("found")
	return server.File(f, c.deps.ContentTypes.Get(res.Path))
}

// DefineArtworkRoutes registers the artwork routes on router.
func DefineArtworkRoutes(router *server.Router, deps ArtworkDeps) {
	routes := server.DefineRoutes[*ArtworkController](router)
	routes.SetPrefix("/api")
	routes.CreateWith(func(req *server.Request) *ArtworkController {
		return NewArtworkController(req, deps)
	})
	routes.Get("/artwork", (*ArtworkController).GetArtwork)
}
