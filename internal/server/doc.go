// Package server contains the request dispatch core of the player control API.
//
// # Router
//
// A [Router] maps (method, path) pairs to handler methods on per-request controllers.
// Each controller type declares its routes once at startup:
//
//	routes := server.DefineRoutes[*ArtworkController](router)
//	routes.SetPrefix("/api")
//	routes.CreateWith(func(req *server.Request) *ArtworkController { ... })
//	routes.Get("/artwork", (*ArtworkController).GetArtwork)
//
// An unmatched path answers 404. A path that matches with another method answers
// 405 and lists the allowed methods in the Allow header. Registration panics once the
// router has served its first request.
//
// # Parameters
//
// Handlers read query and path parameters through [Param], [OptionalParam], [ParamOr]
// and [PathParam]. Conversion is strict: "12abc" is not an int. Binder errors become
// 400 responses through [BadRequest] or [FromError].
//
// # Paths
//
// Client supplied file paths go through [GuardPath] before any file system access.
// The guard cleans the path lexically, refuses relative paths and leftover ".."
// segments, and then asks a [PathPolicy]. Denials never echo the path.
//
// # Responses
//
// A handler returns one [Response]: an error, a file, a JSON value, or an async
// result built with [Async]. The router blocks the request goroutine until an async
// result completes, then writes it. A panicking or failing continuation answers 500,
// a nested async result answers 500, and a result that does not arrive within the
// configured timeout answers 504. If the client leaves first nothing is written and
// the late result is released when it arrives.
package server
