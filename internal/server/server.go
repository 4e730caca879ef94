package server

import (
	"net/http"
)

// HandlerFunc is a handler method bound to a controller of type C.
//
// Method expressions fit directly: (*ArtworkController).GetArtwork is a HandlerFunc[*ArtworkController].
type HandlerFunc[C any] func(controller C) *Response

// Factory constructs the per-request controller for a route group.
type Factory[C any] func(req *Request) C

// Releaser is implemented by controllers that hold resources until their response is terminal.
type Releaser interface {
	Release() // Release is called once, after the terminal response has been written or discarded
}

// PathPolicy decides whether a normalized path may be read on behalf of a client.
type PathPolicy interface {
	IsAllowedPath(normalized string) bool // IsAllowedPath reports whether the canonical path is permitted
}

// Dispatcher is the http.Handler surface of a [Router].
type Dispatcher interface {
	http.Handler
	Routes() []RouteInfo // Routes lists the registered routes in registration order
}
