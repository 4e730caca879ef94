package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/msrv/internal/shared"
)

// RouterOpts contains configuration options for creating a [Router].
type RouterOpts struct {
	Logger       *log.Logger
	AsyncTimeout time.Duration // AsyncTimeout bounds how long a pending response is awaited; zero waits forever
	MaxBodyBytes int64
	Metrics      *Metrics
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  string
	Pattern string
}

type route struct {
	method   string
	pattern  string
	segments []string
	invoke   func(req *Request) (*Response, func())
}

// Router maps (method, path) pairs to controller handler methods.
//
// Routes are registered at startup through [DefineRoutes]. The router is sealed
// on the first request; registering afterwards panics.
type Router struct {
	routes       []*route
	logger       *log.Logger
	asyncTimeout time.Duration
	maxBodyBytes int64
	metrics      *Metrics
	sealed       atomic.Bool
}

// NewRouter creates a new [Router] instance.
func NewRouter(opts RouterOpts) *Router {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Router{
		logger:       opts.Logger,
		asyncTimeout: opts.AsyncTimeout,
		maxBodyBytes: opts.MaxBodyBytes,
		metrics:      opts.Metrics,
	}
}

// Routes lists registered routes in registration order.
func (r *Router) Routes() []RouteInfo {
	infos := make([]RouteInfo, len(r.routes))
	for i, rt := range r.routes {
		infos[i] = RouteInfo{Method: rt.method, Pattern: rt.pattern}
	}
	return infos
}

// ServeHTTP implements [http.Handler]: match, dispatch, await, write.
func (r *Router) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	r.sealed.Store(true)
	start := time.Now()

	req := newRequest(w, hr, r.logger, r.maxBodyBytes)
	resp, pattern, release := r.dispatch(req)
	final := r.resolve(req, resp)

	status := statusClientGone
	if final != nil {
		status = r.write(w, req, final)
	} else {
		req.Logger().Warn("client disconnected before response was ready")
	}

	if release != nil {
		release()
	}

	elapsed := time.Since(start)
	r.metrics.observe(req.Method, pattern, status, elapsed)
	req.Logger().Info("request completed", "status", status, "duration", elapsed)
}

func (r *Router) add(method, pattern string, invoke func(*Request) (*Response, func())) {
	if r.sealed.Load() {
		panic(fmt.Sprintf("server: route %s %s registered after serving started", method, pattern))
	}

	segments := splitPath(pattern)
	canonical := "/" + strings.Join(segments, "/")

	for _, rt := range r.routes {
		if rt.method == method && rt.pattern == canonical {
			panic(fmt.Sprintf("server: duplicate route %s %s", method, canonical))
		}
	}

	r.routes = append(r.routes, &route{
		method:   method,
		pattern:  canonical,
		segments: segments,
		invoke:   invoke,
	})
}

// dispatch finds the route for req and invokes its handler.
//
// It returns the handler's response, the matched pattern for metrics and the
// controller release hook, if any.
func (r *Router) dispatch(req *Request) (*Response, string, func()) {
	segments := splitPath(req.Path)

	var allowed []string
	for _, rt := range r.routes {
		params, ok := rt.match(segments)
		if !ok {
			continue
		}
		if rt.method != req.Method {
			allowed = appendUnique(allowed, rt.method)
			continue
		}

		req.PathParams = params
		resp, release := rt.invoke(req)
		return resp, rt.pattern, release
	}

	if len(allowed) > 0 {
		return MethodNotAllowed(allowed), "unmatched", nil
	}
	return NotFound("not found"), "unmatched", nil
}

func (rt *route) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(rt.segments) {
		return nil, false
	}

	params := map[string]string{}
	for i, want := range rt.segments {
		if name, ok := paramName(want); ok {
			params[name] = segments[i]
			continue
		}
		if want != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// Routes collects the handlers of one controller type under a shared prefix.
type Routes[C any] struct {
	router    *Router
	prefix    string
	prefixSet bool
	factory   Factory[C]
}

// DefineRoutes starts a route group for controllers of type C.
func DefineRoutes[C any](r *Router) *Routes[C] {
	return &Routes[C]{router: r}
}

// CreateWith sets the per-request controller factory. Must be called before adding handlers.
func (d *Routes[C]) CreateWith(factory Factory[C]) {
	d.factory = factory
}

// SetPrefix sets the path prefix all handlers in the group are relative to. It may be set once.
func (d *Routes[C]) SetPrefix(prefix string) {
	if d.prefixSet {
		panic(fmt.Sprintf("server: prefix already set to %q", d.prefix))
	}
	d.prefix = prefix
	d.prefixSet = true
}

// Get registers a GET handler at path, relative to the prefix.
func (d *Routes[C]) Get(path string, h HandlerFunc[C]) {
	d.Handle(http.MethodGet, path, h)
}

// Post registers a POST handler at path, relative to the prefix.
func (d *Routes[C]) Post(path string, h HandlerFunc[C]) {
	d.Handle(http.MethodPost, path, h)
}

// Put registers a PUT handler at path, relative to the prefix.
func (d *Routes[C]) Put(path string, h HandlerFunc[C]) {
	d.Handle(http.MethodPut, path, h)
}

// Delete registers a DELETE handler at path, relative to the prefix.
func (d *Routes[C]) Delete(path string, h HandlerFunc[C]) {
	d.Handle(http.MethodDelete, path, h)
}

// Handle registers h for method at path, relative to the prefix.
func (d *Routes[C]) Handle(method, path string, h HandlerFunc[C]) {
	if d.factory == nil {
		panic("server: CreateWith must be called before registering handlers")
	}
	if h == nil {
		panic("server: nil handler")
	}

	factory := d.factory
	pattern := "/" + strings.Join(splitPath(joinPath(d.prefix, path)), "/")
	d.router.add(strings.ToUpper(method), pattern, func(req *Request) (resp *Response, release func()) {
		// A panicking handler still returns the release hook of its controller.
		defer func() {
			if p := recover(); p != nil {
				req.Logger().Error("handler panicked", "route", pattern, "panic", p)
				resp = InternalError("internal error")
			}
		}()

		controller := factory(req)
		if rel, ok := any(controller).(Releaser); ok {
			release = rel.Release
		}
		return h(controller), release
	})
}

func joinPath(prefix, path string) string {
	return strings.Trim(prefix, "/") + "/" + strings.Trim(path, "/")
}

func splitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func paramName(segment string) (string, bool) {
	if len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
