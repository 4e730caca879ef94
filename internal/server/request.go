package server

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/msrv/internal/shared"
)

// Request is the per-request view handed to controllers.
//
// Query holds the first value of each query parameter. Controllers read it through
// [Param] and [OptionalParam] rather than directly.
type Request struct {
	ID         string
	Method     string
	Path       string
	Query      map[string]string
	PathParams map[string]string
	Body       io.Reader

	ctx    context.Context
	logger *log.Logger
}

// NewRequest builds a Request outside of an HTTP exchange, mainly for controller tests.
func NewRequest(ctx context.Context, method, target string, logger *log.Logger) (*Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	id := shared.GenerateID()
	return &Request{
		ID:         id,
		Method:     method,
		Path:       u.Path,
		Query:      firstValues(u.Query()),
		PathParams: map[string]string{},
		Body:       http.NoBody,
		ctx:        ctx,
		logger:     shared.WithLogger(logger, "request_id", id),
	}, nil
}

func newRequest(w http.ResponseWriter, hr *http.Request, logger *log.Logger, maxBody int64) *Request {
	id := shared.GenerateID()

	var body io.Reader = http.NoBody
	if hr.Body != nil {
		body = hr.Body
		if maxBody > 0 {
			body = http.MaxBytesReader(w, hr.Body, maxBody)
		}
	}

	return &Request{
		ID:         id,
		Method:     hr.Method,
		Path:       hr.URL.Path,
		Query:      firstValues(hr.URL.Query()),
		PathParams: map[string]string{},
		Body:       body,
		ctx:        hr.Context(),
		logger:     shared.WithLogger(logger, "request_id", id, "method", hr.Method, "path", hr.URL.Path),
	}
}

// Context returns the context of the underlying connection.
func (r *Request) Context() context.Context {
	return r.ctx
}

// Logger returns the request scoped logger.
func (r *Request) Logger() *log.Logger {
	return r.logger
}

func firstValues(values url.Values) map[string]string {
	query := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return query
}
