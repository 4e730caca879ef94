package server

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/shared"
)

// DefaultContentType is used for file responses whose type is unknown.
const DefaultContentType = "application/octet-stream"

// Kind identifies the active variant of a [Response].
type Kind int

const (
	KindError Kind = iota
	KindFile
	KindJSON
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindFile:
		return "file"
	case KindJSON:
		return "json"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Response is the result of a handler: an error, a file, a JSON value or a pending result.
//
// Terminal responses are immutable once built. An async response resolves to exactly
// one terminal response; resolving to another async response is a defect.
type Response struct {
	kind        Kind
	status      int
	message     string
	header      http.Header
	file        fs.File
	contentType string
	value       any
	pending     *async.Future[*Response]

	release sync.Once
}

// Error returns a terminal failure. The message is shown to the client; empty uses the status text.
func Error(status int, message string) *Response {
	return &Response{kind: KindError, status: status, message: message}
}

// BadRequest returns a 400 describing a parameter binder error.
func BadRequest(err error) *Response {
	msg := "bad request"
	if IsParamError(err) {
		msg = err.Error()
	}
	return Error(http.StatusBadRequest, msg)
}

// Forbidden returns a 403 with a generic message.
func Forbidden() *Response {
	return Error(http.StatusForbidden, "access denied")
}

// NotFound returns a 404.
func NotFound(message string) *Response {
	return Error(http.StatusNotFound, message)
}

// InternalError returns a 500. Callers log the cause; message must not include it.
func InternalError(message string) *Response {
	return Error(http.StatusInternalServerError, message)
}

// MethodNotAllowed returns a 405 listing allowed methods in the Allow header.
func MethodNotAllowed(allowed []string) *Response {
	r := Error(http.StatusMethodNotAllowed, "method not allowed")
	r.header = http.Header{"Allow": []string{strings.Join(allowed, ", ")}}
	return r
}

// File returns a terminal success streaming f. The response owns f from here on.
func File(f fs.File, contentType string) *Response {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Response{kind: KindFile, status: http.StatusOK, file: f, contentType: contentType}
}

// JSON returns a terminal success encoding v.
func JSON(v any) *Response {
	return &Response{kind: KindJSON, status: http.StatusOK, value: v, contentType: "application/json"}
}

// Async wraps a pending result. The router waits for it before writing anything.
func Async(f *async.Future[*Response]) *Response {
	return &Response{kind: KindAsync, pending: f}
}

// FromError maps binder and guard errors to their responses.
//
// Anything unrecognized becomes a generic 500.
func FromError(err error) *Response {
	switch {
	case err == nil:
		return nil
	case IsParamError(err):
		return BadRequest(err)
	case errors.Is(err, shared.ErrForbidden):
		return Forbidden()
	default:
		return InternalError("internal error")
	}
}

// Kind returns the active variant.
func (r *Response) Kind() Kind { return r.kind }

// Status returns the HTTP status of a terminal response, or 0 for async.
func (r *Response) Status() int { return r.status }

// Message returns the client facing message of an error response.
func (r *Response) Message() string { return r.message }

// ContentType returns the content type of a file or JSON response.
func (r *Response) ContentType() string { return r.contentType }

// Value returns the payload of a JSON response.
func (r *Response) Value() any { return r.value }

// Header returns a copy of the extra headers of the response.
func (r *Response) Header() http.Header { return r.header.Clone() }

// IsTerminal reports whether the response can be written as is.
func (r *Response) IsTerminal() bool { return r.kind != KindAsync }

// Release closes the file payload, once. It is safe to call on any variant.
func (r *Response) Release() {
	r.release.Do(func() {
		if r.file != nil {
			_ = r.file.Close()
		}
	})
}
