package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/desertthunder/msrv/internal/async"
	"github.com/desertthunder/msrv/internal/shared"
)

// statusClientGone is recorded when the client left before a terminal response was ready.
const statusClientGone = 499

type errorBody struct {
	Error errorMessage `json:"error"`
}

type errorMessage struct {
	Message string `json:"message"`
}

// waiter hands the terminal response from the completing goroutine to the request goroutine.
//
// Once abandoned, late responses are released instead of delivered.
type waiter struct {
	mu        sync.Mutex
	abandoned bool
	ch        chan *Response
}

func newWaiter() *waiter {
	return &waiter{ch: make(chan *Response, 1)}
}

func (w *waiter) deliver(resp *Response) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.abandoned {
		resp.Release()
		return
	}
	w.ch <- resp
}

// abandon stops delivery. A response that already arrived is released.
func (w *waiter) abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.abandoned = true
	select {
	case resp := <-w.ch:
		resp.Release()
	default:
	}
}

// resolve drives resp to a terminal response.
//
// It returns nil when the client disconnected first; nothing should be written then.
func (r *Router) resolve(req *Request, resp *Response) *Response {
	if resp == nil {
		req.Logger().Error("handler returned no response")
		return InternalError("internal error")
	}
	if resp.IsTerminal() {
		return resp
	}
	if resp.pending == nil {
		req.Logger().Error("async response without a pending result")
		return InternalError("internal error")
	}

	r.metrics.pendingInc()
	defer r.metrics.pendingDec()

	w := newWaiter()
	err := resp.pending.OnComplete(func(v *Response, err error) {
		w.deliver(finalize(req, v, err))
	})
	if err != nil {
		req.Logger().Error("could not attach continuation", "error", err)
		return InternalError("internal error")
	}

	var timeout <-chan time.Time
	if r.asyncTimeout > 0 {
		t := time.NewTimer(r.asyncTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case final := <-w.ch:
		return final
	case <-timeout:
		w.abandon()
		req.Logger().Warn("pending response abandoned", "error", shared.ErrTimeout, "timeout", r.asyncTimeout)
		return Error(http.StatusGatewayTimeout, "request timed out")
	case <-req.Context().Done():
		w.abandon()
		return nil
	}
}

// finalize turns the outcome of a pending result into a terminal response.
func finalize(req *Request, v *Response, err error) *Response {
	switch {
	case errors.Is(err, async.ErrPanic):
		req.Logger().Error("continuation panicked", "error", err)
		return InternalError("internal error")
	case err != nil:
		req.Logger().Error("continuation failed", "error", err)
		return InternalError("internal error")
	case v == nil:
		req.Logger().Error("continuation returned no response")
		return InternalError("internal error")
	case !v.IsTerminal():
		req.Logger().Error("nested async response")
		discard(req, v)
		return InternalError("internal error")
	default:
		return v
	}
}

// discard releases resp without writing it. Pending responses are released
// when they complete, however deeply they nest.
func discard(req *Request, resp *Response) {
	if resp == nil {
		return
	}
	if resp.IsTerminal() {
		resp.Release()
		return
	}
	if resp.pending == nil {
		return
	}
	if err := resp.pending.OnComplete(func(v *Response, _ error) { discard(req, v) }); err != nil {
		req.Logger().Warn("nested response already claimed, cannot release it", "error", err)
	}
}

// write serializes a terminal response and returns the status sent.
func (r *Router) write(w http.ResponseWriter, req *Request, resp *Response) int {
	defer resp.Release()

	for k, vs := range resp.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	switch resp.kind {
	case KindFile:
		return writeFile(w, req, resp)
	case KindJSON:
		body, err := json.Marshal(resp.value)
		if err != nil {
			req.Logger().Error("could not encode response", "error", err)
			return writeError(w, req, InternalError("internal error"))
		}
		return writeBody(w, req, http.StatusOK, resp.contentType, body)
	default:
		return writeError(w, req, resp)
	}
}

func writeFile(w http.ResponseWriter, req *Request, resp *Response) int {
	if resp.file == nil {
		req.Logger().Error("file response without a file")
		return writeError(w, req, InternalError("internal error"))
	}

	h := w.Header()
	h.Set("Content-Type", resp.contentType)
	if info, err := resp.file.Stat(); err == nil && info.Mode().IsRegular() {
		h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	w.WriteHeader(resp.status)
	if _, err := io.Copy(w, resp.file); err != nil {
		req.Logger().Warn("file transfer interrupted", "error", err)
	}
	return resp.status
}

func writeError(w http.ResponseWriter, req *Request, resp *Response) int {
	status := resp.status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	msg := resp.message
	if msg == "" {
		msg = http.StatusText(status)
	}

	body, err := json.Marshal(errorBody{Error: errorMessage{Message: msg}})
	if err != nil {
		w.WriteHeader(status)
		return status
	}
	return writeBody(w, req, status, "application/json", body)
}

func writeBody(w http.ResponseWriter, req *Request, status int, contentType string, body []byte) int {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))

	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		req.Logger().Warn("could not write response", "error", err)
	}
	return status
}
