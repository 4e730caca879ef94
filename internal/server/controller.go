package server

import (
	"context"

	"github.com/charmbracelet/log"
)

// ControllerBase is embedded by every controller and gives handlers access to their request.
type ControllerBase struct {
	req *Request
}

// NewControllerBase binds a controller base to req.
func NewControllerBase(req *Request) ControllerBase {
	return ControllerBase{req: req}
}

// Request returns the bound request.
func (c *ControllerBase) Request() *Request {
	return c.req
}

// Logger returns the request scoped logger.
func (c *ControllerBase) Logger() *log.Logger {
	return c.req.Logger()
}

// Context returns the request context.
func (c *ControllerBase) Context() context.Context {
	return c.req.Context()
}
