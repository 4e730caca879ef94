package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Request errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrForbidden       = fmt.Errorf("access denied")
	ErrNotFound        = fmt.Errorf("not found")

	// Backend errors
	ErrBackend = fmt.Errorf("backend failure")
	ErrTimeout = fmt.Errorf("operation timed out")

	// Persistence errors
	ErrArtworkNotFound = fmt.Errorf("artwork not found")
)
