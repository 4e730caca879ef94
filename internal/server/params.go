package server

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/desertthunder/msrv/internal/shared"
)

// Value lists the types the parameter binder can convert to.
type Value interface {
	string | bool | int | int32 | int64 | uint | uint32 | uint64 | float64 | time.Duration
}

// ParamError reports a missing or malformed request parameter.
//
// Err wraps [shared.ErrMissingArgument] or [shared.ErrInvalidArgument].
type ParamError struct {
	Source string // "query" or "path"
	Name   string
	Err    error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s parameter '%s': %v", e.Source, e.Name, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// OptionalParam reads query parameter name as T.
//
// An absent parameter yields the zero value and false. A present parameter that
// does not convert to T is an error.
func OptionalParam[T Value](r *Request, name string) (T, bool, error) {
	raw, ok := r.Query[name]
	if !ok {
		var zero T
		return zero, false, nil
	}

	v, err := convert[T](raw)
	if err != nil {
		return v, false, &ParamError{Source: "query", Name: name, Err: err}
	}
	return v, true, nil
}

// ParamOr reads query parameter name as T, returning def when it is absent.
func ParamOr[T Value](r *Request, name string, def T) (T, error) {
	v, ok, err := OptionalParam[T](r, name)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Param reads the required query parameter name as T.
func Param[T Value](r *Request, name string) (T, error) {
	v, ok, err := OptionalParam[T](r, name)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &ParamError{Source: "query", Name: name, Err: shared.ErrMissingArgument}
	}
	return v, nil
}

// PathParam reads the {name} segment captured by the matched route pattern as T.
func PathParam[T Value](r *Request, name string) (T, error) {
	raw, ok := r.PathParams[name]
	if !ok {
		var zero T
		return zero, &ParamError{Source: "path", Name: name, Err: shared.ErrMissingArgument}
	}

	v, err := convert[T](raw)
	if err != nil {
		return v, &ParamError{Source: "path", Name: name, Err: err}
	}
	return v, nil
}

// IsParamError reports whether err came from the parameter binder.
func IsParamError(err error) bool {
	var pe *ParamError
	return errors.As(err, &pe)
}

func convert[T Value](raw string) (T, error) {
	var out T

	switch p := any(&out).(type) {
	case *string:
		*p = raw
	case *bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return out, invalid("expected boolean")
		}
		*p = v
	case *int:
		v, err := strconv.ParseInt(raw, 10, strconv.IntSize)
		if err != nil {
			return out, invalid("expected integer")
		}
		*p = int(v)
	case *int32:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return out, invalid("expected 32-bit integer")
		}
		*p = int32(v)
	case *int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return out, invalid("expected 64-bit integer")
		}
		*p = v
	case *uint:
		v, err := strconv.ParseUint(raw, 10, strconv.IntSize)
		if err != nil {
			return out, invalid("expected unsigned integer")
		}
		*p = uint(v)
	case *uint32:
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return out, invalid("expected 32-bit unsigned integer")
		}
		*p = uint32(v)
	case *uint64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return out, invalid("expected 64-bit unsigned integer")
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return out, invalid("expected finite number")
		}
		*p = v
	case *time.Duration:
		v, err := time.ParseDuration(raw)
		if err != nil {
			return out, invalid("expected duration")
		}
		*p = v
	}

	return out, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", shared.ErrInvalidArgument, reason)
}
