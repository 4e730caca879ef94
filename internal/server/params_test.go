package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/msrv/internal/shared"
)

func newTestRequest(t *testing.T, target string) *Request {
	t.Helper()
	req, err := NewRequest(context.Background(), "GET", target, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	return req
}

func TestOptionalParam(t *testing.T) {
	t.Run("Absent", func(t *testing.T) {
		req := newTestRequest(t, "/api/artwork")

		v, ok, err := OptionalParam[string](req, "file")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || v != "" {
			t.Errorf("expected absent zero value, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("EmptyValueIsPresent", func(t *testing.T) {
		req := newTestRequest(t, "/api/artwork?artist=")

		v, ok, err := OptionalParam[string](req, "artist")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok || v != "" {
			t.Errorf("expected present empty string, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("FirstValueWins", func(t *testing.T) {
		req := newTestRequest(t, "/x?album=One&album=Two")

		v, _, _ := OptionalParam[string](req, "album")
		if v != "One" {
			t.Errorf("expected first value, got %q", v)
		}
	})

	t.Run("DoesNotMutateRequest", func(t *testing.T) {
		req := newTestRequest(t, "/x?n=5")

		_, _, _ = OptionalParam[int](req, "n")
		_, _, _ = OptionalParam[int](req, "missing")

		if len(req.Query) != 1 || req.Query["n"] != "5" {
			t.Errorf("query changed: %v", req.Query)
		}
	})

	t.Run("Conversions", func(t *testing.T) {
		req := newTestRequest(t, "/x?b=true&i=-42&u=7&f=1.5&d=250ms&i32=2147483647")

		if v, _, err := OptionalParam[bool](req, "b"); err != nil || !v {
			t.Errorf("bool: got %v, %v", v, err)
		}
		if v, _, err := OptionalParam[int](req, "i"); err != nil || v != -42 {
			t.Errorf("int: got %v, %v", v, err)
		}
		if v, _, err := OptionalParam[uint64](req, "u"); err != nil || v != 7 {
			t.Errorf("uint64: got %v, %v", v, err)
		}
		if v, _, err := OptionalParam[float64](req, "f"); err != nil || v != 1.5 {
			t.Errorf("float64: got %v, %v", v, err)
		}
		if v, _, err := OptionalParam[time.Duration](req, "d"); err != nil || v != 250*time.Millisecond {
			t.Errorf("duration: got %v, %v", v, err)
		}
		if v, _, err := OptionalParam[int32](req, "i32"); err != nil || v != 2147483647 {
			t.Errorf("int32: got %v, %v", v, err)
		}
	})

	t.Run("RejectsMalformed", func(t *testing.T) {
		tests := []struct {
			name   string
			target string
			check  func(*Request) error
		}{
			{"TrailingGarbage", "/x?n=12abc", func(r *Request) error { _, _, err := OptionalParam[int](r, "n"); return err }},
			{"Decimal", "/x?n=1.5", func(r *Request) error { _, _, err := OptionalParam[int](r, "n"); return err }},
			{"Overflow", "/x?n=2147483648", func(r *Request) error { _, _, err := OptionalParam[int32](r, "n"); return err }},
			{"NegativeUnsigned", "/x?n=-1", func(r *Request) error { _, _, err := OptionalParam[uint](r, "n"); return err }},
			{"LocaleComma", "/x?n=1,5", func(r *Request) error { _, _, err := OptionalParam[float64](r, "n"); return err }},
			{"NaN", "/x?n=NaN", func(r *Request) error { _, _, err := OptionalParam[float64](r, "n"); return err }},
			{"Inf", "/x?n=Inf", func(r *Request) error { _, _, err := OptionalParam[float64](r, "n"); return err }},
			{"Bool", "/x?n=yes", func(r *Request) error { _, _, err := OptionalParam[bool](r, "n"); return err }},
			{"Duration", "/x?n=5", func(r *Request) error { _, _, err := OptionalParam[time.Duration](r, "n"); return err }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.check(newTestRequest(t, tt.target))
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				if !IsParamError(err) {
					t.Errorf("expected a ParamError, got %T", err)
				}
			})
		}
	})
}

func TestParam(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		req := newTestRequest(t, "/x")

		_, err := Param[string](req, "artist")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
		if want := "query parameter 'artist': missing required argument"; err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("Present", func(t *testing.T) {
		req := newTestRequest(t, "/x?limit=10")

		v, err := Param[int](req, "limit")
		if err != nil || v != 10 {
			t.Errorf("got %v, %v", v, err)
		}
	})
}

func TestParamOr(t *testing.T) {
	req := newTestRequest(t, "/x?limit=3&bad=x")

	if v, err := ParamOr(req, "limit", 50); err != nil || v != 3 {
		t.Errorf("present: got %v, %v", v, err)
	}
	if v, err := ParamOr(req, "offset", 50); err != nil || v != 50 {
		t.Errorf("absent: got %v, %v", v, err)
	}
	if _, err := ParamOr(req, "bad", 50); err == nil {
		t.Error("malformed: expected error")
	}
}

func TestPathParam(t *testing.T) {
	req := newTestRequest(t, "/api/items/12")
	req.PathParams["id"] = "12"

	v, err := PathParam[int64](req, "id")
	if err != nil || v != 12 {
		t.Errorf("got %v, %v", v, err)
	}

	_, err = PathParam[int64](req, "other")
	var pe *ParamError
	if !errors.As(err, &pe) || pe.Source != "path" {
		t.Errorf("expected path ParamError, got %v", err)
	}
}
