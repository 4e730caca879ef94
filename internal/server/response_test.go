package server

import (
	"fmt"
	"io/fs"
	"net/http"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/desertthunder/msrv/internal/shared"
)

// trackedFile counts Close calls on top of a real fs.File.
type trackedFile struct {
	fs.File
	closed atomic.Int32
}

func (f *trackedFile) Close() error {
	f.closed.Add(1)
	return f.File.Close()
}

func openTracked(t *testing.T, data string) *trackedFile {
	t.Helper()
	fsys := fstest.MapFS{"cover.jpg": &fstest.MapFile{Data: []byte(data)}}
	f, err := fsys.Open("cover.jpg")
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}
	return &trackedFile{File: f}
}

func TestResponse(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		r := Error(http.StatusTeapot, "short and stout")
		if r.Kind() != KindError || r.Status() != http.StatusTeapot || r.Message() != "short and stout" {
			t.Errorf("unexpected response: %v %d %q", r.Kind(), r.Status(), r.Message())
		}
		if !r.IsTerminal() {
			t.Error("error response should be terminal")
		}
	})

	t.Run("FileDefaultsContentType", func(t *testing.T) {
		r := File(openTracked(t, "x"), "")
		defer r.Release()

		if r.ContentType() != DefaultContentType {
			t.Errorf("expected %q, got %q", DefaultContentType, r.ContentType())
		}
	})

	t.Run("ReleaseClosesOnce", func(t *testing.T) {
		f := openTracked(t, "x")
		r := File(f, "image/jpeg")

		r.Release()
		r.Release()

		if n := f.closed.Load(); n != 1 {
			t.Errorf("expected one close, got %d", n)
		}
	})

	t.Run("ReleaseOnNonFile", func(t *testing.T) {
		NotFound("nope").Release()
		JSON(map[string]int{"a": 1}).Release()
	})

	t.Run("MethodNotAllowedHeader", func(t *testing.T) {
		r := MethodNotAllowed([]string{"GET", "HEAD"})
		if got := r.Header().Get("Allow"); got != "GET, HEAD" {
			t.Errorf("Allow = %q", got)
		}
	})

	t.Run("HeaderIsCopy", func(t *testing.T) {
		r := MethodNotAllowed([]string{"GET"})
		r.Header().Set("Allow", "POST")
		if got := r.Header().Get("Allow"); got != "GET" {
			t.Errorf("response mutated through Header(): %q", got)
		}
	})
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"Param", &ParamError{Source: "query", Name: "n", Err: shared.ErrInvalidArgument}, http.StatusBadRequest},
		{"Forbidden", fmt.Errorf("guard: %w", shared.ErrForbidden), http.StatusForbidden},
		{"Other", shared.ErrBackend, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err).Status(); got != tt.status {
				t.Errorf("expected %d, got %d", tt.status, got)
			}
		})
	}

	t.Run("Nil", func(t *testing.T) {
		if FromError(nil) != nil {
			t.Error("expected nil response")
		}
	})

	t.Run("BackendDetailHidden", func(t *testing.T) {
		r := FromError(fmt.Errorf("%w: dial tcp 10.0.0.3:5432", shared.ErrBackend))
		if r.Message() != "internal error" {
			t.Errorf("message leaks detail: %q", r.Message())
		}
	})
}
