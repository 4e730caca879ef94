package server

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/msrv/internal/shared"
)

// NormalizePath lexically normalizes a client supplied path without touching the file system.
//
// The result uses forward slashes and is always absolute. Paths that are empty,
// relative, contain NUL bytes or invalid UTF-8, or keep a ".." segment after
// cleaning are rejected with [shared.ErrForbidden].
func NormalizePath(raw string) (string, error) {
	if raw == "" || !utf8.ValidString(raw) || strings.ContainsRune(raw, 0) {
		return "", shared.ErrForbidden
	}

	cleaned := filepath.Clean(filepath.FromSlash(raw))
	if !filepath.IsAbs(cleaned) {
		return "", shared.ErrForbidden
	}

	normalized := filepath.ToSlash(cleaned)
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return "", shared.ErrForbidden
		}
	}

	return normalized, nil
}

// GuardPath normalizes raw and checks the result against policy.
//
// It must run before any file system access on the path. The returned error is
// always [shared.ErrForbidden] and never carries the path.
func GuardPath(policy PathPolicy, raw string) (string, error) {
	normalized, err := NormalizePath(raw)
	if err != nil {
		return "", err
	}

	if policy == nil || !policy.IsAllowedPath(normalized) {
		return "", shared.ErrForbidden
	}

	return normalized, nil
}
