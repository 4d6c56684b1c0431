// SPDX-License-Identifier: MPL-2.0

// Package wspath provides the typed workspace-root path abstraction used to
// translate local workspace paths into each backend's filesystem namespace.
// Every path handed to a backend is expressed as "workspace root + suffix";
// translation recomputes the same suffix against the backend's root so the
// generated command script and output directories keep their relative
// location in every execution context.
package wspath

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"bitsmith-cli/internal/issue"

	"mvdan.cc/sh/v3/syntax"
)

// Root is a validated, absolute workspace root directory.
type Root string

// NewRoot resolves dir to an absolute, cleaned workspace root.
// The directory must exist.
func NewRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("open workspace").
			WithResource(abs).
			WithSuggestion("Pass --workspace with the project source tree root").
			Wrap(err).
			BuildError()
	}
	if !info.IsDir() {
		return "", issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("open workspace").
			WithResource(abs).
			Wrap(fmt.Errorf("not a directory")).
			BuildError()
	}
	return Root(filepath.Clean(abs)), nil
}

// String returns the root as a plain path string.
func (r Root) String() string { return string(r) }

// Join joins path elements onto the root.
func (r Root) Join(elem ...string) string {
	parts := append([]string{string(r)}, elem...)
	return filepath.Join(parts...)
}

// Rel returns the suffix of p beyond the root, in slash form. It fails when
// p does not live under the root; callers rely on this to reject paths that
// would escape the synchronized workspace subtree.
func (r Root) Rel(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	rel, err := filepath.Rel(string(r), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("translate path").
			WithResource(abs).
			Wrap(fmt.Errorf("path is not under workspace root %s", r)).
			BuildError()
	}
	return filepath.ToSlash(rel), nil
}

// Translate maps a path under the local workspace root to the equivalent
// path under backendRoot. Backend roots use forward slashes (container mount
// points and remote POSIX directories); the suffix relative to the workspace
// root is preserved verbatim.
func (r Root) Translate(p, backendRoot string) (string, error) {
	rel, err := r.Rel(p)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return path.Clean(backendRoot), nil
	}
	return path.Join(backendRoot, rel), nil
}

// QuotePosix quotes s for safe interpolation into a remotely executed POSIX
// command line. Workspace paths with spaces must survive the trip through
// "ssh host bash -lc '...'" intact.
func QuotePosix(s string) (string, error) {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("quoting %q for remote execution: %w", s, err)
	}
	return quoted, nil
}
