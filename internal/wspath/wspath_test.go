// SPDX-License-Identifier: MPL-2.0

package wspath_test

import (
	"path/filepath"
	"strings"
	"testing"

	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/wspath"
)

func newTestRoot(t *testing.T) wspath.Root {
	t.Helper()
	root, err := wspath.NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("NewRoot() error = %v", err)
	}
	return root
}

func TestNewRoot_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := wspath.NewRoot(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("NewRoot() expected error for missing directory")
	}
	if got := issue.CategoryOf(err); got != issue.CategoryConfig {
		t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryConfig)
	}
}

func TestTranslate_PreservesSuffix(t *testing.T) {
	t.Parallel()

	root := newTestRoot(t)

	backendRoots := []string{"/workspace", "/home/ci/bitsmith-build", "remote-dir"}
	suffixes := []string{
		"bitsmith_build_1234.tcl",
		"scripts/build_bitstream.tcl",
		"build/pynq-z2/output",
		"dir with space/file.bit",
	}

	for _, backendRoot := range backendRoots {
		for _, suffix := range suffixes {
			p := root.Join(filepath.FromSlash(suffix))
			got, err := root.Translate(p, backendRoot)
			if err != nil {
				t.Fatalf("Translate(%q, %q) error = %v", p, backendRoot, err)
			}
			if !strings.HasPrefix(got, backendRoot) {
				t.Errorf("Translate(%q, %q) = %q, want prefix %q", p, backendRoot, got, backendRoot)
			}
			if !strings.HasSuffix(got, suffix) {
				t.Errorf("Translate(%q, %q) = %q, want suffix %q", p, backendRoot, got, suffix)
			}
		}
	}
}

func TestTranslate_RootItself(t *testing.T) {
	t.Parallel()

	root := newTestRoot(t)
	got, err := root.Translate(root.String(), "/workspace")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "/workspace" {
		t.Errorf("Translate() = %q, want %q", got, "/workspace")
	}
}

func TestTranslate_OutsideRoot(t *testing.T) {
	t.Parallel()

	root := newTestRoot(t)
	outside := t.TempDir()

	tests := []string{
		outside,
		filepath.Join(outside, "file.bit"),
		filepath.Join(root.String(), "..", "escape.tcl"),
	}
	for _, p := range tests {
		_, err := root.Translate(p, "/workspace")
		if err == nil {
			t.Errorf("Translate(%q) expected error for path outside root", p)
			continue
		}
		if got := issue.CategoryOf(err); got != issue.CategoryConfig {
			t.Errorf("CategoryOf(Translate(%q)) = %v, want %v", p, got, issue.CategoryConfig)
		}
	}
}

func TestRel(t *testing.T) {
	t.Parallel()

	root := newTestRoot(t)
	rel, err := root.Rel(root.Join("a", "b", "c.bit"))
	if err != nil {
		t.Fatalf("Rel() error = %v", err)
	}
	if rel != "a/b/c.bit" {
		t.Errorf("Rel() = %q, want %q", rel, "a/b/c.bit")
	}
}

func TestQuotePosix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "plain", in: "/home/ci/workspace"},
		{name: "space", in: "/home/ci/my workspace/build.tcl"},
		{name: "single quote", in: "/tmp/it's here"},
		{name: "dollar", in: "/tmp/$HOME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := wspath.QuotePosix(tt.in)
			if err != nil {
				t.Fatalf("QuotePosix(%q) error = %v", tt.in, err)
			}
			if tt.in != "/home/ci/workspace" && got == tt.in {
				t.Errorf("QuotePosix(%q) = %q, expected quoting", tt.in, got)
			}
			if strings.ContainsAny(got, "\n") {
				t.Errorf("QuotePosix(%q) = %q contains newline", tt.in, got)
			}
		})
	}
}
