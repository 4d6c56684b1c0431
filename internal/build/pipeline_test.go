// SPDX-License-Identifier: MPL-2.0

package build_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"bitsmith-cli/internal/artifact"
	"bitsmith-cli/internal/backend"
	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/build"
	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// scriptedBackend pretends to be the toolchain: on Invoke it drops the given
// output files into the board's output directory, like a successful
// implementation run would.
type scriptedBackend struct {
	outputs []string
	invoked bool
}

func (f *scriptedBackend) Name() string { return "scripted" }

func (f *scriptedBackend) Invoke(_ context.Context, ws wspath.Root, spec backend.InvokeSpec) error {
	f.invoked = true
	if _, err := os.Stat(spec.ScriptPath); err != nil {
		return err
	}
	for _, rel := range f.outputs {
		p := ws.Join(filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte("bitstream-payload"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func scaffoldWorkspace(t *testing.T, b board.Board) wspath.Root {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range []string{
		filepath.Join("boards", string(b), "config.tcl"),
		filepath.Join("scripts", "build_bitstream.tcl"),
	} {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("# tcl\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ws, err := wspath.NewRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func testRequest(ws wspath.Root, b board.Board) build.Request {
	return build.Request{
		Board:     b,
		Variant:   board.VariantBase,
		Jobs:      2,
		Workspace: ws,
	}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	ws := scaffoldWorkspace(t, board.ZyboZ7)
	be := &scriptedBackend{outputs: []string{"build/zybo-z7/output/system_wrapper.bit"}}
	p := &build.Pipeline{Backend: be, Logger: log.New(io.Discard)}

	art, err := p.Run(context.Background(), testRequest(ws, board.ZyboZ7))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !be.invoked {
		t.Fatal("backend was never invoked")
	}
	if art.Format != artifact.FormatRawBitstream {
		t.Errorf("Run() format = %q, want raw bitstream for zybo-z7 without bootgen", art.Format)
	}
	if art.Path != ws.Join("build", "zybo-z7", "output", "base.bit") {
		t.Errorf("Run() path = %q", art.Path)
	}
	if _, err := os.Stat(art.Path); err != nil {
		t.Errorf("final artifact missing: %v", err)
	}
}

func TestPipelineRun_PreflightAbortsBeforeInvocation(t *testing.T) {
	t.Parallel()

	ws, err := wspath.NewRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	be := &scriptedBackend{}
	p := &build.Pipeline{Backend: be, Logger: log.New(io.Discard)}

	_, err = p.Run(context.Background(), testRequest(ws, board.PynqZ2))
	if err == nil {
		t.Fatal("Run() expected preflight error for empty workspace")
	}
	if got := issue.CategoryOf(err); got != issue.CategoryPreflight {
		t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryPreflight)
	}
	if be.invoked {
		t.Error("backend must not be invoked when preflight fails")
	}
}

func TestPipelineRun_NoArtifactProduced(t *testing.T) {
	t.Parallel()

	ws := scaffoldWorkspace(t, board.ZyboZ7)
	p := &build.Pipeline{Backend: &scriptedBackend{}, Logger: log.New(io.Discard)}

	_, err := p.Run(context.Background(), testRequest(ws, board.ZyboZ7))
	if err == nil {
		t.Fatal("Run() expected error when the toolchain produced no bitstream")
	}
	if got := issue.CategoryOf(err); got != issue.CategoryArtifact {
		t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryArtifact)
	}
}

func TestRequestNormalize(t *testing.T) {
	t.Parallel()

	req := build.Request{Board: board.PynqZ2}
	if err := req.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if req.Jobs != runtime.NumCPU() {
		t.Errorf("Normalize() jobs = %d, want CPU count %d", req.Jobs, runtime.NumCPU())
	}
	if req.BackendOptions.Board != board.PynqZ2 {
		t.Errorf("Normalize() should propagate the board to backend options")
	}
}

func TestRequestNormalize_NegativeJobs(t *testing.T) {
	t.Parallel()

	req := build.Request{Board: board.PynqZ2, Jobs: -1}
	err := req.Normalize()
	if err == nil {
		t.Fatal("Normalize() expected error for negative jobs")
	}
	if got := issue.CategoryOf(err); got != issue.CategoryConfig {
		t.Errorf("CategoryOf() = %v, want %v", got, issue.CategoryConfig)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	ws := scaffoldWorkspace(t, board.PynqZ2)
	stale := ws.Join("build", "pynq-z2", "output", "base.bit")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := build.Clean(ws, board.PynqZ2, log.New(io.Discard)); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if _, err := os.Stat(ws.Join("build", "pynq-z2")); !os.IsNotExist(err) {
		t.Error("Clean() should remove the board's build tree")
	}

	// Cleaning again is a no-op.
	if err := build.Clean(ws, board.PynqZ2, log.New(io.Discard)); err != nil {
		t.Errorf("Clean() on missing dir error = %v", err)
	}
}
