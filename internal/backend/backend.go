// SPDX-License-Identifier: MPL-2.0

// Package backend provides the build execution backend abstraction. A
// Backend runs one generated toolchain command script in its execution
// context: the local machine, an ephemeral container, or a remote host over
// SSH. A Backend value is created once per build request from the request's
// flags and never reused.
package backend

import (
	"context"
	"io"

	"bitsmith-cli/internal/wspath"
)

// InvokeSpec describes a single toolchain invocation. ScriptPath and WorkDir
// are local workspace paths; each backend translates them into its own
// filesystem namespace before launching the toolchain.
type InvokeSpec struct {
	// ScriptPath is the generated command script, inside the workspace.
	ScriptPath string
	// WorkDir is the toolchain working directory, inside the workspace.
	WorkDir string
	// Jobs is the parallelism hint forwarded to the toolchain.
	Jobs int
	// Stdout receives the toolchain's standard output.
	Stdout io.Writer
	// Stderr receives the toolchain's standard error.
	Stderr io.Writer
}

// Backend executes a toolchain command script in its execution context.
type Backend interface {
	// Name returns the backend name (local, container, remote).
	Name() string
	// Invoke runs the toolchain against the command script. A nonzero
	// toolchain exit surfaces as a toolchain-category error; launch-layer
	// failures surface under their own categories.
	Invoke(ctx context.Context, ws wspath.Root, spec InvokeSpec) error
}

// Syncer is implemented by backends whose filesystem namespace is not shared
// with the local workspace and must be mirrored explicitly around the
// invocation. Only the remote backend implements it.
type Syncer interface {
	// SyncIn mirrors the workspace into the backend before invocation.
	SyncIn(ctx context.Context, ws wspath.Root) error
	// SyncOut retrieves files matching patterns from the backend's outRel
	// directory back into the workspace after invocation.
	SyncOut(ctx context.Context, ws wspath.Root, outRel string, patterns []string) error
}

// toolchainArgs is the fixed batch-mode argument set the toolchain is
// launched with in every backend. Journal and log files are suppressed so
// repeated builds do not litter the workspace (they are also excluded from
// remote sync).
func toolchainArgs(scriptPath string) []string {
	return []string{"-mode", "batch", "-nojournal", "-nolog", "-source", scriptPath}
}
