// SPDX-License-Identifier: MPL-2.0

// Package build wires the pipeline together: preflight validation, the
// toolchain invocation through the selected backend, artifact resolution,
// and format conversion. The stages run strictly in that order; there is no
// concurrency to coordinate within one request.
package build

import (
	"fmt"
	"runtime"

	"bitsmith-cli/internal/backend"
	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/wspath"
)

// Request captures one build's inputs as an immutable value, constructed
// once in the CLI layer and threaded explicitly through every component.
type Request struct {
	// Board is the target board.
	Board board.Board
	// Variant is the design variant.
	Variant board.Variant
	// Jobs is the parallelism hint passed to the toolchain.
	Jobs int
	// Force permits overwriting existing generated project state.
	Force bool
	// Extension requests custom hardware-extension IP generation.
	Extension bool
	// Workspace is the local source tree root.
	Workspace wspath.Root

	// BackendOptions holds the raw backend-selection inputs.
	BackendOptions backend.Options
}

// Normalize fills derived defaults and validates the request's scalar
// fields. Backend selection is validated separately by backend.Select.
func (r *Request) Normalize() error {
	if r.Jobs == 0 {
		r.Jobs = runtime.NumCPU()
	}
	if r.Jobs < 0 {
		return issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("validate request").
			Wrap(fmt.Errorf("jobs must be positive, got %d", r.Jobs)).
			BuildError()
	}
	r.BackendOptions.Board = r.Board
	return nil
}
