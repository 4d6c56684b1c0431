// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// Local executes the toolchain binary directly on this machine.
type Local struct {
	// Toolchain is the resolved toolchain binary path.
	Toolchain string

	logger      *log.Logger
	execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewLocal creates a local backend around a resolved toolchain binary.
func NewLocal(toolchain string, logger *log.Logger) *Local {
	return &Local{
		Toolchain:   toolchain,
		logger:      logger,
		execCommand: exec.CommandContext,
	}
}

// Name returns the backend name.
func (b *Local) Name() string { return "local" }

// Invoke runs the toolchain against the local script path with the working
// directory set to the spec's build directory. The invocation is one opaque
// blocking call; internal toolchain parallelism is not observed here.
func (b *Local) Invoke(ctx context.Context, ws wspath.Root, spec InvokeSpec) error {
	// Paths stay local, but still must be under the workspace root.
	if _, err := ws.Rel(spec.ScriptPath); err != nil {
		return err
	}
	if _, err := ws.Rel(spec.WorkDir); err != nil {
		return err
	}

	b.logger.Info("invoking toolchain", "backend", b.Name(), "binary", b.Toolchain)

	cmd := b.execCommand(ctx, b.Toolchain, toolchainArgs(spec.ScriptPath)...)
	cmd.Dir = spec.WorkDir
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return issue.NewErrorContext(issue.CategoryToolchain).
				WithOperation("build bitstream").
				WithResource(b.Toolchain).
				WithSuggestion("Inspect the toolchain output above for the failing step").
				Wrap(fmt.Errorf("toolchain exited with status %d", exitErr.ExitCode())).
				BuildError()
		}
		return issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("launch toolchain").
			WithResource(b.Toolchain).
			Wrap(err).
			BuildError()
	}
	return nil
}
