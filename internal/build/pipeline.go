// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"fmt"
	"io"
	"os"

	"bitsmith-cli/internal/artifact"
	"bitsmith-cli/internal/backend"
	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/preflight"
	"bitsmith-cli/internal/toolchain"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// Pipeline runs one build request end to end. The stages are strictly
// sequential: preflight, invoke, resolve, convert. Cancellation comes from
// the context (operator interrupt); deferred cleanups run on every exit
// path, but partially written remote or container state is left for the
// next build.
type Pipeline struct {
	Backend backend.Backend
	Logger  *log.Logger
	Stdout  io.Writer
	Stderr  io.Writer
}

// Run executes the request and returns the final deployable artifact: the
// packaged form where the board requires it, the raw bitstream otherwise.
// The raw bitstream always remains on disk next to the packaged one.
func (p *Pipeline) Run(ctx context.Context, req Request) (*artifact.Artifact, error) {
	if err := preflight.Check(req.Workspace, req.Board, req.Extension); err != nil {
		return nil, err
	}

	outRel := artifact.OutputRel(req.Board)
	if err := os.MkdirAll(req.Workspace.Join(outRel), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	invoker := &toolchain.Invoker{
		Backend: p.Backend,
		Logger:  p.Logger,
		Stdout:  p.Stdout,
		Stderr:  p.Stderr,
	}
	params := toolchain.ScriptParams{
		Board:     req.Board,
		Variant:   req.Variant,
		Jobs:      req.Jobs,
		Force:     req.Force,
		Extension: req.Extension,
	}
	if err := invoker.Run(ctx, req.Workspace, outRel, params); err != nil {
		return nil, err
	}

	outDir := req.Workspace.Join(outRel)
	if newer, ok := artifact.NewerCandidate(outDir, req.Variant); ok {
		p.Logger.Warn("canonical bitstream predates other toolchain output",
			"kept", artifact.CanonicalName(req.Variant), "newer", newer,
			"hint", "rerun with --clean to drop stale output")
	}
	raw, err := artifact.Resolve(outDir, req.Board, req.Variant)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("bitstream resolved", "path", raw.Path, "format", raw.Format)

	converter := &artifact.Converter{
		Toolchain: p.localToolchain(),
		Logger:    p.Logger,
	}
	final, err := converter.Convert(ctx, raw)
	if err != nil {
		return nil, err
	}
	if final.Format == artifact.FormatPackagedBinary {
		p.Logger.Info("bitstream packaged", "path", final.Path, "format", final.Format)
	}
	return final, nil
}

// localToolchain returns the resolved local toolchain path when the local
// backend is in use; the packaging tool is probed next to it.
func (p *Pipeline) localToolchain() string {
	if l, ok := p.Backend.(*backend.Local); ok {
		return l.Toolchain
	}
	return ""
}

// Clean removes a board's prior build output tree.
func Clean(ws wspath.Root, b board.Board, logger *log.Logger) error {
	dir := ws.Join("build", string(b))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Info("nothing to clean", "dir", dir)
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing build output: %w", err)
	}
	logger.Info("removed build output", "dir", dir)
	return nil
}
