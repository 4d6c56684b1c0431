// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"io"

	"bitsmith-cli/internal/backend"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// ArtifactPatterns are the file name patterns retrieved from a remote
// output directory after invocation. Nothing else is pulled back.
var ArtifactPatterns = []string{"*.bit", "*.bit.bin"}

// Invoker dispatches a generated command script through a backend. For
// backends with a detached filesystem namespace it also drives the
// before/after workspace synchronization.
type Invoker struct {
	Backend backend.Backend
	Logger  *log.Logger
	Stdout  io.Writer
	Stderr  io.Writer
}

// Run generates the command script, executes it through the backend, and
// removes the script on every exit path. For the remote backend the order
// is: connectivity probe and sync-in, invoke, sync artifacts out. A nonzero
// toolchain exit aborts before the artifact sync.
func (i *Invoker) Run(ctx context.Context, ws wspath.Root, outRel string, p ScriptParams) error {
	scriptPath, cleanup, err := WriteScript(ws, p)
	if err != nil {
		return err
	}
	defer cleanup()

	// The working directory is the workspace root, not the output
	// directory: build/ is excluded from remote sync and may not exist in
	// the backend namespace until the shared Tcl procedure creates it.
	spec := backend.InvokeSpec{
		ScriptPath: scriptPath,
		WorkDir:    ws.String(),
		Jobs:       p.Jobs,
		Stdout:     i.Stdout,
		Stderr:     i.Stderr,
	}

	syncer, needsSync := i.Backend.(backend.Syncer)
	if needsSync {
		i.Logger.Info("mirroring workspace", "backend", i.Backend.Name())
		if err := syncer.SyncIn(ctx, ws); err != nil {
			return err
		}
	}

	if err := i.Backend.Invoke(ctx, ws, spec); err != nil {
		return err
	}

	if needsSync {
		i.Logger.Info("retrieving artifacts", "dir", outRel)
		if err := syncer.SyncOut(ctx, ws, outRel, ArtifactPatterns); err != nil {
			return err
		}
	}
	return nil
}
