// SPDX-License-Identifier: MPL-2.0

// Package toolchain constructs the toolchain command script for a build
// request and dispatches it through the selected backend. The script is the
// only thing this package knows about the toolchain's scripting surface;
// the build steps themselves live in the workspace's shared Tcl procedures.
package toolchain

import (
	"fmt"
	"os"
	"strings"

	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/wspath"
)

// BuildProcedure is the shared build entry point inside the workspace that
// the generated script delegates to.
const BuildProcedure = "scripts/build_bitstream.tcl"

// scriptPattern names the transient command script. It lives at the
// workspace root so its path survives translation into backend and remote
// roots; the wildcard keeps concurrent workspaces from colliding on reruns.
const scriptPattern = "bitsmith_build_*.tcl"

// ScriptParams are the inputs interpolated into the command script.
type ScriptParams struct {
	Board     board.Board
	Variant   board.Variant
	Jobs      int
	Force     bool
	Extension bool
}

// Script renders the Tcl command script: board and variant selection, the
// parallelism hint, optional force and extension directives, then a
// delegation to the shared build procedure.
func Script(p ScriptParams) string {
	var sb strings.Builder
	sb.WriteString("# generated by bitsmith; removed after the build\n")
	fmt.Fprintf(&sb, "set board %q\n", string(p.Board))
	fmt.Fprintf(&sb, "set variant %q\n", string(p.Variant))
	fmt.Fprintf(&sb, "set jobs %d\n", p.Jobs)
	fmt.Fprintf(&sb, "set force %d\n", boolToTcl(p.Force))
	fmt.Fprintf(&sb, "set gen_extension %d\n", boolToTcl(p.Extension))
	fmt.Fprintf(&sb, "source %s\n", BuildProcedure)
	return sb.String()
}

// WriteScript writes the command script to a uniquely named file at the
// workspace root and returns its path with a cleanup function. Callers must
// defer the cleanup so the script is removed on every exit path.
func WriteScript(ws wspath.Root, p ScriptParams) (string, func(), error) {
	f, err := os.CreateTemp(ws.String(), scriptPattern)
	if err != nil {
		return "", nil, fmt.Errorf("creating command script: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.WriteString(Script(p)); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing command script: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing command script: %w", err)
	}
	return path, cleanup, nil
}

func boolToTcl(b bool) int {
	if b {
		return 1
	}
	return 0
}
