// SPDX-License-Identifier: MPL-2.0

// Package preflight validates that everything a build needs exists in the
// workspace before the multi-minute toolchain run is committed to. All
// checks run before any work starts, and every missing path is reported in
// one batch so an operator fixes the whole set in one round-trip.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/toolchain"
	"bitsmith-cli/internal/wspath"
)

// ExtensionScript generates the custom hardware-extension IP cores.
const ExtensionScript = "scripts/gen_extension_ip.tcl"

// ExtensionSourceDir holds the extension's HDL sources.
const ExtensionSourceDir = "src/extension"

// requirement is a single path that must exist, with its kind for the report.
type requirement struct {
	rel  string
	dir  bool
	desc string
}

// Check verifies all required workspace paths for the request. It returns a
// single preflight-category error listing every missing path, or nil.
func Check(ws wspath.Root, b board.Board, extension bool) error {
	reqs := []requirement{
		{rel: filepath.Join("boards", string(b), "config.tcl"), desc: "board configuration"},
		{rel: filepath.FromSlash(toolchain.BuildProcedure), desc: "shared build procedure"},
	}
	if extension {
		reqs = append(reqs,
			requirement{rel: filepath.FromSlash(ExtensionScript), desc: "extension generation script"},
			requirement{rel: filepath.FromSlash(ExtensionSourceDir), dir: true, desc: "extension source directory"},
		)
	}

	var missing []string
	for _, req := range reqs {
		p := ws.Join(req.rel)
		info, err := os.Stat(p)
		switch {
		case err != nil:
			missing = append(missing, fmt.Sprintf("%s (%s)", p, req.desc))
		case req.dir && !info.IsDir():
			missing = append(missing, fmt.Sprintf("%s (%s, expected a directory)", p, req.desc))
		case !req.dir && info.IsDir():
			missing = append(missing, fmt.Sprintf("%s (%s, expected a file)", p, req.desc))
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return issue.NewErrorContext(issue.CategoryPreflight).
		WithOperation("validate workspace").
		WithResource(ws.String()).
		WithSuggestion("Create the missing paths, or point --workspace at the right source tree").
		Wrap(fmt.Errorf("%d required path(s) missing:\n  %s",
			len(missing), strings.Join(missing, "\n  "))).
		BuildError()
}
