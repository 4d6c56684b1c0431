// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bitsmith-cli/internal/issue"

	"github.com/charmbracelet/log"
)

// packagingTool is the external tool producing the device-loadable
// container format.
const packagingTool = "bootgen"

// Injection points for tests.
var (
	lookPath    = exec.LookPath
	execCommand = exec.CommandContext
	globPath    = filepath.Glob
)

// Converter packages a raw bitstream into the .bit.bin container format
// required by boards whose Linux image loads bitstreams through
// fpga_manager.
type Converter struct {
	// Toolchain is the resolved toolchain binary path, used as a hint for
	// locating the packaging tool next to it. May be empty.
	Toolchain string
	// Logger receives verification warnings.
	Logger *log.Logger
}

// Convert produces the packaged form of a raw bitstream artifact. On boards
// where the raw format is directly usable and the packaging tool is absent,
// conversion is skipped and the original artifact is returned unchanged.
// On boards requiring the packaged form, a missing tool is an artifact
// error. The original artifact is never modified; the packaged file is
// created alongside it.
func (c *Converter) Convert(ctx context.Context, art *Artifact) (*Artifact, error) {
	mandatory := art.Board.RequiresPackagedBitstream()

	tool, err := c.locateTool()
	if err != nil {
		if !mandatory {
			c.Logger.Debug("packaging tool not found, raw bitstream is directly usable", "board", art.Board)
			return art, nil
		}
		return nil, issue.NewErrorContext(issue.CategoryArtifact).
			WithOperation("locate packaging tool").
			WithResource(packagingTool).
			WithSuggestion("Install the toolchain's SDK tools or add bootgen to PATH").
			Wrap(err).
			BuildError()
	}

	outDir := filepath.Dir(art.Path)
	bifPath := filepath.Join(outDir, string(art.Variant)+".bif")
	if err := os.WriteFile(bifPath, []byte(descriptor(filepath.Base(art.Path))), 0o644); err != nil {
		return nil, fmt.Errorf("writing packaging descriptor: %w", err)
	}
	defer os.Remove(bifPath)

	cmd := execCommand(ctx, tool,
		"-image", filepath.Base(bifPath),
		"-arch", "zynq",
		"-process_bitstream", "bin",
		"-w",
	)
	cmd.Dir = outDir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return nil, issue.NewErrorContext(issue.CategoryArtifact).
			WithOperation("package bitstream").
			WithResource(art.Path).
			Wrap(fmt.Errorf("%s: %w: %s", packagingTool, err, strings.TrimSpace(output.String()))).
			BuildError()
	}

	packaged := &Artifact{
		Path:    filepath.Join(outDir, PackagedName(art.Variant)),
		Board:   art.Board,
		Variant: art.Variant,
		Format:  FormatPackagedBinary,
	}

	// Best-effort post-conversion check; a surprise here is worth a warning
	// but not an abort.
	if info, err := os.Stat(packaged.Path); err != nil || info.Size() == 0 {
		c.Logger.Warn("packaged bitstream verification failed",
			"path", packaged.Path, "err", err)
	}

	return packaged, nil
}

// descriptor renders the transient packaging descriptor naming the single
// input bitstream. Paths are relative to the descriptor's directory.
func descriptor(bitName string) string {
	return fmt.Sprintf("all:\n{\n\t[destination_device = pl] %s\n}\n", bitName)
}

// locateTool finds the packaging tool: the ambient search path first, then
// a sibling of the toolchain binary, then a broad scan of conventional
// install roots. The scan is best-effort; unusual installs still need the
// tool on PATH.
func (c *Converter) locateTool() (string, error) {
	if path, err := lookPath(packagingTool); err == nil {
		return path, nil
	}

	if c.Toolchain != "" {
		sibling := filepath.Join(filepath.Dir(c.Toolchain), packagingTool)
		if info, err := os.Stat(sibling); err == nil && info.Mode().IsRegular() {
			return sibling, nil
		}
	}

	for _, pattern := range []string{
		"/tools/Xilinx/Vivado/*/bin/" + packagingTool,
		"/tools/Xilinx/*/*/bin/" + packagingTool,
		"/opt/Xilinx/Vivado/*/bin/" + packagingTool,
	} {
		if matches, _ := globPath(pattern); len(matches) > 0 {
			return matches[0], nil
		}
	}

	return "", errors.New("packaging tool not found")
}
