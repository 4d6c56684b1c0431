// SPDX-License-Identifier: MPL-2.0

// Package artifact locates the toolchain's bitstream output among its known
// naming conventions, establishes a variant-qualified canonical name, and
// converts it into the device-loadable container format where the target
// board's OS generation requires it.
package artifact

import (
	"path/filepath"

	"bitsmith-cli/internal/board"
)

// Format tags the on-disk form of a build artifact.
type Format string

const (
	// FormatRawBitstream is the toolchain's raw .bit output.
	FormatRawBitstream Format = "raw-bitstream"
	// FormatPackagedBinary is the bootgen-packaged .bit.bin container.
	FormatPackagedBinary Format = "packaged-binary"
)

// Artifact is a resolved build output. Values are never mutated after
// creation; conversion produces a new Artifact alongside the original.
type Artifact struct {
	// Path is the resolved file path.
	Path string
	// Board is the target board.
	Board board.Board
	// Variant is the design variant.
	Variant board.Variant
	// Format tags the on-disk form.
	Format Format
}

// OutputRel returns the workspace-relative output directory for a board.
func OutputRel(b board.Board) string {
	return filepath.ToSlash(filepath.Join("build", string(b), "output"))
}

// CanonicalName returns the variant-qualified raw bitstream file name.
func CanonicalName(v board.Variant) string {
	return string(v) + ".bit"
}

// PackagedName returns the packaged container file name for a variant.
func PackagedName(v board.Variant) string {
	return CanonicalName(v) + ".bin"
}
