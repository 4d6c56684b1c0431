// SPDX-License-Identifier: MPL-2.0

// Package board defines the supported target boards and build variants,
// along with the per-board metadata the rest of the pipeline keys off:
// default toolchain install locations and whether the board's Linux image
// requires the packaged bitstream container format.
package board

import (
	"fmt"
	"strings"
)

// Board identifies a supported target board.
type Board string

// Variant identifies a hardware design variant.
type Variant string

const (
	// PynqZ1 is the Digilent PYNQ-Z1 (Zynq-7020).
	PynqZ1 Board = "pynq-z1"
	// PynqZ2 is the TUL PYNQ-Z2 (Zynq-7020).
	PynqZ2 Board = "pynq-z2"
	// ZyboZ7 is the Digilent Zybo Z7 (Zynq-7010/7020).
	ZyboZ7 Board = "zybo-z7"
)

const (
	// VariantBase is the default design variant.
	VariantBase Variant = "base"
	// VariantAccel adds the acceleration fabric to the base design.
	VariantAccel Variant = "accel"
	// VariantDebug builds the base design with ILA debug cores inserted.
	VariantDebug Variant = "debug"
)

// meta holds the static per-board attributes.
type meta struct {
	// toolchainVersion is the Vivado release the board files were validated
	// against; used to derive the well-known install path.
	toolchainVersion string
	// packagedBitstream is true when the board's Linux image loads bitstreams
	// through fpga_manager, which only accepts the .bit.bin container format.
	// Boards without it load the raw .bit directly via xdevcfg.
	packagedBitstream bool
}

var boards = map[Board]meta{
	PynqZ1: {toolchainVersion: "2022.1", packagedBitstream: true},
	PynqZ2: {toolchainVersion: "2022.1", packagedBitstream: true},
	ZyboZ7: {toolchainVersion: "2020.2", packagedBitstream: false},
}

var variants = map[Variant]struct{}{
	VariantBase:  {},
	VariantAccel: {},
	VariantDebug: {},
}

// All returns the supported boards in stable order.
func All() []Board {
	return []Board{PynqZ1, PynqZ2, ZyboZ7}
}

// Variants returns the supported design variants in stable order.
func Variants() []Variant {
	return []Variant{VariantBase, VariantAccel, VariantDebug}
}

// Parse validates a board name from user input.
func Parse(s string) (Board, error) {
	b := Board(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := boards[b]; !ok {
		return "", fmt.Errorf("unknown board %q (supported: %s)", s, joinBoards())
	}
	return b, nil
}

// ParseVariant validates a variant name from user input.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := variants[v]; !ok {
		names := make([]string, 0, len(variants))
		for _, kv := range Variants() {
			names = append(names, string(kv))
		}
		return "", fmt.Errorf("unknown variant %q (supported: %s)", s, strings.Join(names, ", "))
	}
	return v, nil
}

// RequiresPackagedBitstream reports whether the board's OS generation can
// only load the packaged .bit.bin form. When false the raw .bit is directly
// usable and packaging is best-effort.
func (b Board) RequiresPackagedBitstream() bool {
	return boards[b].packagedBitstream
}

// ToolchainVersion returns the Vivado release the board targets.
func (b Board) ToolchainVersion() string {
	return boards[b].toolchainVersion
}

// WellKnownToolchainPath returns the conventional install location of the
// toolchain binary for this board's release. The path is a convention, not a
// guarantee; callers must still check the binary exists.
func (b Board) WellKnownToolchainPath() string {
	return fmt.Sprintf("/tools/Xilinx/Vivado/%s/bin/vivado", boards[b].toolchainVersion)
}

func joinBoards() string {
	names := make([]string, 0, len(boards))
	for _, b := range All() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}
