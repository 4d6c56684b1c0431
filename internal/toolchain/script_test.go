// SPDX-License-Identifier: MPL-2.0

package toolchain_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/toolchain"
	"bitsmith-cli/internal/wspath"
)

func TestScript(t *testing.T) {
	t.Parallel()

	got := toolchain.Script(toolchain.ScriptParams{
		Board:     board.PynqZ2,
		Variant:   board.VariantAccel,
		Jobs:      8,
		Force:     true,
		Extension: false,
	})

	for _, line := range []string{
		`set board "pynq-z2"`,
		`set variant "accel"`,
		"set jobs 8",
		"set force 1",
		"set gen_extension 0",
		"source scripts/build_bitstream.tcl",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("Script() missing line %q:\n%s", line, got)
		}
	}
}

func TestWriteScript(t *testing.T) {
	t.Parallel()

	ws, err := wspath.NewRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, cleanup, err := toolchain.WriteScript(ws, toolchain.ScriptParams{
		Board:   board.ZyboZ7,
		Variant: board.VariantBase,
		Jobs:    4,
	})
	if err != nil {
		t.Fatalf("WriteScript() error = %v", err)
	}

	if filepath.Dir(path) != ws.String() {
		t.Errorf("WriteScript() placed script at %q, want workspace root %q", path, ws)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "bitsmith_build_") || !strings.HasSuffix(name, ".tcl") {
		t.Errorf("WriteScript() file name = %q, want bitsmith_build_*.tcl", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading script: %v", err)
	}
	if !strings.Contains(string(data), `set board "zybo-z7"`) {
		t.Errorf("script content missing board selection:\n%s", data)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup() should remove the script")
	}
}

func TestWriteScript_UniquePerCall(t *testing.T) {
	t.Parallel()

	ws, err := wspath.NewRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := toolchain.ScriptParams{Board: board.PynqZ1, Variant: board.VariantBase, Jobs: 1}

	first, cleanup1, err := toolchain.WriteScript(ws, p)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup1()
	second, cleanup2, err := toolchain.WriteScript(ws, p)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup2()

	if first == second {
		t.Errorf("WriteScript() reused path %q across calls", first)
	}
}
