// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"bitsmith-cli/internal/config"
	"bitsmith-cli/internal/issue"
)

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("build failed")
	err := &ExitError{Code: 1, Err: cause}
	if err.Error() != "build failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}

	bare := &ExitError{Code: 3}
	if bare.Error() != "exit status 3" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("formatErrorForDisplay() = %q", got)
	}

	actionable := issue.NewErrorContext(issue.CategoryPreflight).
		WithOperation("validate workspace").
		WithSuggestion("Create the missing paths").
		Wrap(errors.New("2 required path(s) missing")).
		BuildError()

	got := formatErrorForDisplay(actionable, false)
	if !strings.Contains(got, "preflight error") {
		t.Errorf("formatErrorForDisplay() missing category: %q", got)
	}
	if !strings.Contains(got, "  • Create the missing paths") {
		t.Errorf("formatErrorForDisplay() missing suggestion: %q", got)
	}

	if got := formatErrorForDisplay(actionable, true); !strings.Contains(got, "Error chain:") {
		t.Errorf("formatErrorForDisplay(verbose) missing chain: %q", got)
	}
}

func TestBackendOptions_FlagsWinOverConfig(t *testing.T) {
	cfg := &config.Config{
		Toolchain:       "/from/config/vivado",
		ContainerEngine: "docker",
		Remote: config.RemoteConfig{
			Host: "config-host",
			Port: 22,
			Dir:  "bitsmith-build",
		},
	}

	flags := buildCmd.Flags()
	if err := flags.Set("remote-host", "flag-host"); err != nil {
		t.Fatal(err)
	}
	if err := flags.Set("remote-port", "2222"); err != nil {
		t.Fatal(err)
	}

	opts := backendOptions(buildCmd, cfg)
	if opts.RemoteHost != "flag-host" {
		t.Errorf("RemoteHost = %q, flag must win over config", opts.RemoteHost)
	}
	if opts.RemotePort != 2222 {
		t.Errorf("RemotePort = %d, flag must win over config", opts.RemotePort)
	}
	if opts.Toolchain != "/from/config/vivado" {
		t.Errorf("Toolchain = %q, unset flag must fall back to config", opts.Toolchain)
	}
	if opts.RemoteDir != "bitsmith-build" {
		t.Errorf("RemoteDir = %q, unset flag must fall back to config", opts.RemoteDir)
	}
}

func TestBoardsCommand(t *testing.T) {
	var buf bytes.Buffer
	boardsCmd.SetOut(&buf)

	if err := boardsCmd.RunE(boardsCmd, nil); err != nil {
		t.Fatalf("boards error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"pynq-z1", "pynq-z2", "zybo-z7", ".bit.bin", "base, accel, debug"} {
		if !strings.Contains(out, want) {
			t.Errorf("boards output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionString(t *testing.T) {
	if got := getVersionString(); !strings.Contains(got, "dev") {
		t.Errorf("getVersionString() = %q, want dev default", got)
	}
}
