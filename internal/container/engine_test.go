// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

// commandRecorder records engine command lines and simulates their outcome
// through the test binary's helper process.
type commandRecorder struct {
	commands [][]string
	exitCode int
	stdout   string
}

func (r *commandRecorder) exec(ctx context.Context, name string, arg ...string) *exec.Cmd {
	r.commands = append(r.commands, append([]string{name}, arg...))
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"GO_HELPER_EXIT_CODE="+strconv.Itoa(r.exitCode),
		"GO_HELPER_STDOUT="+r.stdout,
	)
	return cmd
}

// TestHelperProcess is the subprocess body for commandRecorder.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if out := os.Getenv("GO_HELPER_STDOUT"); out != "" {
		os.Stdout.WriteString(out)
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/docker")
	args := e.RunArgs(RunOptions{
		Image:    "xilinx/vivado:2022.1",
		Command:  []string{"vivado", "-mode", "batch"},
		WorkDir:  "/workspace",
		Env:      map[string]string{"B": "2", "A": "1"},
		Volumes:  []string{"/home/ci/proj:/workspace"},
		Platform: "linux/amd64",
		Remove:   true,
	})

	want := "run --rm --platform linux/amd64 -w /workspace " +
		"-v /home/ci/proj:/workspace -e A=1 -e B=2 " +
		"xilinx/vivado:2022.1 vivado -mode batch"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("RunArgs() = %q, want %q", got, want)
	}
}

func TestRunArgs_PodmanUserns(t *testing.T) {
	t.Parallel()

	e := NewPodmanEngine()
	args := e.RunArgs(RunOptions{Image: "img", Remove: true})

	if len(args) < 2 || args[0] != "run" || args[1] != "--userns=keep-id" {
		t.Errorf("RunArgs() = %v, want --userns=keep-id right after run", args)
	}
}

func TestRun_ExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		exitCode int
	}{
		{name: "success", exitCode: 0},
		{name: "toolchain failure", exitCode: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := &commandRecorder{exitCode: tt.exitCode}
			e := NewBaseCLIEngine("/usr/bin/docker", WithExecCommand(recorder.exec))

			var stdout bytes.Buffer
			result, err := e.Run(context.Background(), RunOptions{
				Image:   "xilinx/vivado:2022.1",
				Command: []string{"vivado"},
				Stdout:  &stdout,
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if result.ExitCode != tt.exitCode {
				t.Errorf("Run() exit code = %d, want %d", result.ExitCode, tt.exitCode)
			}
			if result.Error != nil {
				t.Errorf("Run() engine error = %v, want nil", result.Error)
			}
		})
	}
}

func TestDockerEngine_Version(t *testing.T) {
	t.Parallel()

	recorder := &commandRecorder{stdout: "27.3.1\n"}
	e := &DockerEngine{BaseCLIEngine: NewBaseCLIEngine("/usr/bin/docker", WithExecCommand(recorder.exec))}

	got, err := e.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if got != "27.3.1" {
		t.Errorf("Version() = %q, want %q", got, "27.3.1")
	}
	cmd := strings.Join(recorder.commands[0], " ")
	if !strings.Contains(cmd, "version --format") {
		t.Errorf("Version() command = %q", cmd)
	}
}

func TestEngineNotAvailableError(t *testing.T) {
	t.Parallel()

	err := &ErrEngineNotAvailable{Engine: "docker", Reason: "daemon not running"}
	if !strings.Contains(err.Error(), "docker") || !strings.Contains(err.Error(), "daemon not running") {
		t.Errorf("Error() = %q", err.Error())
	}
}
