// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strconv"
	"strings"

	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/mirror"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// sshConnectionExitCode is the exit status ssh itself returns when the
// connection or session fails, as opposed to the remote command's status.
const sshConnectionExitCode = 255

// remoteToolchainDefault is used when no remote toolchain path is
// configured; it relies on the login environment putting the toolchain on
// PATH.
const remoteToolchainDefault = "vivado"

// Remote executes the toolchain on a remote host over SSH. The toolchain
// runs in a login-equivalent shell so the environment customization its
// install depends on (settings scripts sourced from the profile) is loaded.
type Remote struct {
	// Host is the remote host name or address.
	Host string
	// User is the remote login user.
	User string
	// Port is the SSH port.
	Port int
	// RootDir is the workspace mirror root on the remote host. A relative
	// path is relative to the login home directory.
	RootDir string
	// Toolchain is the toolchain binary on the remote host ("" means PATH).
	Toolchain string

	mirror      *mirror.Mirror
	logger      *log.Logger
	execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
	lookPath    func(string) (string, error)
}

// NewRemote creates a remote backend for the given SSH endpoint.
func NewRemote(host, user string, port int, rootDir, toolchain string, logger *log.Logger) *Remote {
	return &Remote{
		Host:        host,
		User:        user,
		Port:        port,
		RootDir:     rootDir,
		Toolchain:   toolchain,
		mirror:      mirror.New(host, user, port, logger),
		logger:      logger,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
	}
}

// Name returns the backend name.
func (b *Remote) Name() string { return "remote" }

// SyncIn probes connectivity, then mirrors the workspace to the remote root.
// The probe runs first so an unreachable host fails before any transfer
// starts.
func (b *Remote) SyncIn(ctx context.Context, ws wspath.Root) error {
	if err := b.mirror.Probe(ctx); err != nil {
		return err
	}
	return b.mirror.Push(ctx, ws.String(), b.RootDir)
}

// SyncOut pulls files matching patterns from the remote outRel directory
// back into the same workspace-relative location locally.
func (b *Remote) SyncOut(ctx context.Context, ws wspath.Root, outRel string, patterns []string) error {
	return b.mirror.PullArtifacts(ctx, path.Join(b.RootDir, outRel), ws.Join(outRel), patterns)
}

// Invoke runs the toolchain over an SSH session. The command line is built
// from translated, shell-quoted paths and executed under "bash -lc" so the
// login profile is sourced.
func (b *Remote) Invoke(ctx context.Context, ws wspath.Root, spec InvokeSpec) error {
	remoteCmd, err := b.remoteCommand(ws, spec)
	if err != nil {
		return err
	}

	sshPath, err := b.lookPath("ssh")
	if err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("invoke remote toolchain").
			WithResource(b.mirror.Target()).
			WithSuggestion("Install an OpenSSH client").
			Wrap(err).
			BuildError()
	}

	b.logger.Info("invoking toolchain", "backend", b.Name(), "host", b.Host, "dir", b.RootDir)

	args := []string{"-p", strconv.Itoa(b.Port), "-o", "BatchMode=yes", b.mirror.Target(), remoteCmd}
	cmd := b.execCommand(ctx, sshPath, args...)
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == sshConnectionExitCode {
				return issue.NewErrorContext(issue.CategoryConnectivity).
					WithOperation("invoke remote toolchain").
					WithResource(b.mirror.Target()).
					WithSuggestion("Check the SSH connection and retry").
					Wrap(fmt.Errorf("ssh session failed")).
					BuildError()
			}
			return issue.NewErrorContext(issue.CategoryToolchain).
				WithOperation("build bitstream").
				WithResource(b.mirror.Target()).
				WithSuggestion("Inspect the toolchain output above for the failing step").
				Wrap(fmt.Errorf("toolchain exited with status %d", exitErr.ExitCode())).
				BuildError()
		}
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("invoke remote toolchain").
			WithResource(b.mirror.Target()).
			Wrap(err).
			BuildError()
	}
	return nil
}

// remoteCommand builds the login-shell command string executed on the
// remote host. Every interpolated path is quoted; workspace paths with
// spaces must survive the remote shell's parsing.
func (b *Remote) remoteCommand(ws wspath.Root, spec InvokeSpec) (string, error) {
	scriptPath, err := ws.Translate(spec.ScriptPath, b.RootDir)
	if err != nil {
		return "", err
	}
	workDir, err := ws.Translate(spec.WorkDir, b.RootDir)
	if err != nil {
		return "", err
	}

	toolchain := b.Toolchain
	if toolchain == "" {
		toolchain = remoteToolchainDefault
	}

	parts := make([]string, 0, 4)
	for _, raw := range []string{workDir, toolchain, scriptPath} {
		quoted, err := wspath.QuotePosix(raw)
		if err != nil {
			return "", err
		}
		parts = append(parts, quoted)
	}
	inner := fmt.Sprintf("cd %s && %s %s", parts[0], parts[1], strings.Join(toolchainArgs(parts[2]), " "))

	quotedInner, err := wspath.QuotePosix(inner)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString("bash -lc ")
	buf.WriteString(quotedInner)
	return buf.String(), nil
}
