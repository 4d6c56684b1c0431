// SPDX-License-Identifier: MPL-2.0

// Package mirror implements the one-way workspace synchronization used by
// the remote build backend: push the workspace to the remote root before
// invocation, pull only bitstream artifacts back afterwards. Transfers
// prefer rsync's delta protocol and fall back to a full recursive scp copy
// when rsync is not installed.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// ExcludePatterns is the exact set of workspace subtrees and file patterns
// never transferred to the remote root. Entries ending in "/" exclude a
// directory at any depth; the rest are file-name globs. Prior build outputs
// and toolchain caches dominate workspace size and must never ride along.
var ExcludePatterns = []string{
	".git/",
	"build/",
	".Xil/",
	"*.jou",
	"*.log",
	"*.str",
}

// ExecCommandFunc is the function signature for creating exec.Cmd.
// This allows injection of mock implementations for testing.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Mirror synchronizes a local workspace with a remote root over SSH.
// All operations are synchronous and blocking.
type Mirror struct {
	// Host is the remote host name or address.
	Host string
	// User is the remote login user ("" means the SSH default).
	User string
	// Port is the SSH port.
	Port int

	logger      *log.Logger
	execCommand ExecCommandFunc
	lookPath    func(string) (string, error)
}

// New creates a Mirror for the given SSH endpoint.
func New(host, user string, port int, logger *log.Logger) *Mirror {
	return &Mirror{
		Host:        host,
		User:        user,
		Port:        port,
		logger:      logger,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
	}
}

// Target returns the SSH destination in user@host form.
func (m *Mirror) Target() string {
	if m.User != "" {
		return m.User + "@" + m.Host
	}
	return m.Host
}

// sshOptions are the base ssh client options: non-interactive auth only, so
// a missing key fails fast instead of hanging on a password prompt.
func (m *Mirror) sshOptions() []string {
	return []string{"-p", strconv.Itoa(m.Port), "-o", "BatchMode=yes"}
}

// Probe verifies the remote host is reachable and accepts our credentials.
// It runs before any workspace mutation; a failure here is a connectivity
// error, never a toolchain one.
func (m *Mirror) Probe(ctx context.Context) error {
	sshPath, err := m.lookPath("ssh")
	if err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("probe remote host").
			WithResource(m.Target()).
			WithSuggestion("Install an OpenSSH client").
			Wrap(err).
			BuildError()
	}

	args := append(m.sshOptions(), m.Target(), "true")
	cmd := m.execCommand(ctx, sshPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("probe remote host").
			WithResource(m.Target()).
			WithSuggestion("Check the host name, port and that your SSH key is authorized").
			WithSuggestion(fmt.Sprintf("Try: ssh -p %d %s true", m.Port, m.Target())).
			Wrap(fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))).
			BuildError()
	}
	return nil
}

// Push mirrors localRoot to remoteRoot, honoring ExcludePatterns exactly.
// rsync is preferred for its delta transfer; when absent the workspace is
// staged through a filtered copy and sent with scp -r. Neither tool
// available is a connectivity error.
func (m *Mirror) Push(ctx context.Context, localRoot, remoteRoot string) error {
	if rsyncPath, err := m.lookPath("rsync"); err == nil {
		return m.pushRsync(ctx, rsyncPath, localRoot, remoteRoot)
	}
	if scpPath, err := m.lookPath("scp"); err == nil {
		m.logger.Warn("rsync not found, falling back to full recursive copy", "tool", "scp")
		return m.pushScp(ctx, scpPath, localRoot, remoteRoot)
	}
	return issue.NewErrorContext(issue.CategoryConnectivity).
		WithOperation("mirror workspace").
		WithResource(m.Target()).
		WithSuggestion("Install rsync (preferred) or scp").
		Wrap(errors.New("neither rsync nor scp is available")).
		BuildError()
}

func (m *Mirror) pushRsync(ctx context.Context, rsyncPath, localRoot, remoteRoot string) error {
	// The remote operand is parsed by the remote shell; the root must be
	// quoted or a path with spaces silently splits into several targets.
	remoteSpec, err := wspath.QuotePosix(remoteRoot + "/")
	if err != nil {
		return err
	}

	args := []string{"-az", "--delete"}
	for _, pattern := range ExcludePatterns {
		args = append(args, "--exclude="+pattern)
	}
	args = append(args,
		"-e", "ssh "+strings.Join(m.sshOptions(), " "),
		localRoot+string(filepath.Separator),
		m.Target()+":"+remoteSpec,
	)

	m.logger.Debug("syncing workspace to remote", "tool", "rsync", "dest", remoteRoot)
	cmd := m.execCommand(ctx, rsyncPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("mirror workspace").
			WithResource(m.Target() + ":" + remoteRoot).
			Wrap(fmt.Errorf("rsync: %w: %s", err, strings.TrimSpace(stderr.String()))).
			BuildError()
	}
	return nil
}

// pushScp stages a filtered copy of the workspace so the exclude list is
// honored even though scp has no exclusion support, then transfers the
// staging tree recursively.
func (m *Mirror) pushScp(ctx context.Context, scpPath, localRoot, remoteRoot string) error {
	staging, err := os.MkdirTemp("", "bitsmith-push-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := copyFiltered(localRoot, staging); err != nil {
		return fmt.Errorf("staging workspace copy: %w", err)
	}

	quotedRoot, err := wspath.QuotePosix(remoteRoot)
	if err != nil {
		return err
	}
	if err := m.runRemote(ctx, "mkdir -p "+quotedRoot); err != nil {
		return err
	}

	args := []string{"-r", "-P", strconv.Itoa(m.Port), "-o", "BatchMode=yes"}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("reading staging directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	for _, entry := range entries {
		args = append(args, filepath.Join(staging, entry.Name()))
	}
	args = append(args, m.Target()+":"+quotedRoot+"/")

	cmd := m.execCommand(ctx, scpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("mirror workspace").
			WithResource(m.Target() + ":" + remoteRoot).
			Wrap(fmt.Errorf("scp: %w: %s", err, strings.TrimSpace(stderr.String()))).
			BuildError()
	}
	return nil
}

// PullArtifacts fetches only files matching the given name patterns from the
// remote output directory into localDir. The rest of the remote tree stays
// where it is.
func (m *Mirror) PullArtifacts(ctx context.Context, remoteDir, localDir string, patterns []string) error {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return fmt.Errorf("creating local output directory: %w", err)
	}

	// Quoted like the push operand; the translated output directory inherits
	// any spaces the workspace path has.
	quotedDir, err := wspath.QuotePosix(remoteDir)
	if err != nil {
		return err
	}

	if rsyncPath, err := m.lookPath("rsync"); err == nil {
		args := []string{"-az"}
		for _, pattern := range patterns {
			args = append(args, "--include="+pattern)
		}
		args = append(args, "--exclude=*",
			"-e", "ssh "+strings.Join(m.sshOptions(), " "),
			m.Target()+":"+quotedDir+"/",
			localDir+string(filepath.Separator),
		)
		cmd := m.execCommand(ctx, rsyncPath, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return issue.NewErrorContext(issue.CategoryConnectivity).
				WithOperation("retrieve artifacts").
				WithResource(m.Target() + ":" + remoteDir).
				Wrap(fmt.Errorf("rsync: %w: %s", err, strings.TrimSpace(stderr.String()))).
				BuildError()
		}
		return nil
	}

	scpPath, err := m.lookPath("scp")
	if err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("retrieve artifacts").
			WithResource(m.Target()).
			WithSuggestion("Install rsync (preferred) or scp").
			Wrap(errors.New("neither rsync nor scp is available")).
			BuildError()
	}

	// scp has no include filters; fetch per pattern and tolerate patterns
	// with no matches (the resolver decides afterwards whether anything
	// usable arrived). The directory is quoted, the glob is left for the
	// remote shell to expand.
	for _, pattern := range patterns {
		args := []string{"-P", strconv.Itoa(m.Port), "-o", "BatchMode=yes",
			m.Target() + ":" + quotedDir + "/" + pattern, localDir + string(filepath.Separator)}
		cmd := m.execCommand(ctx, scpPath, args...)
		if err := cmd.Run(); err != nil {
			m.logger.Debug("no remote files for pattern", "pattern", pattern, "err", err)
		}
	}
	return nil
}

// runRemote executes a short command on the remote host.
func (m *Mirror) runRemote(ctx context.Context, remoteCmd string) error {
	sshPath, err := m.lookPath("ssh")
	if err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("run remote command").
			WithResource(m.Target()).
			Wrap(err).
			BuildError()
	}
	args := append(m.sshOptions(), m.Target(), remoteCmd)
	cmd := m.execCommand(ctx, sshPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("run remote command").
			WithResource(m.Target()).
			Wrap(fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))).
			BuildError()
	}
	return nil
}

// Excluded reports whether the slash-separated workspace-relative path rel
// matches the exclude list. Directory patterns match at any depth.
func Excluded(rel string) bool {
	rel = strings.Trim(path.Clean(filepath.ToSlash(rel)), "/")
	if rel == "." || rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	for _, pattern := range ExcludePatterns {
		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			for _, seg := range segments {
				if seg == dir {
					return true
				}
			}
			continue
		}
		if matched, _ := path.Match(pattern, segments[len(segments)-1]); matched {
			return true
		}
	}
	return false
}

// copyFiltered copies src to dst, skipping excluded subtrees and files.
func copyFiltered(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if Excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(p, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
