// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/container"
	"bitsmith-cli/internal/issue"

	"github.com/charmbracelet/log"
)

// Options are the raw backend-selection inputs from the build request.
// At most one of Container (Image non-empty) and Remote (Host non-empty)
// may be active; neither means the local backend.
type Options struct {
	// Board drives the well-known local toolchain install fallback.
	Board board.Board
	// Toolchain is the explicit local toolchain override (path or command).
	Toolchain string

	// ContainerImage selects the container backend when non-empty.
	ContainerImage string
	// ContainerPlatform optionally pins the image platform.
	ContainerPlatform string
	// ContainerEngine is the preferred engine (docker or podman).
	ContainerEngine string

	// RemoteHost selects the remote backend when non-empty.
	RemoteHost string
	// RemoteUser is the SSH login user.
	RemoteUser string
	// RemotePort is the SSH port.
	RemotePort int
	// RemoteDir is the workspace mirror root on the remote host.
	RemoteDir string
	// RemoteToolchain is the toolchain binary on the remote host.
	RemoteToolchain string
}

// Injection points for tests.
var (
	lookPath = exec.LookPath
	statFile = os.Stat
)

// Select validates the backend configuration and constructs the single
// backend for this request. Selecting both the container and remote
// backends is a configuration error; selecting neither defaults to local
// and requires a resolvable toolchain binary.
func Select(opts Options, logger *log.Logger) (Backend, error) {
	if opts.ContainerImage != "" && opts.RemoteHost != "" {
		return nil, issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("select backend").
			WithSuggestion("Drop either the container or the remote flags; a build runs in exactly one context").
			Wrap(errors.New("container and remote backends both selected")).
			BuildError()
	}

	if opts.RemoteHost != "" {
		return NewRemote(opts.RemoteHost, opts.RemoteUser, opts.RemotePort,
			opts.RemoteDir, opts.RemoteToolchain, logger), nil
	}

	if opts.ContainerImage != "" {
		engine, err := container.NewEngine(container.EngineType(opts.ContainerEngine))
		if err != nil {
			return nil, issue.NewErrorContext(issue.CategoryConnectivity).
				WithOperation("select backend").
				WithResource(opts.ContainerImage).
				WithSuggestion("Install Docker or Podman, or use the local or remote backend").
				Wrap(err).
				BuildError()
		}
		return NewContainer(opts.ContainerImage, opts.ContainerPlatform, engine, logger), nil
	}

	toolchain, err := ResolveToolchain(opts.Toolchain, opts.Board)
	if err != nil {
		return nil, err
	}
	return NewLocal(toolchain, logger), nil
}

// ResolveToolchain finds an executable local toolchain binary: the explicit
// override first, then the ambient search path, then the board's well-known
// install location.
func ResolveToolchain(explicit string, b board.Board) (string, error) {
	if explicit != "" {
		if strings.ContainsRune(explicit, os.PathSeparator) {
			if isExecutableFile(explicit) {
				return explicit, nil
			}
			return "", toolchainNotFound(explicit)
		}
		path, err := lookPath(explicit)
		if err != nil {
			return "", toolchainNotFound(explicit)
		}
		return path, nil
	}

	if path, err := lookPath("vivado"); err == nil {
		return path, nil
	}

	wellKnown := b.WellKnownToolchainPath()
	if isExecutableFile(wellKnown) {
		return wellKnown, nil
	}
	return "", toolchainNotFound(wellKnown)
}

func toolchainNotFound(probed string) error {
	return issue.NewErrorContext(issue.CategoryConfig).
		WithOperation("resolve toolchain").
		WithResource(probed).
		WithSuggestion("Pass --toolchain with the install location of the vivado binary").
		WithSuggestion("Or select the container backend with --container-image").
		WithSuggestion("Or select the remote backend with --remote-host").
		Wrap(fmt.Errorf("no executable toolchain binary found")).
		BuildError()
}

func isExecutableFile(path string) bool {
	info, err := statFile(path)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
