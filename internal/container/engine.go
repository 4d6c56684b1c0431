// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer over the container engine
// CLIs (Docker/Podman) used by the container build backend. Engines are
// driven through their command-line interface rather than their API sockets
// so the orchestrator has no daemon-protocol dependency.
package container

import (
	"context"
	"fmt"
	"io"
)

// Engine defines the interface for container operations.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Available checks if the engine is available on the system.
	Available() bool
	// Version returns the engine version.
	Version(ctx context.Context) (string, error)
	// Run runs a command in an ephemeral container.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
}

// RunOptions contains options for running a container.
type RunOptions struct {
	// Image is the image to run.
	Image string
	// Command is the command to run.
	Command []string
	// WorkDir is the working directory inside the container.
	WorkDir string
	// Env contains environment variables.
	Env map[string]string
	// Volumes are bind mounts in "host:container" format.
	Volumes []string
	// Platform pins the image platform (e.g. "linux/amd64"). Empty means
	// the engine default.
	Platform string
	// Remove automatically removes the container after exit.
	Remove bool
	// Stdout is where to write standard output.
	Stdout io.Writer
	// Stderr is where to write standard error.
	Stderr io.Writer
}

// RunResult contains the result of running a container.
type RunResult struct {
	// ExitCode is the exit code of the containerized process.
	ExitCode int
	// Error contains any engine-level error (as opposed to a nonzero exit).
	Error error
}

// EngineType identifies the container engine type.
type EngineType string

const (
	// EngineTypeDocker selects the Docker CLI.
	EngineTypeDocker EngineType = "docker"
	// EngineTypePodman selects the Podman CLI.
	EngineTypePodman EngineType = "podman"
)

// ErrEngineNotAvailable is returned when no container engine is available.
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a container engine, preferring preferredType and falling
// back to the other engine when the preferred one is not installed.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
	default:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
	}
	return nil, &ErrEngineNotAvailable{
		Engine: string(preferredType),
		Reason: "neither docker nor podman responded; is the engine installed and running?",
	}
}
