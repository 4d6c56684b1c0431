// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"context"
	"fmt"

	"bitsmith-cli/internal/container"
	"bitsmith-cli/internal/issue"
	"bitsmith-cli/internal/wspath"

	"github.com/charmbracelet/log"
)

// MountPoint is where the workspace is bind-mounted inside the container.
const MountPoint = "/workspace"

// containerToolchain is the toolchain command expected on the image's PATH.
const containerToolchain = "vivado"

// Container executes the toolchain inside an ephemeral container with the
// workspace bind-mounted at MountPoint.
type Container struct {
	// Image carries the toolchain install.
	Image string
	// Platform pins the image platform ("" means engine default).
	Platform string

	engine container.Engine
	logger *log.Logger
}

// NewContainer creates a container backend on the given engine.
func NewContainer(image, platform string, engine container.Engine, logger *log.Logger) *Container {
	return &Container{
		Image:    image,
		Platform: platform,
		engine:   engine,
		logger:   logger,
	}
}

// Name returns the backend name.
func (b *Container) Name() string { return "container" }

// Invoke runs the toolchain in a fresh container. Script and working
// directory paths are translated into the in-container namespace.
func (b *Container) Invoke(ctx context.Context, ws wspath.Root, spec InvokeSpec) error {
	scriptPath, err := ws.Translate(spec.ScriptPath, MountPoint)
	if err != nil {
		return err
	}
	workDir, err := ws.Translate(spec.WorkDir, MountPoint)
	if err != nil {
		return err
	}

	b.logger.Info("invoking toolchain", "backend", b.Name(), "image", b.Image, "engine", b.engine.Name())

	result, err := b.engine.Run(ctx, container.RunOptions{
		Image:    b.Image,
		Command:  append([]string{containerToolchain}, toolchainArgs(scriptPath)...),
		WorkDir:  workDir,
		Volumes:  []string{ws.String() + ":" + MountPoint},
		Platform: b.Platform,
		Remove:   true,
		Stdout:   spec.Stdout,
		Stderr:   spec.Stderr,
	})
	if err != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("launch container").
			WithResource(b.Image).
			Wrap(err).
			BuildError()
	}
	if result.Error != nil {
		return issue.NewErrorContext(issue.CategoryConnectivity).
			WithOperation("launch container").
			WithResource(b.Image).
			Wrap(result.Error).
			BuildError()
	}
	if result.ExitCode != 0 {
		return issue.NewErrorContext(issue.CategoryToolchain).
			WithOperation("build bitstream").
			WithResource(b.Image).
			WithSuggestion("Inspect the toolchain output above for the failing step").
			Wrap(fmt.Errorf("toolchain exited with status %d", result.ExitCode)).
			BuildError()
	}
	return nil
}
