// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"bitsmith-cli/internal/backend"
	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/build"
	"bitsmith-cli/internal/config"
	"bitsmith-cli/internal/wspath"

	"github.com/spf13/cobra"
)

// buildFlags holds the raw flag values for the build command. Environment
// variable equivalents come in through the config layer; flags win.
type buildFlags struct {
	board     string
	variant   string
	jobs      int
	force     bool
	clean     bool
	extension bool
	workspace string
	toolchain string

	containerImage    string
	containerPlatform string

	remoteHost      string
	remoteUser      string
	remotePort      int
	remoteDir       string
	remoteToolchain string
}

var buildOpts buildFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a bitstream for a board",
	Long: `Build the FPGA bitstream for the selected board and variant, then
package it into the device-loadable container format where the board's OS
generation requires it. Exactly one execution backend is used per build:
local (default), container (--container-image) or remote (--remote-host).`,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildOpts.board, "board", "b", "", "target board (required)")
	f.StringVar(&buildOpts.variant, "variant", string(board.VariantBase), "design variant")
	f.IntVarP(&buildOpts.jobs, "jobs", "j", 0, "parallelism hint for the toolchain (default: CPU count)")
	f.BoolVar(&buildOpts.force, "force", false, "overwrite existing generated project state")
	f.BoolVar(&buildOpts.clean, "clean", false, "remove prior build output instead of building")
	f.BoolVar(&buildOpts.extension, "extension", false, "generate the custom hardware-extension IP cores")
	f.StringVarP(&buildOpts.workspace, "workspace", "C", ".", "workspace root (project source tree)")
	f.StringVar(&buildOpts.toolchain, "toolchain", "", "local toolchain binary (path or command)")

	f.StringVar(&buildOpts.containerImage, "container-image", "", "run the toolchain in this container image")
	f.StringVar(&buildOpts.containerPlatform, "container-platform", "", "pin the container image platform (e.g. linux/amd64)")

	f.StringVar(&buildOpts.remoteHost, "remote-host", "", "run the toolchain on this host over SSH")
	f.StringVar(&buildOpts.remoteUser, "remote-user", "", "SSH login user for the remote backend")
	f.IntVar(&buildOpts.remotePort, "remote-port", 0, "SSH port for the remote backend")
	f.StringVar(&buildOpts.remoteDir, "remote-dir", "", "workspace mirror root on the remote host")
	f.StringVar(&buildOpts.remoteToolchain, "remote-toolchain", "", "toolchain binary on the remote host")

	_ = buildCmd.MarkFlagRequired("board")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fail(err)
	}
	if cfg.UI.Verbose {
		verbose = true
	}

	b, err := board.Parse(buildOpts.board)
	if err != nil {
		return fail(err)
	}
	v, err := board.ParseVariant(buildOpts.variant)
	if err != nil {
		return fail(err)
	}
	ws, err := wspath.NewRoot(buildOpts.workspace)
	if err != nil {
		return fail(err)
	}

	if buildOpts.clean {
		if err := build.Clean(ws, b, logger); err != nil {
			return fail(err)
		}
		return nil
	}

	req := build.Request{
		Board:          b,
		Variant:        v,
		Jobs:           buildOpts.jobs,
		Force:          buildOpts.force,
		Extension:      buildOpts.extension,
		Workspace:      ws,
		BackendOptions: backendOptions(cmd, cfg),
	}
	if err := req.Normalize(); err != nil {
		return fail(err)
	}

	be, err := backend.Select(req.BackendOptions, logger)
	if err != nil {
		return fail(err)
	}
	logger.Info("starting build",
		"board", req.Board, "variant", req.Variant, "backend", be.Name(), "jobs", req.Jobs)

	pipeline := &build.Pipeline{
		Backend: be,
		Logger:  logger,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	}
	art, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(),
		SuccessStyle.Render("build succeeded: ")+art.Path+SubtitleStyle.Render(" ("+string(art.Format)+")"))
	return nil
}

// backendOptions merges backend flags over configuration (which already
// folds in the BITSMITH_* environment variables and the config file).
func backendOptions(cmd *cobra.Command, cfg *config.Config) backend.Options {
	opts := backend.Options{
		Toolchain:         cfg.Toolchain,
		ContainerImage:    cfg.Container.Image,
		ContainerPlatform: cfg.Container.Platform,
		ContainerEngine:   cfg.ContainerEngine,
		RemoteHost:        cfg.Remote.Host,
		RemoteUser:        cfg.Remote.User,
		RemotePort:        cfg.Remote.Port,
		RemoteDir:         cfg.Remote.Dir,
		RemoteToolchain:   cfg.Remote.Toolchain,
	}

	flags := cmd.Flags()
	if flags.Changed("toolchain") {
		opts.Toolchain = buildOpts.toolchain
	}
	if flags.Changed("container-image") {
		opts.ContainerImage = buildOpts.containerImage
	}
	if flags.Changed("container-platform") {
		opts.ContainerPlatform = buildOpts.containerPlatform
	}
	if flags.Changed("remote-host") {
		opts.RemoteHost = buildOpts.remoteHost
	}
	if flags.Changed("remote-user") {
		opts.RemoteUser = buildOpts.remoteUser
	}
	if flags.Changed("remote-port") {
		opts.RemotePort = buildOpts.remotePort
	}
	if flags.Changed("remote-dir") {
		opts.RemoteDir = buildOpts.remoteDir
	}
	if flags.Changed("remote-toolchain") {
		opts.RemoteToolchain = buildOpts.remoteToolchain
	}
	return opts
}

// fail wraps a pipeline error into an ExitError carrying the formatted,
// user-facing message.
func fail(err error) error {
	return &ExitError{Code: 1, Err: errors.New(formatErrorForDisplay(err, verbose))}
}
