// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bitsmith.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bitsmith-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "bitsmith",
		Short: "Bitstream build orchestrator for Zynq boards",
		Long: TitleStyle.Render("bitsmith") + SubtitleStyle.Render(" - bitstream build orchestrator") + `

bitsmith drives the Vivado toolchain to build an FPGA bitstream for a
supported Zynq board and packages it into the device-loadable .bit.bin
container where the board's Linux image requires it.

The toolchain can run in one of three backends: a local install, an
ephemeral container with the workspace bind-mounted, or a remote host
reached over SSH with the workspace mirrored around the invocation.

` + SubtitleStyle.Render("Examples:") + `
  bitsmith build --board pynq-z2                      Build the base variant locally
  bitsmith build --board pynq-z2 --variant accel      Build the accel variant
  bitsmith build --board zybo-z7 --container-image ghcr.io/example/vivado:2020.2
  bitsmith build --board pynq-z1 --remote-host fpga-rig --remote-user ci
  bitsmith build --board pynq-z2 --clean              Remove prior build output
  bitsmith boards                                     List supported boards`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bitsmith/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// newLogger builds the logger shared by all pipeline components.
func newLogger() *log.Logger {
	opts := log.Options{Prefix: "bitsmith"}
	if verbose {
		opts.Level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, opts)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
