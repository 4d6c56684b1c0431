// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"bitsmith-cli/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect bitsmith configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return &ExitError{Code: 1, Err: errors.New(formatErrorForDisplay(err, verbose))}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, TitleStyle.Render("Effective configuration"))
		fmt.Fprintf(out, "  toolchain:          %s\n", orDefault(cfg.Toolchain, "(resolve from PATH / well-known paths)"))
		fmt.Fprintf(out, "  container_engine:   %s\n", cfg.ContainerEngine)
		fmt.Fprintf(out, "  container.image:    %s\n", orDefault(cfg.Container.Image, "(unset)"))
		fmt.Fprintf(out, "  container.platform: %s\n", orDefault(cfg.Container.Platform, "(engine default)"))
		fmt.Fprintf(out, "  remote.host:        %s\n", orDefault(cfg.Remote.Host, "(unset)"))
		fmt.Fprintf(out, "  remote.user:        %s\n", orDefault(cfg.Remote.User, "(ssh default)"))
		fmt.Fprintf(out, "  remote.port:        %d\n", cfg.Remote.Port)
		fmt.Fprintf(out, "  remote.dir:         %s\n", cfg.Remote.Dir)
		fmt.Fprintf(out, "  remote.toolchain:   %s\n", orDefault(cfg.Remote.Toolchain, "(login PATH)"))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
