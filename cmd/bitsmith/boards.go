// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bitsmith-cli/internal/board"

	"github.com/spf13/cobra"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List supported boards",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, TitleStyle.Render("Supported boards"))
		for _, b := range board.All() {
			form := "raw bitstream (.bit)"
			if b.RequiresPackagedBitstream() {
				form = "packaged bitstream (.bit.bin)"
			}
			fmt.Fprintf(out, "  %-10s  toolchain %s, loads %s\n", b, b.ToolchainVersion(), form)
		}
		fmt.Fprintln(out, SubtitleStyle.Render("Variants: base, accel, debug"))
		return nil
	},
}
