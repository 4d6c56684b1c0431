// SPDX-License-Identifier: MPL-2.0

// bitsmith builds FPGA bitstreams for Zynq boards through a local,
// containerized or remote Vivado toolchain.
package main

import cmd "bitsmith-cli/cmd/bitsmith"

func main() {
	cmd.Execute()
}
