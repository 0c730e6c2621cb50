// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/archcrate/archcrate/cmd/archcrate"

func main() {
	cmd.Execute()
}
