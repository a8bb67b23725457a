// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/bundlegraph/cmd/bundlegraph"

func main() {
	cmd.Execute()
}
