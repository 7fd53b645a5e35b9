// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/wslget/wslget/cmd/wslget"

func main() {
	cmd.Execute()
}
