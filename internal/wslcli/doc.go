// SPDX-License-Identifier: MPL-2.0

// Package wslcli drives wsl.exe for the operations wslapi.dll does not
// expose: importing a tarball, listing distributions and running a guest
// command whose output must be captured.
package wslcli
