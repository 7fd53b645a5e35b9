// SPDX-License-Identifier: MPL-2.0

// Package registration registers root filesystem tarballs as WSL
// distributions and removes them again.
package registration
