// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail fast on setup errors
// and inspect what a pipeline left on disk.
package testutil
