// SPDX-License-Identifier: MPL-2.0

// Package process runs external helper programs synchronously.
//
// Runner.Run captures a program's output and converts a failed start or a
// non-zero exit into an ExternalToolError. Runner.Start is the streaming
// variant: the program's stdout is exposed as an io.Reader so it can be
// piped into a transform without buffering it in memory.
//
// Nothing in this package retries or recovers; callers decide whether a
// non-zero exit is a failure of their operation.
package process
