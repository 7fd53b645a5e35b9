// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"strings"

	"github.com/wslget/wslget/internal/process"
)

// transientMarkers are stderr fragments that indicate a retryable pull failure.
var transientMarkers = []string{
	// Network errors between the engine and the registry.
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	"connection reset by peer",
	"TLS handshake timeout",
	"i/o timeout",
	// Registry throttling.
	"toomanyrequests",
	// Rootless Podman races and storage driver glitches.
	"OCI runtime error",
	"error creating overlay mount",
	"error mounting layer",
}

// IsTransientError reports whether err is a transient container engine error
// that may succeed on retry: network timeouts, registry throttling, storage
// driver glitches and generic engine errors (exit code 125).
//
// Context cancellation and deadline errors are never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	text := err.Error()
	var toolErr *process.ExternalToolError
	if errors.As(err, &toolErr) {
		// Exit code 125 is a generic engine failure (daemon hiccup, storage, cgroups).
		if toolErr.ExitCode == 125 {
			return true
		}
		text += "\n" + toolErr.Stderr
	}

	for _, marker := range transientMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
