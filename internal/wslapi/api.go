// SPDX-License-Identifier: MPL-2.0

package wslapi

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FlagNone disables every optional behavior.
	FlagNone Flags = 0
	// FlagEnableInterop lets the distribution launch Windows processes.
	FlagEnableInterop Flags = 0x1
	// FlagAppendNTPath appends the Windows PATH to $PATH.
	FlagAppendNTPath Flags = 0x2
	// FlagEnableDriveMounting mounts Windows drives under /mnt.
	FlagEnableDriveMounting Flags = 0x4

	// FlagsDefault is what new distributions start with.
	FlagsDefault = FlagEnableInterop | FlagAppendNTPath | FlagEnableDriveMounting
)

var (
	// ErrPlatform is the sentinel error wrapped by PlatformError.
	ErrPlatform = errors.New("wsl platform call failed")

	// ErrClosed is returned by calls made after the binding was closed.
	ErrClosed = errors.New("wslapi binding is closed")

	// ErrUnsupportedPlatform is returned by Open outside Windows.
	ErrUnsupportedPlatform = errors.New("wslapi is only available on windows")
)

type (
	// API is the capability interface over the host distribution registry.
	API interface {
		// IsRegistered reports whether name is a registered distribution.
		// Unknown names and failed calls report false.
		IsRegistered(name string) bool
		// Configure sets the default uid and flags of name.
		Configure(name string, defaultUID uint32, flags Flags) error
		// GetConfiguration reads the configuration record of name.
		GetConfiguration(name string) (*DistributionConfiguration, error)
		// LaunchInteractive runs command inside name with the console
		// attached and returns the guest exit code.
		LaunchInteractive(name, command string, useCurrentWorkingDir bool) (uint32, error)
		// Unregister removes name and its filesystem.
		Unregister(name string) error
		// Close releases the library.
		Close() error
	}

	// Flags is the WSL_DISTRIBUTION_FLAGS bitset.
	Flags uint32

	// DistributionConfiguration mirrors WslGetDistributionConfiguration.
	DistributionConfiguration struct {
		Version    uint32
		DefaultUID uint32
		Flags      Flags
		DefaultEnv []string
	}

	// PlatformError is returned when a wslapi.dll entry point reports a
	// failing HRESULT.
	PlatformError struct {
		Operation string
		Name      string
		Status    int32
	}
)

func (e *PlatformError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s failed: HRESULT 0x%08X", e.Operation, uint32(e.Status))
	}
	return fmt.Sprintf("%s %q failed: HRESULT 0x%08X", e.Operation, e.Name, uint32(e.Status))
}

func (e *PlatformError) Unwrap() error { return ErrPlatform }

// Succeeded reports whether an HRESULT denotes success.
func Succeeded(hr int32) bool { return hr >= 0 }

// checkHRESULT converts a failing HRESULT into a PlatformError.
func checkHRESULT(operation, name string, hr int32) error {
	if Succeeded(hr) {
		return nil
	}
	return &PlatformError{Operation: operation, Name: name, Status: hr}
}

// Has reports whether every bit of other is set in f.
func (f Flags) Has(other Flags) bool { return f&other == other }

// String lists the set flags, e.g. "interop|ntpath".
func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		flag Flags
		name string
	}{
		{FlagEnableInterop, "interop"},
		{FlagAppendNTPath, "ntpath"},
		{FlagEnableDriveMounting, "drivemount"},
	} {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
			f &^= n.flag
		}
	}
	if f != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(f)))
	}
	return strings.Join(parts, "|")
}
