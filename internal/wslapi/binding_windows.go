// SPDX-License-Identifier: MPL-2.0

//go:build windows

package wslapi

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const libraryName = "wslapi.dll"

type (
	// Binding is the wslapi.dll implementation of API.
	Binding struct {
		mu     sync.RWMutex
		closed bool
		once   sync.Once
		dll    windows.Handle

		configureDistribution        uintptr
		getDistributionConfiguration uintptr
		launchInteractive            uintptr
		isDistributionRegistered     uintptr
		unregisterDistribution       uintptr
	}
)

var _ API = (*Binding)(nil)

// Open loads wslapi.dll from System32 and resolves its entry points.
func Open() (*Binding, error) {
	dll, err := windows.LoadLibraryEx(libraryName, 0, windows.LOAD_LIBRARY_SEARCH_SYSTEM32)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", libraryName, err)
	}

	b := &Binding{dll: dll}
	procs := []struct {
		name string
		addr *uintptr
	}{
		{"WslConfigureDistribution", &b.configureDistribution},
		{"WslGetDistributionConfiguration", &b.getDistributionConfiguration},
		{"WslLaunchInteractive", &b.launchInteractive},
		{"WslIsDistributionRegistered", &b.isDistributionRegistered},
		{"WslUnregisterDistribution", &b.unregisterDistribution},
	}
	for _, p := range procs {
		addr, err := windows.GetProcAddress(dll, p.name)
		if err != nil {
			_ = windows.FreeLibrary(dll)
			return nil, fmt.Errorf("resolve %s!%s: %w", libraryName, p.name, err)
		}
		*p.addr = addr
	}
	return b, nil
}

// IsRegistered implements API.
func (b *Binding) IsRegistered(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	pname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false
	}
	r1, _, _ := syscall.SyscallN(b.isDistributionRegistered, uintptr(unsafe.Pointer(pname)))
	return int32(r1) != 0
}

// Configure implements API.
func (b *Binding) Configure(name string, defaultUID uint32, flags Flags) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	pname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fmt.Errorf("distribution name %q: %w", name, err)
	}
	r1, _, _ := syscall.SyscallN(b.configureDistribution,
		uintptr(unsafe.Pointer(pname)),
		uintptr(defaultUID),
		uintptr(flags),
	)
	return checkHRESULT("WslConfigureDistribution", name, int32(r1))
}

// GetConfiguration implements API.
func (b *Binding) GetConfiguration(name string) (*DistributionConfiguration, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	pname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("distribution name %q: %w", name, err)
	}

	var (
		version, uid, flags, count uint32
		env                        **byte
	)
	r1, _, _ := syscall.SyscallN(b.getDistributionConfiguration,
		uintptr(unsafe.Pointer(pname)),
		uintptr(unsafe.Pointer(&version)),
		uintptr(unsafe.Pointer(&uid)),
		uintptr(unsafe.Pointer(&flags)),
		uintptr(unsafe.Pointer(&env)),
		uintptr(unsafe.Pointer(&count)),
	)
	if err := checkHRESULT("WslGetDistributionConfiguration", name, int32(r1)); err != nil {
		return nil, err
	}

	return &DistributionConfiguration{
		Version:    version,
		DefaultUID: uid,
		Flags:      Flags(flags),
		DefaultEnv: takeHostStrings(env, count, windows.CoTaskMemFree),
	}, nil
}

// LaunchInteractive implements API.
func (b *Binding) LaunchInteractive(name, command string, useCurrentWorkingDir bool) (uint32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, ErrClosed
	}
	pname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, fmt.Errorf("distribution name %q: %w", name, err)
	}
	pcmd, err := windows.UTF16PtrFromString(command)
	if err != nil {
		return 0, fmt.Errorf("command: %w", err)
	}
	var useCwd uintptr
	if useCurrentWorkingDir {
		useCwd = 1
	}

	var exitCode uint32
	r1, _, _ := syscall.SyscallN(b.launchInteractive,
		uintptr(unsafe.Pointer(pname)),
		uintptr(unsafe.Pointer(pcmd)),
		useCwd,
		uintptr(unsafe.Pointer(&exitCode)),
	)
	if err := checkHRESULT("WslLaunchInteractive", name, int32(r1)); err != nil {
		return 0, err
	}
	return exitCode, nil
}

// Unregister implements API.
func (b *Binding) Unregister(name string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	pname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fmt.Errorf("distribution name %q: %w", name, err)
	}
	r1, _, _ := syscall.SyscallN(b.unregisterDistribution, uintptr(unsafe.Pointer(pname)))
	return checkHRESULT("WslUnregisterDistribution", name, int32(r1))
}

// Close waits for in-flight calls and unloads the library. Subsequent calls
// return ErrClosed; Close itself is idempotent.
func (b *Binding) Close() error {
	var err error
	b.once.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		err = windows.FreeLibrary(b.dll)
	})
	return err
}
