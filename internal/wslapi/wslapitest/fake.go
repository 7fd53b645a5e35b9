// SPDX-License-Identifier: MPL-2.0

// Package wslapitest provides an in-memory wslapi.API for tests.
package wslapitest

import (
	"slices"
	"strings"
	"sync"

	"github.com/wslget/wslget/internal/wslapi"
)

// statusNotFound is WSL_E_DISTRO_NOT_FOUND.
const statusNotFound int32 = -2147220706

type (
	// Call is one recorded API invocation.
	Call struct {
		Method  string
		Name    string
		Command string
		UID     uint32
		Flags   wslapi.Flags
	}

	// Fake is a scripted wslapi.API. The zero value has no distributions and
	// every launched command exits 0.
	Fake struct {
		mu      sync.Mutex
		distros map[string]*wslapi.DistributionConfiguration
		exits   []exitRule
		calls   []Call
		closed  bool

		// ConfigureErr, when set, is returned by Configure.
		ConfigureErr error
		// LaunchErr, when set, is returned by LaunchInteractive.
		LaunchErr error
	}

	exitRule struct {
		substr string
		code   uint32
	}
)

var _ wslapi.API = (*Fake)(nil)

// New creates an empty Fake.
func New() *Fake {
	return &Fake{}
}

// AddDistribution registers name with cfg.
func (f *Fake) AddDistribution(name string, cfg wslapi.DistributionConfiguration) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.distros == nil {
		f.distros = make(map[string]*wslapi.DistributionConfiguration)
	}
	cfg.DefaultEnv = slices.Clone(cfg.DefaultEnv)
	f.distros[name] = &cfg
	return f
}

// ExitWith makes every launched command containing substr exit with code.
// The first matching rule wins.
func (f *Fake) ExitWith(substr string, code uint32) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exits = append(f.exits, exitRule{substr: substr, code: code})
	return f
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Commands returns the commands passed to LaunchInteractive, in order.
func (f *Fake) Commands() []string {
	var out []string
	for _, c := range f.Calls() {
		if c.Method == "LaunchInteractive" {
			out = append(out, c.Command)
		}
	}
	return out
}

// CountCommands returns how many launched commands contain substr.
func (f *Fake) CountCommands(substr string) int {
	n := 0
	for _, c := range f.Commands() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

// Count returns how many calls were made to method.
func (f *Fake) Count(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Distribution returns the stored configuration of name.
func (f *Fake) Distribution(name string) (wslapi.DistributionConfiguration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.distros[name]
	if !ok {
		return wslapi.DistributionConfiguration{}, false
	}
	return *cfg, true
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// IsRegistered implements wslapi.API.
func (f *Fake) IsRegistered(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "IsRegistered", Name: name})
	_, ok := f.distros[name]
	return ok && !f.closed
}

// Configure implements wslapi.API.
func (f *Fake) Configure(name string, defaultUID uint32, flags wslapi.Flags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "Configure", Name: name, UID: defaultUID, Flags: flags})
	if err := f.check("WslConfigureDistribution", name); err != nil {
		return err
	}
	if f.ConfigureErr != nil {
		return f.ConfigureErr
	}
	cfg := f.distros[name]
	cfg.DefaultUID = defaultUID
	cfg.Flags = flags
	return nil
}

// GetConfiguration implements wslapi.API.
func (f *Fake) GetConfiguration(name string) (*wslapi.DistributionConfiguration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "GetConfiguration", Name: name})
	if err := f.check("WslGetDistributionConfiguration", name); err != nil {
		return nil, err
	}
	cfg := *f.distros[name]
	cfg.DefaultEnv = slices.Clone(cfg.DefaultEnv)
	return &cfg, nil
}

// LaunchInteractive implements wslapi.API.
func (f *Fake) LaunchInteractive(name, command string, useCurrentWorkingDir bool) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "LaunchInteractive", Name: name, Command: command})
	if err := f.check("WslLaunchInteractive", name); err != nil {
		return 0, err
	}
	if f.LaunchErr != nil {
		return 0, f.LaunchErr
	}
	for _, r := range f.exits {
		if strings.Contains(command, r.substr) {
			return r.code, nil
		}
	}
	return 0, nil
}

// Unregister implements wslapi.API.
func (f *Fake) Unregister(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "Unregister", Name: name})
	if err := f.check("WslUnregisterDistribution", name); err != nil {
		return err
	}
	delete(f.distros, name)
	return nil
}

// Close implements wslapi.API.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) check(op, name string) error {
	if f.closed {
		return wslapi.ErrClosed
	}
	if _, ok := f.distros[name]; !ok {
		return &wslapi.PlatformError{Operation: op, Name: name, Status: statusNotFound}
	}
	return nil
}
