// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package wslapi

// Binding is unavailable outside Windows; its methods report ErrUnsupportedPlatform.
type Binding struct{}

var _ API = (*Binding)(nil)

// Open always fails with ErrUnsupportedPlatform.
func Open() (*Binding, error) {
	return nil, ErrUnsupportedPlatform
}

// IsRegistered implements API.
func (*Binding) IsRegistered(string) bool { return false }

// Configure implements API.
func (*Binding) Configure(string, uint32, Flags) error { return ErrUnsupportedPlatform }

// GetConfiguration implements API.
func (*Binding) GetConfiguration(string) (*DistributionConfiguration, error) {
	return nil, ErrUnsupportedPlatform
}

// LaunchInteractive implements API.
func (*Binding) LaunchInteractive(string, string, bool) (uint32, error) {
	return 0, ErrUnsupportedPlatform
}

// Unregister implements API.
func (*Binding) Unregister(string) error { return ErrUnsupportedPlatform }

// Close implements API.
func (*Binding) Close() error { return nil }
