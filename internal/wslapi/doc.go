// SPDX-License-Identifier: MPL-2.0

// Package wslapi binds the distribution-management entry points of
// wslapi.dll.
//
// Open loads the library once from System32 and resolves every entry point by
// name; the returned Binding exposes them through the API interface. Strings
// cross the boundary as UTF-16. Environment strings returned by
// GetConfiguration are allocated by the host; the binding copies them into Go
// memory and releases each one, then the array, with CoTaskMemFree.
//
// Close unloads the library after in-flight calls return. Calls made after
// Close fail with ErrClosed. On non-Windows platforms Open returns
// ErrUnsupportedPlatform.
package wslapi
