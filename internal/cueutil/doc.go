// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// formats CUE errors with the path of the offending field.
package cueutil
