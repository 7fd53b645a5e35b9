// SPDX-License-Identifier: MPL-2.0

// Package undo provides a stack of compensating actions.
//
// Each step that acquires a resource pushes the action that releases it.
// On exit the stack is unwound in reverse order, or released when the
// caller has committed and the resources must outlive the call.
package undo
