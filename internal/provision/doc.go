// SPDX-License-Identifier: MPL-2.0

// Package provision creates the initial login user inside a freshly
// registered distribution and makes it the default user.
//
// CreateUser runs a linear sequence of guest commands through
// wslapi.API.LaunchInteractive:
//
//	START -> ACCOUNT_CREATED -> ROOT_PASSWORD_SET -> USER_PASSWORD_SET
//	      -> GROUPS_JOINED -> COMPLETE
//
// Once the account exists, deleting it is pushed onto an undo.Stack; the stack
// is released only when COMPLETE is reached, so every other exit path removes
// the account and its home directory again.
package provision
