// SPDX-License-Identifier: MPL-2.0

// Package install composes the provisioning pipeline: package the image,
// register it, create the login user and make it the default.
//
// A registered distribution whose user could not be provisioned is
// unregistered again, so a failed Install leaves the host registry as it
// found it.
package install
