// SPDX-License-Identifier: MPL-2.0

// Package rootfs turns a container image into a gzip-compressed root
// filesystem tarball that `wsl.exe --import` accepts.
//
// A Source yields the flattened filesystem of an image as an uncompressed tar
// stream. EngineSource does this through a local Docker or Podman CLI
// (pull, create, export) and registers removal of the temporary container on
// an undo.Stack; RegistrySource pulls straight from an OCI registry without a
// daemon. Packager compresses the stream into a temporary file next to the
// destination and renames it into place only when every stage succeeded.
package rootfs
