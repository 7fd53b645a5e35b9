// SPDX-License-Identifier: MPL-2.0

// Package container drives a local image-management CLI (Docker or Podman).
//
// The Engine interface covers the four operations needed to turn an image
// into a root filesystem stream: Pull, Create, Export and Remove. DockerEngine
// and PodmanEngine both embed BaseCLIEngine, which builds the CLI arguments
// and runs them through a process.Runner.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback to the
// other engine if the preferred one is unavailable.
package container
