// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ContainerEngineNotFoundId Id = iota + 1
	WSLUnavailableId
	DistributionExistsId
	DistributionNotFoundId
	ConfigLoadFailedId
	UserCreationFailedId
	PermissionDeniedId
	ImagePullFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

The ` + "`engine`" + ` rootfs source needs Docker or Podman to pull and export images.

## Things you can try:
- Install Docker Desktop or Podman and make sure the daemon is running
- Switch engines in your config file:
~~~cue
container_engine: "podman"  // or "docker"
~~~

- Or pull straight from the registry without any engine:
~~~cue
rootfs_source: "registry"
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/get-docker/", "https://podman.io/docs/installation"},
	}

	wslUnavailableIssue = &Issue{
		id: WSLUnavailableId,
		mdMsg: `
# WSL is not available!

wslget talks to the Windows Subsystem for Linux through ` + "`wslapi.dll`" + `, which could not be loaded.

## Things you can try:
- Run wslget on Windows 10 1903 or later
- Install WSL:
~~~
> wsl --install --no-distribution
~~~

- Reboot after enabling the "Virtual Machine Platform" feature`,
		extLinks: []HttpLink{"https://learn.microsoft.com/windows/wsl/install"},
	}

	distributionExistsIssue = &Issue{
		id: DistributionExistsId,
		mdMsg: `
# Distribution already installed!

A distribution with this name is already registered.

## Things you can try:
- Pick a different install name:
~~~
$ wslget install ubuntu:24.04 ubuntu-dev
~~~

- Remove the existing one first:
~~~
$ wslget uninstall ubuntu-24.04
~~~`,
	}

	distributionNotFoundIssue = &Issue{
		id: DistributionNotFoundId,
		mdMsg: `
# Distribution not found!

No registered distribution matches the name you gave.

## Things you can try:
- List the installed distributions:
~~~
$ wslget list
~~~

- Names are matched exactly, check for typos`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the wslget configuration file.

## Things you can try:
- Print where wslget looks for it:
~~~
$ wslget config path
~~~

- Write a fresh default file:
~~~
$ wslget config init
~~~

## Example configuration:
~~~cue
container_engine: "docker"
rootfs_source:    "engine"
wsl_version:      2

user: {
  groups: ["wheel", "sudo"]
}
~~~`,
	}

	userCreationFailedIssue = &Issue{
		id: UserCreationFailedId,
		mdMsg: `
# Failed to create the user!

A command run inside the new distribution failed while setting up your account.
The distribution was unregistered again.

## Things you can try:
- Use an image that ships ` + "`useradd`" + ` and ` + "`chpasswd`" + ` (shadow-utils)
- If the image has no bash or sh, add its shell to your config file:
~~~cue
user: {
  shells: ["/bin/ash", "/bin/sh"]
}
~~~

- Skip user creation:
~~~
$ wslget install --no-user alpine
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

wslget was not allowed to touch a file or talk to the container engine.

## Things you can try:
- Check that the data directory is writable:
~~~
$ wslget config show
~~~

- Make sure your user may run docker (or use Podman)
- Pick another location with ` + "`data_dir`" + ` in your config file`,
	}

	imagePullFailedIssue = &Issue{
		id: ImagePullFailedId,
		mdMsg: `
# Failed to pull the image!

The image could not be fetched from its registry.

## Things you can try:
- Check the image name and tag for typos
- Log in if the image is private:
~~~
$ docker login
~~~

- Run with verbose mode to see every command:
~~~
$ wslget --verbose install ubuntu:24.04
~~~`,
	}

	issues = map[Id]*Issue{
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		wslUnavailableIssue.Id():          wslUnavailableIssue,
		distributionExistsIssue.Id():      distributionExistsIssue,
		distributionNotFoundIssue.Id():    distributionNotFoundIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		userCreationFailedIssue.Id():           userCreationFailedIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
		imagePullFailedIssue.Id():         imagePullFailedIssue,
	}
)

// Values returns every catalogued issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
