// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/provision"
	"github.com/wslget/wslget/internal/rootfs"
	"github.com/wslget/wslget/internal/undo"
)

// tarballName is the file the rootfs is packaged into inside the scratch dir.
const tarballName = "rootfs.tar.gz"

type (
	// Packager produces a rootfs tarball for an image.
	Packager interface {
		Package(ctx context.Context, ref rootfs.ImageRef, dest string) error
	}

	// Registrar registers and removes distributions.
	Registrar interface {
		EnsureNotRegistered(name string) error
		Register(ctx context.Context, name, dataDir, tarball string) error
		Unregister(name string) error
	}

	// UserProvisioner creates the login user and returns its uid.
	UserProvisioner interface {
		Provision(ctx context.Context, distro string, u provision.User) (uint32, error)
	}

	// Request describes one installation.
	Request struct {
		Image rootfs.ImageRef
		// Name is the distribution name; defaults to Image.InstallName().
		Name string
		// User is created and made the default login; nil skips user creation.
		User *provision.User
	}

	// Result describes a completed installation.
	Result struct {
		Name    string
		DataDir string
		// UID is the default uid, zero when no user was created.
		UID uint32
	}

	// Option configures an Installer.
	Option func(*Installer)

	// Installer runs the provisioning pipeline.
	Installer struct {
		packager  Packager
		registrar Registrar
		users     UserProvisioner
		dataRoot  string
		scratch   string
		logger    *log.Logger
	}
)

// WithScratchDir sets where the temporary tarball is written (default os.TempDir()).
func WithScratchDir(dir string) Option {
	return func(i *Installer) {
		i.scratch = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// New creates an Installer that stores distributions under dataRoot/<name>.
func New(packager Packager, registrar Registrar, users UserProvisioner, dataRoot string, opts ...Option) *Installer {
	i := &Installer{
		packager:  packager,
		registrar: registrar,
		users:     users,
		dataRoot:  dataRoot,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = log.New(io.Discard)
	}
	return i
}

// DataDir returns the directory the named distribution is stored in.
func (i *Installer) DataDir(name string) string {
	return filepath.Join(i.dataRoot, name)
}

// Install packages req.Image, registers it and provisions req.User. The name
// is checked before any side effect.
func (i *Installer) Install(ctx context.Context, req Request) (*Result, error) {
	name := req.Name
	if name == "" {
		name = req.Image.InstallName()
	}
	if err := i.registrar.EnsureNotRegistered(name); err != nil {
		return nil, err
	}
	if req.User != nil {
		if err := provision.ValidateUserName(req.User.Name); err != nil {
			return nil, err
		}
	}

	scratch, err := os.MkdirTemp(i.scratch, "wslget-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			i.logger.Warn("could not remove scratch directory", "path", scratch, "err", err)
		}
	}()

	tarball := filepath.Join(scratch, tarballName)
	if err := i.packager.Package(ctx, req.Image, tarball); err != nil {
		return nil, err
	}

	res := &Result{Name: name, DataDir: i.DataDir(name)}
	if err := i.registrar.Register(ctx, name, res.DataDir, tarball); err != nil {
		return nil, err
	}
	i.logger.Info("distribution registered", "name", name, "dir", res.DataDir)

	if req.User == nil {
		return res, nil
	}

	compensate := undo.New(i.logger)
	compensate.Push("unregister "+name, func(context.Context) error {
		return i.registrar.Unregister(name)
	})
	defer func() { _ = compensate.Unwind(ctx) }()

	uid, err := i.users.Provision(ctx, name, *req.User)
	if err != nil {
		return nil, err
	}
	compensate.Release()

	res.UID = uid
	return res, nil
}
