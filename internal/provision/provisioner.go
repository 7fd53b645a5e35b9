// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/process"
	"github.com/wslget/wslget/internal/undo"
	"github.com/wslget/wslget/internal/wslapi"
)

const (
	StateStart           State = "start"
	StateAccountCreated  State = "account-created"
	StateRootPasswordSet State = "root-password-set"
	StateUserPasswordSet State = "user-password-set"
	StateGroupsJoined    State = "groups-joined"
	StateComplete        State = "complete"
)

var (
	// DefaultShells is the login shell preference order.
	DefaultShells = []string{"/usr/bin/bash", "/bin/bash", "/usr/bin/sh", "/bin/sh"}

	// DefaultGroups are joined when present in the guest.
	DefaultGroups = []string{"wheel", "sudo"}

	// userNamePattern is the portable subset accepted by shadow-utils useradd.
	userNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)
)

type (
	// State is a step of the user provisioning sequence.
	State string

	// GuestExecutor runs a guest command and captures its output.
	GuestExecutor interface {
		Exec(ctx context.Context, distro string, args ...string) (*process.Output, error)
	}

	// User describes the account to create.
	User struct {
		Name     string
		Password string
		// RootPassword defaults to Password when empty.
		RootPassword string
	}

	// Option configures a Provisioner.
	Option func(*Provisioner)

	// Provisioner creates users inside a distribution.
	Provisioner struct {
		api    wslapi.API
		guest  GuestExecutor
		shells []string
		groups []string
		logger *log.Logger
	}
)

// WithShells overrides the login shell preference order.
func WithShells(shells ...string) Option {
	return func(p *Provisioner) {
		p.shells = shells
	}
}

// WithGroups overrides the groups joined when present.
func WithGroups(groups ...string) Option {
	return func(p *Provisioner) {
		p.groups = groups
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// New creates a Provisioner. guest is used for commands whose output is read.
func New(api wslapi.API, guest GuestExecutor, opts ...Option) *Provisioner {
	p := &Provisioner{
		api:    api,
		guest:  guest,
		shells: DefaultShells,
		groups: DefaultGroups,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// ValidateUserName reports whether name is an acceptable login name.
func ValidateUserName(name string) error {
	if len(name) == 0 || len(name) > 32 || !userNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUserName, name)
	}
	return nil
}

// LookupShell returns the first shell in the preference order that exists in
// distro, or "" when none does.
func (p *Provisioner) LookupShell(distro string) (string, error) {
	for _, cand := range p.shells {
		code, err := p.launch(distro, fileExistsCommand(cand))
		if err != nil {
			return "", err
		}
		if code == 0 {
			return cand, nil
		}
	}
	return "", nil
}

// CreateUser creates u in distro and sets the root and user passwords. If any
// step after the account was created fails, the account and its home
// directory are removed before the error is returned.
func (p *Provisioner) CreateUser(ctx context.Context, distro string, u User) error {
	if err := ValidateUserName(u.Name); err != nil {
		return err
	}
	if !validPassword(u.Password) || !validPassword(u.RootPassword) {
		return ErrInvalidPassword
	}
	rootPassword := u.RootPassword
	if rootPassword == "" {
		rootPassword = u.Password
	}

	shell, err := p.LookupShell(distro)
	if err != nil {
		return err
	}
	if shell == "" {
		p.logger.Warn("no known login shell found, using the distribution default", "distro", distro)
	}

	state := StateStart
	if err := p.step(distro, state, userAddCommand(u.Name, shell)); err != nil {
		return err
	}
	state = p.advance(distro, state, StateAccountCreated)

	rollback := undo.New(p.logger)
	rollback.Push("delete user "+u.Name, func(context.Context) error {
		cmd := userDelCommand(u.Name)
		code, err := p.launch(distro, cmd)
		if err != nil {
			return err
		}
		if code != 0 {
			return &GuestCommandError{Step: state, Command: cmd.display, ExitCode: code}
		}
		return nil
	})
	defer func() { _ = rollback.Unwind(ctx) }()

	if err := p.step(distro, state, chpasswdCommand("root", rootPassword)); err != nil {
		return err
	}
	state = p.advance(distro, state, StateRootPasswordSet)

	if err := p.step(distro, state, chpasswdCommand(u.Name, u.Password)); err != nil {
		return err
	}
	state = p.advance(distro, state, StateUserPasswordSet)

	for _, group := range p.groups {
		if err := p.joinGroup(distro, state, group, u.Name); err != nil {
			return err
		}
	}
	state = p.advance(distro, state, StateGroupsJoined)

	rollback.Release()
	p.advance(distro, state, StateComplete)
	return nil
}

func validPassword(pw string) bool {
	return !strings.ContainsAny(pw, "\x00\r\n")
}

// QueryUID returns the numeric id of user in distro.
func (p *Provisioner) QueryUID(ctx context.Context, distro, user string) (uint32, error) {
	out, err := p.guest.Exec(ctx, distro, "/usr/bin/id", "-u", user)
	if err != nil {
		return 0, fmt.Errorf("query uid of %s: %w", user, err)
	}
	uid, err := strconv.ParseUint(out.Text(), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w %q for %s", ErrInvalidUID, out.Text(), user)
	}
	return uint32(uid), nil
}

// SetDefaultUser makes user the default login of distro. Flags and
// environment are carried over from the current configuration unchanged.
func (p *Provisioner) SetDefaultUser(ctx context.Context, distro, user string) (uint32, error) {
	uid, err := p.QueryUID(ctx, distro, user)
	if err != nil {
		return 0, err
	}
	cfg, err := p.api.GetConfiguration(distro)
	if err != nil {
		return 0, err
	}
	if err := p.api.Configure(distro, uid, cfg.Flags); err != nil {
		return 0, err
	}
	p.logger.Info("default user set", "distro", distro, "user", user, "uid", uid)
	return uid, nil
}

// Provision creates u and makes it the default user. No configuration is
// written when the user could not be created.
func (p *Provisioner) Provision(ctx context.Context, distro string, u User) (uint32, error) {
	if err := p.CreateUser(ctx, distro, u); err != nil {
		return 0, err
	}
	return p.SetDefaultUser(ctx, distro, u.Name)
}

func (p *Provisioner) joinGroup(distro string, state State, group, user string) error {
	code, err := p.launch(distro, groupExistsCommand(group))
	if err != nil {
		return err
	}
	if code != 0 {
		p.logger.Debug("group not present, skipping", "distro", distro, "group", group)
		return nil
	}
	return p.step(distro, state, userModGroupCommand(group, user))
}

// step runs cmd and converts a non-zero exit into a GuestCommandError
// attributed to the state the sequence was in.
func (p *Provisioner) step(distro string, state State, cmd guestCommand) error {
	code, err := p.launch(distro, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return &GuestCommandError{Step: state, Command: cmd.display, ExitCode: code}
	}
	return nil
}

func (p *Provisioner) launch(distro string, cmd guestCommand) (uint32, error) {
	p.logger.Debug("guest command", "distro", distro, "command", cmd.display)
	return p.api.LaunchInteractive(distro, cmd.line, true)
}

func (p *Provisioner) advance(distro string, from, to State) State {
	p.logger.Debug("provisioning", "distro", distro, "from", from, "to", to)
	return to
}
