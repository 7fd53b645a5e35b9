// SPDX-License-Identifier: MPL-2.0

package wslcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/wslget/wslget/internal/process"
)

const (
	// DefaultProgram is the WSL command-line tool.
	DefaultProgram = "wsl.exe"

	// DefaultVersion is the on-disk format passed to --import.
	DefaultVersion = 2

	// StageImport is the stage name for `wsl.exe --import`.
	StageImport process.Stage = "import"
	// StageList is the stage name for `wsl.exe --list`.
	StageList process.Stage = "list"
	// StageGuestExec is the stage name for captured guest commands.
	StageGuestExec process.Stage = "guest-exec"
)

// noDistributions is printed by `wsl.exe --list` on hosts without any.
const noDistributions = "has no installed distributions"

// ErrInvalidVersion is returned for WSL versions other than 1 or 2.
var ErrInvalidVersion = errors.New("wsl version must be 1 or 2")

type (
	// Option configures a Client.
	Option func(*Client)

	// Client runs wsl.exe through a process.Runner.
	Client struct {
		program string
		runner  *process.Runner
	}
)

// WithProgram overrides the wsl.exe path.
func WithProgram(program string) Option {
	return func(c *Client) {
		c.program = program
	}
}

// WithRunner sets the process runner.
func WithRunner(r *process.Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{program: DefaultProgram}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = process.NewRunner()
	}
	return c
}

// ImportArgs constructs arguments for importing a tarball.
//
// Generated command: wsl.exe --import <name> <dir> <tarball> --version <n>
func ImportArgs(name, dir, tarball string, version int) []string {
	return []string{"--import", name, dir, tarball, "--version", strconv.Itoa(version)}
}

// Import registers tarball as a new distribution stored under dir.
func (c *Client) Import(ctx context.Context, name, dir, tarball string, version int) error {
	if version != 1 && version != 2 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	if _, err := c.runner.Run(ctx, c.program, ImportArgs(name, dir, tarball, version)...); err != nil {
		return process.WithStage(err, StageImport)
	}
	return nil
}

// List returns the names of the registered distributions.
func (c *Client) List(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, c.program, "--list", "--quiet")
	if err != nil {
		if out != nil {
			if text, decErr := decodeOutput(out.Stdout); decErr == nil && strings.Contains(text, noDistributions) {
				return nil, nil
			}
		}
		return nil, process.WithStage(err, StageList)
	}
	text, err := decodeOutput(out.Stdout)
	if err != nil {
		return nil, fmt.Errorf("decode wsl.exe output: %w", err)
	}
	return parseList(text), nil
}

// Exec runs args inside distro and captures the output.
//
// Generated command: wsl.exe -d <distro> -- <args...>
func (c *Client) Exec(ctx context.Context, distro string, args ...string) (*process.Output, error) {
	argv := append([]string{"-d", distro, "--"}, args...)
	out, err := c.runner.Run(ctx, c.program, argv...)
	if err != nil {
		return out, process.WithStage(err, StageGuestExec)
	}
	return out, nil
}

// decodeOutput decodes wsl.exe output. wsl.exe writes UTF-16LE unless
// WSL_UTF8=1 is set, in which case the output has no NUL bytes.
func decodeOutput(b []byte) (string, error) {
	if bytes.IndexByte(b, 0) < 0 {
		return string(b), nil
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseList(text string) []string {
	var names []string
	for line := range strings.Lines(text) {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
