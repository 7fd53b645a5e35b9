// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wslget/wslget/internal/provision"
)

// maxPromptAttempts bounds re-asking after invalid answers.
const maxPromptAttempts = 3

var (
	// ErrPasswordMismatch is returned when the confirmation never matched.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrTooManyAttempts is returned after maxPromptAttempts invalid answers.
	ErrTooManyAttempts = errors.New("too many invalid answers")
)

type (
	// Prompter asks the user for input.
	Prompter interface {
		Input(prompt string) (string, error)
		// Password reads a line without echoing it.
		Password(prompt string) (string, error)
		Confirm(prompt string) (bool, error)
	}

	// terminalPrompter reads from a terminal, falling back to plain line
	// reads when input is redirected.
	terminalPrompter struct {
		in     *os.File
		reader *bufio.Reader
		out    io.Writer
	}
)

func newTerminalPrompter(in *os.File, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *terminalPrompter) Input(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt+": ")
	return p.readLine()
}

func (p *terminalPrompter) Password(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt+": ")
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return p.readLine()
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func (p *terminalPrompter) Confirm(prompt string) (bool, error) {
	fmt.Fprint(p.out, WarningStyle.Render(prompt)+" [y/N]: ")
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askUserName asks for a login name until it is acceptable.
func askUserName(p Prompter, out io.Writer) (string, error) {
	for range maxPromptAttempts {
		name, err := p.Input("Enter new UNIX username")
		if err != nil {
			return "", err
		}
		name = strings.TrimSpace(name)
		if err := provision.ValidateUserName(name); err != nil {
			fmt.Fprintln(out, WarningStyle.Render("Invalid user name: lower-case letters, digits, '_' and '-' only"))
			continue
		}
		return name, nil
	}
	return "", ErrTooManyAttempts
}

// askNewPassword asks for a non-empty password and its confirmation.
func askNewPassword(p Prompter, out io.Writer) (string, error) {
	for range maxPromptAttempts {
		password, err := p.Password("New password")
		if err != nil {
			return "", err
		}
		if password == "" {
			fmt.Fprintln(out, WarningStyle.Render("Password must not be empty."))
			continue
		}
		again, err := p.Password("Retype new password")
		if err != nil {
			return "", err
		}
		if again != password {
			fmt.Fprintln(out, WarningStyle.Render("Passwords do not match."))
			continue
		}
		return password, nil
	}
	return "", ErrPasswordMismatch
}
