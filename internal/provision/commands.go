// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const redacted = "********"

// guestCommand is a shell command line together with the form that is safe
// to log.
type guestCommand struct {
	line    string
	display string
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		// Quote only fails on NUL bytes, which CreateUser rejects in passwords.
		return "''"
	}
	return q
}

func plain(parts ...string) guestCommand {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = quote(p)
	}
	line := strings.Join(quoted, " ")
	return guestCommand{line: line, display: line}
}

func fileExistsCommand(path string) guestCommand {
	return plain("/usr/bin/test", "-e", path)
}

func userAddCommand(user, shell string) guestCommand {
	args := []string{"/usr/sbin/useradd"}
	if shell != "" {
		args = append(args, "-s", shell)
	}
	return plain(append(args, "-m", user)...)
}

func userDelCommand(user string) guestCommand {
	return plain("/usr/sbin/userdel", "--remove", user)
}

// chpasswdCommand feeds one "user:password" record to chpasswd. The password
// must not contain line breaks, or chpasswd would read further records.
func chpasswdCommand(user, password string) guestCommand {
	const printf = `printf '%s\n' `
	return guestCommand{
		line:    printf + quote(user+":"+password) + " | /usr/sbin/chpasswd",
		display: printf + quote(user+":"+redacted) + " | /usr/sbin/chpasswd",
	}
}

func groupExistsCommand(group string) guestCommand {
	cmd := plain("getent", "group", group)
	cmd.line += " > /dev/null"
	cmd.display = cmd.line
	return cmd
}

func userModGroupCommand(group, user string) guestCommand {
	return plain("/usr/sbin/usermod", "-aG", group, user)
}
