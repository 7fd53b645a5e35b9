// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/fang"

	"github.com/wslget/wslget/internal/issue"
	"github.com/wslget/wslget/internal/provision"
	"github.com/wslget/wslget/internal/registration"
	"github.com/wslget/wslget/internal/wslapi"
)

// issueStyle is the glamour style catalog entries are rendered with.
const issueStyle = "dark"

// sentinelIssues maps error sentinels to catalog entries for errors that
// carry no issue of their own.
var sentinelIssues = []struct {
	err error
	id  issue.Id
}{
	{registration.ErrAlreadyRegistered, issue.DistributionExistsId},
	{registration.ErrNotRegistered, issue.DistributionNotFoundId},
	{provision.ErrGuestCommand, issue.UserCreationFailedId},
	{wslapi.ErrUnsupportedPlatform, issue.WSLUnavailableId},
	{fs.ErrPermission, issue.PermissionDeniedId},
}

// errorHandler renders command errors for fang.
func (a *App) errorHandler(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	a.renderError(w, err)
}

func (a *App) renderError(w io.Writer, err error) {
	verbose := a.cfg != nil && a.cfg.UI.Verbose
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	entry := issueFor(err)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(issueStyle)
	if renderErr != nil {
		if a.logger != nil {
			a.logger.Warn("failed to render issue catalog entry", "issue", entry.Id(), "err", renderErr)
		}
		return
	}
	fmt.Fprint(w, rendered)
}

// issueFor returns the catalog entry explaining err, or nil.
func issueFor(err error) *issue.Issue {
	if entry, ok := issue.IssueOf(err); ok {
		return entry
	}
	for _, s := range sentinelIssues {
		if errors.Is(err, s.err) {
			return issue.Get(s.id)
		}
	}
	return nil
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method, which includes the chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
