// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/invowk/bundlegraph/internal/config"
	"github.com/invowk/bundlegraph/internal/issue"
	"github.com/invowk/bundlegraph/pkg/aggregate"
	"github.com/invowk/bundlegraph/pkg/closure"
	"github.com/invowk/bundlegraph/pkg/platform"
	"github.com/invowk/bundlegraph/pkg/state"
)

// classifyError maps engine failures to issue catalog IDs and exit codes.
func classifyError(err error) (issueID issue.Id, code int) {
	switch {
	case errors.Is(err, closure.ErrUnresolved):
		return issue.RootUnresolvedId, ExitResolution
	case errors.Is(err, closure.ErrInconsistentBinding):
		return issue.InconsistentBindingId, ExitResolution
	case errors.Is(err, aggregate.ErrMissingReference):
		return issue.AggregateMemberMissingId, ExitResolution
	case errors.Is(err, platform.ErrDuplicateModule):
		return issue.DuplicateWorkspaceModuleId, ExitUsage
	case errors.Is(err, state.ErrEnvironmentMismatch):
		return issue.StateFileInvalidId, ExitUsage
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		switch ae.Operation {
		case "load configuration", "validate configuration":
			return issue.ConfigLoadFailedId, ExitUsage
		case "load resolved state":
			return issue.StateFileInvalidId, ExitUsage
		}
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return issue.ConfigLoadFailedId, ExitUsage
	}
	return 0, ExitResolution
}

// fail wraps err with operation context, links it to guidance and assigns an
// exit code. Errors that already carry context keep it.
func (a *App) fail(operation, resource string, err error, suggestions ...string) error {
	id, code := classifyError(err)

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		ae = issue.NewErrorContext().
			WithOperation(operation).
			WithResource(resource).
			WithSuggestions(suggestions...).
			Wrap(err).
			Build()
	}
	if ae.Issue == 0 {
		ae.Issue = id
	}
	if id == 0 && operation == "load catalogs" {
		ae.Issue = issue.CatalogLoadFailedId
	}
	return &ExitError{Code: code, Err: ae}
}

// explain writes suggestions for err and, in verbose mode, the linked guidance.
func explain(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	for _, s := range ae.Suggestions {
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("•"), s)
	}
	if verbose {
		fmt.Fprintln(w, SubtitleStyle.Render(ae.Format(true)))
		if guide := issue.Get(ae.Issue); guide != nil {
			if rendered, rerr := guide.Render("dark"); rerr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
}
