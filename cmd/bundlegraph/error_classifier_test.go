// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/invowk/bundlegraph/internal/config"
	"github.com/invowk/bundlegraph/internal/issue"
	"github.com/invowk/bundlegraph/pkg/aggregate"
	"github.com/invowk/bundlegraph/pkg/closure"
	"github.com/invowk/bundlegraph/pkg/platform"
	"github.com/invowk/bundlegraph/pkg/state"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantID   issue.Id
		wantCode int
	}{
		{
			name:     "unresolved root",
			err:      fmt.Errorf("classpath: %w", closure.ErrUnresolved),
			wantID:   issue.RootUnresolvedId,
			wantCode: ExitResolution,
		},
		{
			name:     "inconsistent binding",
			err:      fmt.Errorf("classpath: %w", closure.ErrInconsistentBinding),
			wantID:   issue.InconsistentBindingId,
			wantCode: ExitResolution,
		},
		{
			name:     "missing aggregate member",
			err:      fmt.Errorf("resolve: %w", aggregate.ErrMissingReference),
			wantID:   issue.AggregateMemberMissingId,
			wantCode: ExitResolution,
		},
		{
			name:     "duplicate workspace module",
			err:      fmt.Errorf("load: %w", platform.ErrDuplicateModule),
			wantID:   issue.DuplicateWorkspaceModuleId,
			wantCode: ExitUsage,
		},
		{
			name:     "state environment mismatch",
			err:      fmt.Errorf("state: %w", state.ErrEnvironmentMismatch),
			wantID:   issue.StateFileInvalidId,
			wantCode: ExitUsage,
		},
		{
			name:     "invalid config",
			err:      &config.InvalidConfigError{FieldErrors: []error{errors.New("bad")}},
			wantID:   issue.ConfigLoadFailedId,
			wantCode: ExitUsage,
		},
		{
			name: "config actionable error",
			err: issue.NewErrorContext().
				WithOperation("load configuration").
				Wrap(errors.New("parse failed")).
				BuildError(),
			wantID:   issue.ConfigLoadFailedId,
			wantCode: ExitUsage,
		},
		{
			name:     "unknown error",
			err:      errors.New("boom"),
			wantID:   0,
			wantCode: ExitResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, code := classifyError(tt.err)
			if id != tt.wantID {
				t.Errorf("classifyError() id = %d, want %d", id, tt.wantID)
			}
			if code != tt.wantCode {
				t.Errorf("classifyError() code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestFailKeepsExistingContext(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})
	inner := issue.NewErrorContext().
		WithOperation("load resolved state").
		WithResource("/state.cue").
		WithSuggestion("Check the file").
		Wrap(errors.New("bad")).
		Build()

	err := app.fail("resolve classpath", "a@1.0.0", inner)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitUsage {
		t.Fatalf("fail() = %v, want ExitError with code %d", err, ExitUsage)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("fail() = %v, want ActionableError in chain", err)
	}
	if ae.Operation != "load resolved state" || ae.Resource != "/state.cue" {
		t.Errorf("context = %q on %q, want the original context", ae.Operation, ae.Resource)
	}
	if ae.Issue != issue.StateFileInvalidId {
		t.Errorf("issue = %d, want %d", ae.Issue, issue.StateFileInvalidId)
	}
}

func TestFailCatalogFallback(t *testing.T) {
	t.Parallel()

	err := NewApp(Dependencies{}).fail("load catalogs", "/repo", errors.New("bad descriptor"), "Check module.cue")

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("fail() = %v, want ActionableError", err)
	}
	if ae.Issue != issue.CatalogLoadFailedId {
		t.Errorf("issue = %d, want %d", ae.Issue, issue.CatalogLoadFailedId)
	}
	if len(ae.Suggestions) != 1 || ae.Suggestions[0] != "Check module.cue" {
		t.Errorf("suggestions = %v, want [Check module.cue]", ae.Suggestions)
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	err := &ExitError{Code: ExitUsage, Err: issue.NewErrorContext().
		WithOperation("load resolved state").
		WithSuggestion("Pass --state <file>").
		Wrap(errors.New("no state file")).
		Build()}

	var quiet bytes.Buffer
	explain(&quiet, err, false)
	if !strings.Contains(quiet.String(), "Pass --state <file>") {
		t.Errorf("explain() = %q, want the suggestion", quiet.String())
	}
	if strings.Contains(quiet.String(), "no state file") {
		t.Errorf("explain() = %q, want no cause outside verbose mode", quiet.String())
	}

	var verbose bytes.Buffer
	explain(&verbose, err, true)
	if !strings.Contains(verbose.String(), "no state file") {
		t.Errorf("explain(verbose) = %q, want the cause", verbose.String())
	}

	var none bytes.Buffer
	explain(&none, errors.New("plain"), true)
	if none.Len() != 0 {
		t.Errorf("explain(plain error) = %q, want nothing", none.String())
	}
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	if got, want := (&ExitError{Code: 2}).Error(), "exit status 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	cause := errors.New("cause")
	e := &ExitError{Code: 1, Err: cause}
	if e.Error() != "cause" || !errors.Is(e, cause) {
		t.Errorf("ExitError{Err: cause} = %q, want it to wrap cause", e.Error())
	}
}
