// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{ConfigLoadFailedId, "Configuration could not be loaded"},
		{CatalogLoadFailedId, "catalog failed to load"},
		{ModuleNotFoundId, "Module not found"},
		{RootUnresolvedId, "not resolved"},
		{InconsistentBindingId, "inconsistent"},
		{AggregateMemberMissingId, "no match"},
		{DuplicateWorkspaceModuleId, "same module"},
		{StateFileInvalidId, "state file is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()
			issue := Get(tt.id)
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
			if len(issue.DocLinks()) == 0 {
				t.Errorf("Get(%d) has no doc links", tt.id)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	issues := Values()
	if len(issues) != len(issuesByTest()) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), len(issuesByTest()))
	}
	for i, issue := range issues {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
	}
}

func issuesByTest() []Id {
	return []Id{
		ConfigLoadFailedId, CatalogLoadFailedId, ModuleNotFoundId, RootUnresolvedId,
		InconsistentBindingId, AggregateMemberMissingId, DuplicateWorkspaceModuleId, StateFileInvalidId,
	}
}

func TestIssue_DocLinksAreCloned(t *testing.T) {
	t.Parallel()

	issue := Get(ModuleNotFoundId)
	links := issue.DocLinks()
	original := links[0]
	links[0] = "modified"
	if issue.DocLinks()[0] != original {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render_Links(t *testing.T) {
	originalRender := render
	t.Cleanup(func() { render = originalRender })
	render = func(in, _ string) (string, error) { return in, nil }

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}
	rendered, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	for _, want := range []string{"See also", "https://docs.example.com", "https://external.example.com"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() output missing %q:\n%s", want, rendered)
		}
	}

	rendered, err = (&Issue{id: Id(9998), mdMsg: "# No links"}).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestIssue_Render_Glamour(t *testing.T) {
	t.Parallel()

	for _, issue := range Values() {
		rendered, err := issue.Render("notty")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
			continue
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}
