// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	// ConfigLoadFailedId covers unreadable or invalid config files.
	ConfigLoadFailedId Id = iota + 1
	// CatalogLoadFailedId covers descriptor files that fail to parse.
	CatalogLoadFailedId
	// ModuleNotFoundId covers lookups of unknown modules.
	ModuleNotFoundId
	// RootUnresolvedId covers closures requested for unresolved modules.
	RootUnresolvedId
	// InconsistentBindingId covers state files that bind to unknown providers.
	InconsistentBindingId
	// AggregateMemberMissingId covers aggregate references without a match.
	AggregateMemberMissingId
	// DuplicateWorkspaceModuleId covers two workspace projects sharing a key.
	DuplicateWorkspaceModuleId
	// StateFileInvalidId covers resolved-state files that fail to parse.
	StateFileInvalidId
)

const docsBase = "https://github.com/invowk/bundlegraph/blob/main/docs/"

type (
	// Id identifies an issue.
	Id int

	// MarkdownMsg is guidance text in Markdown.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is long-form guidance for a class of failures.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the guidance text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with glamour. stylePath is a glamour style name
// ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The config file exists but is not valid CUE, or it does not match the schema.

## Things you can try
- Print the effective defaults:
~~~
$ bundlegraph config show
~~~
- Write a fresh default file and edit it:
~~~
$ bundlegraph config init
~~~
- Check that ` + "`log_level`" + ` is one of debug, info, warn, error.`,
		docLinks: []HttpLink{docsBase + "configuration.md"},
	}

	catalogLoadFailedIssue = &Issue{
		id: CatalogLoadFailedId,
		mdMsg: `
# A module catalog failed to load

One or more ` + "`module.cue`" + ` or ` + "`aggregate.cue`" + ` files could not be parsed.
Every failing file is listed in the error above.

## Example module descriptor
~~~cue
id:      "lib.core"
version: "1.0.0"
exports: ["lib.core.api"]
requires: [{id: "lib.base", range: "[1.0,2.0)", reexport: true}]
~~~`,
		docLinks: []HttpLink{docsBase + "descriptors.md"},
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found

No composed catalog contains the requested module.

## Things you can try
- List what the platform knows about:
~~~
$ bundlegraph list
~~~
- Add the workspace project or repository that holds it with
  ` + "`--workspace`" + ` or ` + "`--repository`" + `.`,
		docLinks: []HttpLink{docsBase + "catalogs.md"},
	}

	rootUnresolvedIssue = &Issue{
		id: RootUnresolvedId,
		mdMsg: `
# The module is not resolved

The resolved-state file reports this module as unresolved, so no classpath
can be computed for it.

## Things you can try
- Find the module whose missing constraint blocks resolution:
~~~
$ bundlegraph why <id@version>
~~~
- Regenerate the state file with your resolver.`,
		docLinks: []HttpLink{docsBase + "state.md"},
	}

	inconsistentBindingIssue = &Issue{
		id: InconsistentBindingId,
		mdMsg: `
# The resolved state is inconsistent

A binding names a provider that is missing from the catalogs, unresolved, or
does not satisfy the bound constraint. The state file was probably produced
against a different set of catalogs.

## Things you can try
- Regenerate the state file against the current workspace and repositories.`,
		docLinks: []HttpLink{docsBase + "state.md"},
	}

	aggregateMemberMissingIssue = &Issue{
		id: AggregateMemberMissingId,
		mdMsg: `
# An aggregate reference has no match

A member or include of the aggregate names an id and version that no catalog
provides. Explicit versions must match exactly; leave the version empty or
use ` + "`*`" + ` to select the highest available one.

## Things you can try
- Compare the reference with the versions the platform knows:
~~~
$ bundlegraph list
~~~
- Mark optional includes with ` + "`optional: true`" + `.`,
		docLinks: []HttpLink{docsBase + "aggregates.md"},
	}

	duplicateWorkspaceModuleIssue = &Issue{
		id: DuplicateWorkspaceModuleId,
		mdMsg: `
# Two workspace projects declare the same module

Workspace modules override repository modules, so two of them with the same id
and version cannot be ordered. Rename one or bump its version.`,
		docLinks: []HttpLink{docsBase + "catalogs.md"},
	}

	stateFileInvalidIssue = &Issue{
		id: StateFileInvalidId,
		mdMsg: `
# The resolved-state file is invalid

The file could not be parsed, or it was written for a different target
environment than the one requested.

## Things you can try
- Pass the environment the file was written for with ` + "`--os`" + `, ` + "`--ws`" + `, ` + "`--arch`" + `, ` + "`--nl`" + `.
- Point ` + "`--state`" + ` at the correct file.`,
		docLinks: []HttpLink{docsBase + "state.md"},
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		catalogLoadFailedIssue.Id():        catalogLoadFailedIssue,
		moduleNotFoundIssue.Id():           moduleNotFoundIssue,
		rootUnresolvedIssue.Id():           rootUnresolvedIssue,
		inconsistentBindingIssue.Id():      inconsistentBindingIssue,
		aggregateMemberMissingIssue.Id():   aggregateMemberMissingIssue,
		duplicateWorkspaceModuleIssue.Id(): duplicateWorkspaceModuleIssue,
		stateFileInvalidIssue.Id():         stateFileInvalidIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
