// SPDX-License-Identifier: MPL-2.0

package catalog

import "fmt"

const (
	// OriginUnknown is the zero OriginKind and never valid on a loaded module.
	OriginUnknown OriginKind = iota
	// OriginWorkspace marks in-progress modules read from workspace projects.
	OriginWorkspace
	// OriginBinary marks prebuilt modules read from a repository directory.
	OriginBinary
)

type (
	// OriginKind discriminates Origin.
	OriginKind int

	// WorkspaceOrigin locates an in-progress module.
	WorkspaceOrigin struct {
		// ProjectDir is the project directory holding module.cue.
		ProjectDir string
		// SourceRoots are project-relative source directories.
		SourceRoots []string
		// OutputRoots are project-relative compiled-output directories.
		OutputRoots []string
	}

	// BinaryOrigin locates a prebuilt module.
	BinaryOrigin struct {
		// Repository is the repository root the module was found in.
		Repository string
		// Location is the module file or directory.
		Location string
	}

	// Origin is a tagged variant over WorkspaceOrigin and BinaryOrigin.
	// Construct it with Workspace or Binary and inspect it with MatchOrigin.
	Origin struct {
		kind      OriginKind
		workspace WorkspaceOrigin
		binary    BinaryOrigin
	}
)

// String returns the lowercase kind name.
func (k OriginKind) String() string {
	switch k {
	case OriginWorkspace:
		return "workspace"
	case OriginBinary:
		return "binary"
	case OriginUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("OriginKind(%d)", int(k))
	}
}

// Workspace returns a workspace origin.
func Workspace(w WorkspaceOrigin) Origin { return Origin{kind: OriginWorkspace, workspace: w} }

// Binary returns a binary origin.
func Binary(b BinaryOrigin) Origin { return Origin{kind: OriginBinary, binary: b} }

// Kind returns the variant tag.
func (o Origin) Kind() OriginKind { return o.kind }

// IsWorkspace reports whether the origin is a workspace project.
func (o Origin) IsWorkspace() bool { return o.kind == OriginWorkspace }

// MatchOrigin dispatches on the origin variant. Both arms are mandatory; an
// origin without a kind is a programming error and panics.
func MatchOrigin[T any](o Origin, onWorkspace func(WorkspaceOrigin) T, onBinary func(BinaryOrigin) T) T {
	switch o.kind {
	case OriginWorkspace:
		return onWorkspace(o.workspace)
	case OriginBinary:
		return onBinary(o.binary)
	default:
		panic(fmt.Sprintf("catalog: unmatched origin kind %s", o.kind))
	}
}

// String describes the origin for diagnostics.
func (o Origin) String() string {
	if o.kind == OriginUnknown {
		return "unknown"
	}
	return MatchOrigin(o,
		func(w WorkspaceOrigin) string { return "workspace:" + w.ProjectDir },
		func(b BinaryOrigin) string { return "binary:" + b.Location },
	)
}
