// SPDX-License-Identifier: MPL-2.0

package content

import (
	"path/filepath"

	"github.com/invowk/bundlegraph/pkg/catalog"
)

const (
	// KindBinary is compiled output or a prebuilt archive.
	KindBinary Kind = "binary"
	// KindSource is a workspace source root.
	KindSource Kind = "source"
)

type (
	// Kind tells binary entries from source entries.
	Kind string

	// Entry is one physical classpath entry.
	Entry struct {
		Path string `json:"path" toml:"path"`
		Kind Kind   `json:"kind" toml:"kind"`
	}

	// Accessor returns the classpath entries of a module.
	Accessor interface {
		Entries(m *catalog.Module) []Entry
	}

	// AccessorFunc adapts a function to Accessor.
	AccessorFunc func(m *catalog.Module) []Entry

	// OriginAccessor derives entries from the module's origin. Workspace
	// modules contribute their output roots, then their source roots, all
	// under the project directory. Binary modules contribute their location
	// joined with each ClassPath element.
	OriginAccessor struct {
		// IncludeSources controls whether workspace source roots are listed.
		IncludeSources bool
	}
)

// Entries calls f(m).
func (f AccessorFunc) Entries(m *catalog.Module) []Entry { return f(m) }

// Entries implements Accessor.
func (a OriginAccessor) Entries(m *catalog.Module) []Entry {
	return catalog.MatchOrigin(m.Origin,
		func(w catalog.WorkspaceOrigin) []Entry {
			entries := make([]Entry, 0, len(w.OutputRoots)+len(w.SourceRoots))
			for _, out := range w.OutputRoots {
				entries = append(entries, Entry{Path: filepath.Join(w.ProjectDir, out), Kind: KindBinary})
			}
			if a.IncludeSources {
				for _, src := range w.SourceRoots {
					entries = append(entries, Entry{Path: filepath.Join(w.ProjectDir, src), Kind: KindSource})
				}
			}
			return entries
		},
		func(b catalog.BinaryOrigin) []Entry {
			cp := m.ClassPath
			if len(cp) == 0 {
				cp = []string{"."}
			}
			entries := make([]Entry, 0, len(cp))
			for _, elem := range cp {
				entries = append(entries, Entry{Path: filepath.Join(b.Location, filepath.FromSlash(elem)), Kind: KindBinary})
			}
			return entries
		},
	)
}
