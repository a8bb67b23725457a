// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invowk/bundlegraph/pkg/version"
)

// ErrInvalidKey is returned by ParseKey for malformed module keys.
var ErrInvalidKey = errors.New("invalid module key")

type (
	// Key identifies one module version. It is comparable and usable as a map key.
	Key struct {
		ID      string
		Version string
	}

	// ImportSpec is a package import constraint.
	// Package versions follow the version of the exporting module.
	ImportSpec struct {
		Package  string
		Range    version.Range
		Optional bool
	}

	// RequireSpec is a module require constraint.
	RequireSpec struct {
		ID       string
		Range    version.Range
		Reexport bool
		Optional bool
	}

	// HostSpec names the host a fragment attaches to.
	HostSpec struct {
		ID    string
		Range version.Range
	}

	// Module is one version of a module. Modules are immutable once a
	// catalog has loaded them.
	Module struct {
		ID       string
		Version  version.Version
		Exports  []string
		Imports  []ImportSpec
		Requires []RequireSpec
		// Host is non-nil for fragments.
		Host *HostSpec
		// Extensible hosts implicitly attach every known fragment targeting them.
		Extensible bool
		Singleton  bool
		// ClassPath lists entries inside the module location, "." meaning the location itself.
		ClassPath []string
		Origin    Origin
	}
)

// String returns "id@version".
func (k Key) String() string { return k.ID + "@" + k.Version }

// ParseKey parses "id@version". The version part is canonicalized.
func ParseKey(s string) (Key, error) {
	id, ver, ok := strings.Cut(s, "@")
	if !ok || id == "" || ver == "" {
		return Key{}, fmt.Errorf("%w: %q (want id@version)", ErrInvalidKey, s)
	}
	v, err := version.Parse(ver)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %w", ErrInvalidKey, s, err)
	}
	return Key{ID: id, Version: v.String()}, nil
}

// Key returns the module's identity.
func (m *Module) Key() Key { return Key{ID: m.ID, Version: m.Version.String()} }

// String returns "id@version".
func (m *Module) String() string { return m.Key().String() }

// IsFragment reports whether the module attaches to a host.
func (m *Module) IsFragment() bool { return m.Host != nil }

// ExportsPackage reports whether the module exports pkg.
func (m *Module) ExportsPackage(pkg string) bool { return slices.Contains(m.Exports, pkg) }

// SatisfiesImport reports whether the module could satisfy imp.
func (m *Module) SatisfiesImport(imp ImportSpec) bool {
	return m.ExportsPackage(imp.Package) && imp.Range.Contains(m.Version)
}

// SatisfiesRequire reports whether the module could satisfy req.
func (m *Module) SatisfiesRequire(req RequireSpec) bool {
	return m.ID == req.ID && req.Range.Contains(m.Version)
}

// IsFragmentOf reports whether m is a fragment whose host constraint accepts host.
func (m *Module) IsFragmentOf(host *Module) bool {
	return m.Host != nil && m.Host.ID == host.ID && m.Host.Range.Contains(host.Version)
}

// ReexportedRequires returns the require specs flagged for re-export, in declaration order.
func (m *Module) ReexportedRequires() []RequireSpec {
	var out []RequireSpec
	for _, r := range m.Requires {
		if r.Reexport {
			out = append(out, r)
		}
	}
	return out
}

// CompareModules orders modules by id, then version.
func CompareModules(a, b *Module) int {
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return a.Version.Compare(b.Version)
}
