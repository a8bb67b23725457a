// SPDX-License-Identifier: MPL-2.0

package state

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/version"
)

const (
	// ConstraintImport is an unsatisfied package import.
	ConstraintImport ConstraintKind = "import"
	// ConstraintRequire is an unsatisfied module require.
	ConstraintRequire ConstraintKind = "require"
	// ConstraintHost is a fragment whose host could not be found.
	ConstraintHost ConstraintKind = "host"
)

type (
	// ConstraintKind discriminates Constraint.
	ConstraintKind string

	// Constraint is one constraint the solver could not satisfy. Name is a
	// package name for imports and a module id otherwise.
	Constraint struct {
		Kind     ConstraintKind
		Name     string
		Range    version.Range
		Optional bool
	}

	// ImportBinding names the module providing an imported package.
	ImportBinding struct {
		Package  string
		Provider catalog.Key
	}

	// RequireBinding names the modules satisfying a require.
	RequireBinding struct {
		ID        string
		Providers []catalog.Key
	}

	// ModuleState is the solver's verdict on one module.
	ModuleState struct {
		Module   catalog.Key
		Resolved bool
		Imports  []ImportBinding
		Requires []RequireBinding
		// Host is the host a resolved fragment attached to.
		Host        *catalog.Key
		Unsatisfied []Constraint
	}

	// State is a resolved binding graph.
	State interface {
		// Lookup returns the state of one module.
		Lookup(key catalog.Key) (*ModuleState, bool)
		// Unresolved returns every unresolved module, ordered by key.
		Unresolved() []*ModuleState
		// Fragments returns the fragments bound to host, ordered by key.
		Fragments(host catalog.Key) []catalog.Key
	}

	// Provider produces the state for a module universe and environment.
	Provider interface {
		Resolve(ctx context.Context, modules []*catalog.Module, env catalog.Environment) (State, error)
	}

	// Snapshot is an immutable State built from ModuleState values.
	Snapshot struct {
		modules    map[catalog.Key]*ModuleState
		unresolved []*ModuleState
		fragments  map[catalog.Key][]catalog.Key
	}

	// StaticProvider returns a fixed state.
	StaticProvider struct {
		State State
	}
)

// String renders "import pkg.q [1.0.0,2.0.0)".
func (c Constraint) String() string {
	if c.Range.IsAny() {
		return fmt.Sprintf("%s %s", c.Kind, c.Name)
	}
	return fmt.Sprintf("%s %s %s", c.Kind, c.Name, c.Range)
}

// Satisfies reports whether m would satisfy c, judged from its declaration alone.
func (c Constraint) Satisfies(m *catalog.Module) bool {
	switch c.Kind {
	case ConstraintImport:
		return m.SatisfiesImport(catalog.ImportSpec{Package: c.Name, Range: c.Range})
	case ConstraintRequire, ConstraintHost:
		return m.SatisfiesRequire(catalog.RequireSpec{ID: c.Name, Range: c.Range})
	default:
		return false
	}
}

// ImportProvider returns the provider bound to pkg.
func (s *ModuleState) ImportProvider(pkg string) (catalog.Key, bool) {
	for _, b := range s.Imports {
		if b.Package == pkg {
			return b.Provider, true
		}
	}
	return catalog.Key{}, false
}

// RequireProviders returns the providers bound to the require on id.
func (s *ModuleState) RequireProviders(id string) []catalog.Key {
	for _, b := range s.Requires {
		if b.ID == id {
			return b.Providers
		}
	}
	return nil
}

// NewSnapshot indexes states. A later state for the same module replaces an earlier one.
func NewSnapshot(states ...ModuleState) *Snapshot {
	s := &Snapshot{
		modules:   make(map[catalog.Key]*ModuleState, len(states)),
		fragments: make(map[catalog.Key][]catalog.Key),
	}
	for i := range states {
		st := states[i]
		s.modules[st.Module] = &st
	}

	keys := make([]catalog.Key, 0, len(s.modules))
	for k := range s.modules {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	for _, k := range keys {
		st := s.modules[k]
		if !st.Resolved {
			s.unresolved = append(s.unresolved, st)
			continue
		}
		if st.Host != nil {
			s.fragments[*st.Host] = append(s.fragments[*st.Host], k)
		}
	}
	return s
}

// Lookup implements State.
func (s *Snapshot) Lookup(key catalog.Key) (*ModuleState, bool) {
	st, ok := s.modules[key]
	return st, ok
}

// Unresolved implements State.
func (s *Snapshot) Unresolved() []*ModuleState { return slices.Clone(s.unresolved) }

// Fragments implements State.
func (s *Snapshot) Fragments(host catalog.Key) []catalog.Key { return slices.Clone(s.fragments[host]) }

// Len returns the number of modules in the snapshot.
func (s *Snapshot) Len() int { return len(s.modules) }

// Resolve implements Provider.
func (p StaticProvider) Resolve(ctx context.Context, _ []*catalog.Module, _ catalog.Environment) (State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.State == nil {
		return NewSnapshot(), nil
	}
	return p.State, nil
}

func compareKeys(a, b catalog.Key) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	va, errA := version.Parse(a.Version)
	vb, errB := version.Parse(b.Version)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return cmp.Compare(a.Version, b.Version)
}
