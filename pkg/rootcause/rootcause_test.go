// SPDX-License-Identifier: MPL-2.0

package rootcause

import (
	"slices"
	"testing"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/platform"
	"github.com/invowk/bundlegraph/pkg/state"
	"github.com/invowk/bundlegraph/pkg/version"
)

func mod(id string, exports ...string) *catalog.Module {
	return &catalog.Module{ID: id, Version: version.MustParse("1.0"), Exports: exports, Origin: catalog.Binary(catalog.BinaryOrigin{})}
}

func unresolved(m *catalog.Module, constraints ...state.Constraint) *state.ModuleState {
	return &state.ModuleState{Module: m.Key(), Unsatisfied: constraints}
}

func newWalker(modules ...*catalog.Module) *Walker {
	return New(platform.New(nil, []catalog.Source{catalog.NewStaticCatalog("repo", catalog.OriginBinary, modules, nil)}))
}

func chainIDs(chain []Step) []string {
	ids := make([]string, 0, len(chain))
	for _, s := range chain {
		ids = append(ids, s.Module.ID)
	}
	return ids
}

func TestFindFollowsImportThenRequire(t *testing.T) {
	t.Parallel()

	x := mod("X")
	y := mod("Y", "pkg.q")
	z := mod("Z")
	set := []*state.ModuleState{
		unresolved(x, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.q", Range: version.Any()}),
		unresolved(y, state.Constraint{Kind: state.ConstraintRequire, Name: "Z", Range: version.Any()}),
		unresolved(z, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.external", Range: version.Any()}),
	}
	w := newWalker(x, y, z)

	if got := w.Find(x, set); got != z {
		t.Errorf("Find(X) = %s, want Z@1.0.0", got)
	}

	chain := w.Chain(x, set)
	if got, want := chainIDs(chain), []string{"X", "Y", "Z"}; !slices.Equal(got, want) {
		t.Fatalf("Chain(X) = %v, want %v", got, want)
	}
	if chain[0].Because != nil {
		t.Errorf("first step Because = %v, want nil", chain[0].Because)
	}
	if c := chain[1].Because; c == nil || c.Kind != state.ConstraintImport || c.Name != "pkg.q" {
		t.Errorf("second step Because = %v, want import pkg.q", c)
	}
	if c := chain[2].Because; c == nil || c.Kind != state.ConstraintRequire || c.Name != "Z" {
		t.Errorf("third step Because = %v, want require Z", c)
	}
}

func TestFindBaseCase(t *testing.T) {
	t.Parallel()

	x := mod("X")
	other := mod("Other", "pkg.other")
	set := []*state.ModuleState{
		unresolved(x, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.q", Range: version.Any()}),
		unresolved(other),
	}

	if got := newWalker(x, other).Find(x, set); got != x {
		t.Errorf("Find(X) = %s, want X itself", got)
	}
}

func TestFindRespectsVersionRange(t *testing.T) {
	t.Parallel()

	x := mod("X")
	y := mod("Y")
	set := []*state.ModuleState{
		unresolved(x, state.Constraint{Kind: state.ConstraintRequire, Name: "Y", Range: version.MustParseRange("[2.0,3.0)")}),
		unresolved(y, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.none"}),
	}

	if got := newWalker(x, y).Find(x, set); got != x {
		t.Errorf("Find(X) = %s, want X (Y@1.0.0 is outside [2.0,3.0))", got)
	}
}

func TestFindHostConstraint(t *testing.T) {
	t.Parallel()

	frag := mod("lib.frag")
	host := mod("lib.host")
	set := []*state.ModuleState{
		unresolved(frag, state.Constraint{Kind: state.ConstraintHost, Name: "lib.host"}),
		unresolved(host, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.gone"}),
	}

	if got := newWalker(frag, host).Find(frag, set); got != host {
		t.Errorf("Find(lib.frag) = %s, want lib.host", got)
	}
}

func TestFindSkipsOptionalConstraints(t *testing.T) {
	t.Parallel()

	x := mod("X")
	y := mod("Y", "pkg.opt")
	set := []*state.ModuleState{
		unresolved(x, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.opt", Optional: true}),
		unresolved(y, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.none"}),
	}

	if got := newWalker(x, y).Find(x, set); got != x {
		t.Errorf("Find(X) = %s, want X (optional constraints are not followed)", got)
	}
}

func TestFindTerminatesOnCycle(t *testing.T) {
	t.Parallel()

	a := mod("A", "pkg.a")
	b := mod("B", "pkg.b")
	set := []*state.ModuleState{
		unresolved(a, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.b"}),
		unresolved(b, state.Constraint{Kind: state.ConstraintImport, Name: "pkg.a"}),
	}
	w := newWalker(a, b)

	chain := w.Chain(a, set)
	if got, want := chainIDs(chain), []string{"A", "B"}; !slices.Equal(got, want) {
		t.Errorf("Chain(A) = %v, want %v", got, want)
	}
	if got := w.Find(b, set); got != a {
		t.Errorf("Find(B) = %s, want A", got)
	}
}

func TestFindIgnoresUnknownModules(t *testing.T) {
	t.Parallel()

	x := mod("X")
	set := []*state.ModuleState{
		unresolved(x, state.Constraint{Kind: state.ConstraintRequire, Name: "ghost"}),
		{Module: catalog.Key{ID: "ghost", Version: "1.0.0"}},
	}

	if got := newWalker(x).Find(x, set); got != x {
		t.Errorf("Find(X) = %s, want X", got)
	}
}
