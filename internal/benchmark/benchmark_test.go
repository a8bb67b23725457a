// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"fmt"
	"testing"

	"github.com/invowk/bundlegraph/internal/testutil"
	"github.com/invowk/bundlegraph/pkg/aggregate"
	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/closure"
	"github.com/invowk/bundlegraph/pkg/platform"
	"github.com/invowk/bundlegraph/pkg/rootcause"
	"github.com/invowk/bundlegraph/pkg/state"
	"github.com/invowk/bundlegraph/pkg/version"
)

const (
	chainLength = 200

	sampleModule = `
id:      "org.example.core"
version: "3.4.1.v20260101"
exports: ["org.example.core", "org.example.core.internal", "org.example.core.util"]
imports: [
	{package: "org.slf4j", range: "[1.7,2.0)"},
	{package: "javax.annotation", optional: true},
]
requires: [
	{id: "org.example.runtime", range: "[3.0,4.0)", reexport: true},
	{id: "org.example.jobs", range: "3.2"},
]
extensible: true
singleton:  true
classpath: [".", "lib/core.jar"]
`
)

// chain builds lib.0 .. lib.N-1 where each module re-exports the next, and a
// resolved state binding every require.
func chain(n int) ([]*catalog.Module, *state.Snapshot) {
	modules := make([]*catalog.Module, n)
	for i := range n {
		modules[i] = &catalog.Module{
			ID:      fmt.Sprintf("lib.%d", i),
			Version: version.MustParse("1.0"),
			Exports: []string{fmt.Sprintf("pkg.%d", i), fmt.Sprintf("pkg.%d.internal", i)},
			Origin:  catalog.Binary(catalog.BinaryOrigin{Location: fmt.Sprintf("/repo/lib.%d", i)}),
		}
	}
	states := make([]state.ModuleState, n)
	for i, m := range modules {
		states[i] = state.ModuleState{Module: m.Key(), Resolved: true}
		if i+1 < n {
			next := modules[i+1]
			m.Requires = []catalog.RequireSpec{{ID: next.ID, Range: version.Any(), Reexport: true}}
			states[i].Requires = []state.RequireBinding{{ID: next.ID, Providers: []catalog.Key{next.Key()}}}
		}
	}
	return modules, state.NewSnapshot(states...)
}

func newPlatform(b *testing.B, modules []*catalog.Module, aggregates []*catalog.AggregateDescriptor) *platform.Platform {
	b.Helper()
	p := platform.New(nil, []catalog.Source{catalog.NewStaticCatalog("repo", catalog.OriginBinary, modules, aggregates)})
	if err := p.Load(b.Context()); err != nil {
		b.Fatalf("Load failed: %v", err)
	}
	return p
}

// BenchmarkParseModule covers CUE schema unification and decoding of one
// descriptor.
func BenchmarkParseModule(b *testing.B) {
	data := []byte(sampleModule)
	origin := catalog.Binary(catalog.BinaryOrigin{})

	for b.Loop() {
		if _, err := catalog.ParseModule(data, "module.cue", origin); err != nil {
			b.Fatalf("ParseModule failed: %v", err)
		}
	}
}

// BenchmarkRepositoryLoad scans and parses a repository of 100 modules.
func BenchmarkRepositoryLoad(b *testing.B) {
	files := make(testutil.Files, 100)
	for i := range 100 {
		files[fmt.Sprintf("repo/lib.%d/module.cue", i)] = testutil.ModuleCUE(fmt.Sprintf("lib.%d", i), "1.0", fmt.Sprintf("pkg.%d", i))
	}
	fsys := testutil.MemFs(b, files)
	c := catalog.NewRepositoryCatalog(fsys, "/repo")

	for b.Loop() {
		c.Refresh()
		if _, err := c.Modules(b.Context()); err != nil {
			b.Fatalf("Modules failed: %v", err)
		}
	}
}

// BenchmarkPlatformMerge rebuilds a platform where a workspace shadows half
// of a binary repository.
func BenchmarkPlatformMerge(b *testing.B) {
	binaries, _ := chain(chainLength)
	workspace := make([]*catalog.Module, 0, chainLength/2)
	for _, m := range binaries[:chainLength/2] {
		ws := *m
		ws.Origin = catalog.Workspace(catalog.WorkspaceOrigin{ProjectDir: "/ws/" + m.ID})
		workspace = append(workspace, &ws)
	}
	p := platform.New(
		catalog.NewStaticCatalog("ws", catalog.OriginWorkspace, workspace, nil),
		[]catalog.Source{catalog.NewStaticCatalog("repo", catalog.OriginBinary, binaries, nil)},
		platform.WithPreferWorkspace(true),
	)

	for b.Loop() {
		if err := p.Refresh(b.Context()); err != nil {
			b.Fatalf("Refresh failed: %v", err)
		}
	}
}

// BenchmarkClasspathReexportChain computes the classpath at the head of a
// long re-export chain with a fresh resolver each time.
func BenchmarkClasspathReexportChain(b *testing.B) {
	modules, st := chain(chainLength)
	p := newPlatform(b, modules, nil)

	for b.Loop() {
		res, err := closure.New(p, st).ResolveClasspath(modules[0])
		if err != nil {
			b.Fatalf("ResolveClasspath failed: %v", err)
		}
		if len(res.Dependencies) != chainLength {
			b.Fatalf("dependencies = %d, want %d", len(res.Dependencies), chainLength)
		}
	}
}

// BenchmarkClasspathCached measures the memoized path.
func BenchmarkClasspathCached(b *testing.B) {
	modules, st := chain(chainLength)
	r := closure.New(newPlatform(b, modules, nil), st)

	for b.Loop() {
		if _, err := r.ResolveClasspath(modules[0]); err != nil {
			b.Fatalf("ResolveClasspath failed: %v", err)
		}
	}
}

// BenchmarkAggregateResolve orders the members of one large aggregate.
func BenchmarkAggregateResolve(b *testing.B) {
	modules, _ := chain(chainLength)
	desc := &catalog.AggregateDescriptor{ID: "feat.all", Version: version.MustParse("1.0"), Origin: catalog.Binary(catalog.BinaryOrigin{})}
	for _, m := range modules {
		desc.Members = append(desc.Members, catalog.MemberRef{ID: m.ID})
	}
	p := newPlatform(b, modules, []*catalog.AggregateDescriptor{desc})
	env := platform.CurrentEnvironment()

	for b.Loop() {
		// A fresh resolver skips the cache.
		if _, err := aggregate.New(p).Resolve(desc, env); err != nil {
			b.Fatalf("Resolve failed: %v", err)
		}
	}
}

// BenchmarkRootCauseChain walks a chain where every module is blocked by the next.
func BenchmarkRootCauseChain(b *testing.B) {
	modules, _ := chain(chainLength)
	unresolved := make([]*state.ModuleState, len(modules))
	for i, m := range modules {
		st := &state.ModuleState{Module: m.Key()}
		if i+1 < len(modules) {
			st.Unsatisfied = []state.Constraint{{Kind: state.ConstraintRequire, Name: modules[i+1].ID, Range: version.Any()}}
		}
		unresolved[i] = st
	}
	w := rootcause.New(newPlatform(b, modules, nil))

	for b.Loop() {
		if got := w.Find(modules[0], unresolved); got != modules[len(modules)-1] {
			b.Fatalf("Find = %s, want the chain tail", got)
		}
	}
}
