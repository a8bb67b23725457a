// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/diag"
	"github.com/invowk/bundlegraph/pkg/platform"
	"github.com/invowk/bundlegraph/pkg/version"
)

func mod(id, ver string) *catalog.Module {
	return &catalog.Module{ID: id, Version: version.MustParse(ver), Origin: catalog.Binary(catalog.BinaryOrigin{})}
}

func agg(id, ver string, members []catalog.MemberRef, includes ...catalog.IncludeRef) *catalog.AggregateDescriptor {
	return &catalog.AggregateDescriptor{
		ID: id, Version: version.MustParse(ver),
		Members: members, Includes: includes,
		Origin: catalog.Binary(catalog.BinaryOrigin{}),
	}
}

func newPlatform(modules []*catalog.Module, aggregates ...*catalog.AggregateDescriptor) *platform.Platform {
	return platform.New(nil, []catalog.Source{catalog.NewStaticCatalog("repo", catalog.OriginBinary, modules, aggregates)})
}

func memberIDs(res *Resolved) []string {
	var ids []string
	for _, m := range res.Members {
		ids = append(ids, m.Module.String())
	}
	return ids
}

func TestResolveFiltersByEnvironment(t *testing.T) {
	t.Parallel()

	feat := agg("feat", "1.0", []catalog.MemberRef{
		{ID: "lib.a"},
		{ID: "lib.b", Selector: catalog.EnvironmentSelector{OS: "win32"}},
	})
	r := New(newPlatform([]*catalog.Module{mod("lib.a", "1.0"), mod("lib.b", "1.0")}, feat))

	res, err := r.Resolve(feat, catalog.Environment{OS: "linux"})
	if err != nil {
		t.Fatalf("Resolve(linux) unexpected error: %v", err)
	}
	if got := memberIDs(res); !slices.Equal(got, []string{"lib.a@1.0.0"}) {
		t.Errorf("Resolve(linux) members = %v, want [lib.a@1.0.0]", got)
	}

	res, err = r.Resolve(feat, catalog.Environment{OS: "WIN32"})
	if err != nil {
		t.Fatalf("Resolve(win32) unexpected error: %v", err)
	}
	if got := memberIDs(res); len(got) != 2 {
		t.Errorf("Resolve(win32) members = %v, want both", got)
	}
}

func TestResolveVersionSelection(t *testing.T) {
	t.Parallel()

	modules := []*catalog.Module{mod("lib.a", "1.0"), mod("lib.a", "2.0"), mod("lib.a", "1.5")}

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "empty wildcard", ref: "", want: "lib.a@2.0.0"},
		{name: "zero wildcard", ref: "0.0.0", want: "lib.a@2.0.0"},
		{name: "star wildcard", ref: "*", want: "lib.a@2.0.0"},
		{name: "exact", ref: "1.5", want: "lib.a@1.5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			feat := agg("feat", "1.0", []catalog.MemberRef{{ID: "lib.a", Version: tt.ref}})
			res, err := New(newPlatform(modules, feat)).Resolve(feat, catalog.Environment{})
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got := memberIDs(res); !slices.Equal(got, []string{tt.want}) {
				t.Errorf("members = %v, want [%s]", got, tt.want)
			}
		})
	}
}

func TestResolveMissingReferences(t *testing.T) {
	t.Parallel()

	feat := agg("feat", "1.0",
		[]catalog.MemberRef{{ID: "lib.a", Version: "3.0"}, {ID: "lib.corr"}, {ID: "lib.ok"}},
		catalog.IncludeRef{ID: "feat.base"},
	)
	r := New(newPlatform([]*catalog.Module{mod("lib.a", "1.0"), mod("lib.core", "1.0"), mod("lib.ok", "1.0")}, feat))

	_, err := r.Resolve(feat, catalog.Environment{})
	if !errors.Is(err, ErrMissingReference) {
		t.Fatalf("Resolve() error = %v, want ErrMissingReference", err)
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 3 {
		t.Fatalf("Resolve() error = %v, want 3 accumulated errors", err)
	}

	var first *MissingReferenceError
	if !errors.As(merr.Errors[0], &first) {
		t.Fatalf("first error = %T, want *MissingReferenceError", merr.Errors[0])
	}
	if first.ID != "lib.a" || first.Version != "3.0" || !slices.Equal(first.Suggestions, []string{"lib.a@1.0.0"}) {
		t.Errorf("first = %+v, want lib.a@3.0 suggesting lib.a@1.0.0", first)
	}

	var second *MissingReferenceError
	errors.As(merr.Errors[1], &second)
	if second.Version != "*" || !slices.Contains(second.Suggestions, "lib.core") {
		t.Errorf("second = %+v, want lib.corr@* suggesting lib.core", second)
	}
	if !strings.Contains(second.Error(), "did you mean lib.core") {
		t.Errorf("second.Error() = %q, want a suggestion", second.Error())
	}

	var third *MissingReferenceError
	errors.As(merr.Errors[2], &third)
	if third.Kind != RefInclude || third.ID != "feat.base" {
		t.Errorf("third = %+v, want include feat.base", third)
	}
}

func TestResolveOptionalIncludeWarns(t *testing.T) {
	t.Parallel()

	base := agg("feat.base", "1.0", nil)
	feat := agg("feat", "1.0", nil,
		catalog.IncludeRef{ID: "feat.base"},
		catalog.IncludeRef{ID: "feat.extra", Optional: true},
		catalog.IncludeRef{ID: "feat.win", Selector: catalog.EnvironmentSelector{OS: "win32"}},
	)
	r := New(newPlatform(nil, base, feat))

	res, err := r.Resolve(feat, catalog.Environment{OS: "linux"})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if len(res.Includes) != 1 || res.Includes[0].Aggregate != base {
		t.Errorf("Includes = %v, want [feat.base]", res.Includes)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != diag.CodeOptionalIncludeMissing {
		t.Errorf("Diagnostics = %v, want one optional_include_missing", res.Diagnostics)
	}
}

func TestResolveOrdersMembers(t *testing.T) {
	t.Parallel()

	app := mod("app", "1.0")
	app.Imports = []catalog.ImportSpec{{Package: "pkg.lib", Range: version.Any()}}
	lib := mod("lib", "1.0")
	lib.Exports = []string{"pkg.lib"}
	lib.Requires = []catalog.RequireSpec{{ID: "base", Range: version.Any()}}
	base := mod("base", "1.0")
	nls := mod("base.nls", "1.0")
	nls.Host = &catalog.HostSpec{ID: "base", Range: version.Any()}

	feat := agg("feat", "1.0", []catalog.MemberRef{{ID: "app"}, {ID: "base.nls"}, {ID: "lib"}, {ID: "base"}})
	res, err := New(newPlatform([]*catalog.Module{app, lib, base, nls}, feat)).Resolve(feat, catalog.Environment{})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	order := memberIDs(res)
	pos := func(id string) int { return slices.Index(order, id+"@1.0.0") }
	if !(pos("base") < pos("lib") && pos("lib") < pos("app") && pos("base") < pos("base.nls")) {
		t.Errorf("members = %v, want base before lib before app, and base before base.nls", order)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestResolveMemberCycleWarns(t *testing.T) {
	t.Parallel()

	a := mod("a", "1.0")
	a.Requires = []catalog.RequireSpec{{ID: "b", Range: version.Any()}}
	b := mod("b", "1.0")
	b.Requires = []catalog.RequireSpec{{ID: "a", Range: version.Any()}}
	c := mod("c", "1.0")
	c.Requires = []catalog.RequireSpec{{ID: "a", Range: version.Any()}}

	feat := agg("feat", "1.0", []catalog.MemberRef{{ID: "c"}, {ID: "a"}, {ID: "b"}})
	r := New(newPlatform([]*catalog.Module{a, b, c}, feat))

	res, err := r.Resolve(feat, catalog.Environment{})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got, want := memberIDs(res), []string{"a@1.0.0", "b@1.0.0", "c@1.0.0"}; !slices.Equal(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != diag.CodeMemberCycle {
		t.Fatalf("Diagnostics = %v, want one member_cycle", res.Diagnostics)
	}
	if !slices.Equal(res.Diagnostics[0].Modules, []string{"a@1.0.0", "b@1.0.0"}) {
		t.Errorf("cycle modules = %v, want [a@1.0.0 b@1.0.0]", res.Diagnostics[0].Modules)
	}
}

func TestResolveCachedUntilRefresh(t *testing.T) {
	t.Parallel()

	feat := agg("feat", "1.0", []catalog.MemberRef{{ID: "lib.a"}})
	p := newPlatform([]*catalog.Module{mod("lib.a", "1.0")}, feat)
	r := New(p)

	first, err := r.Resolve(feat, catalog.Environment{OS: "linux"})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	second, _ := r.Resolve(feat, catalog.Environment{OS: "Linux "})
	if first != second {
		t.Error("Resolve() with an equivalent environment was not served from cache")
	}

	if err := p.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	third, _ := r.Resolve(feat, catalog.Environment{OS: "linux"})
	if third == first {
		t.Error("Resolve() after Refresh returned the stale cached result")
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	leaf := agg("leaf", "1.0", []catalog.MemberRef{{ID: "lib.a"}})
	left := agg("left", "1.0", nil, catalog.IncludeRef{ID: "leaf"})
	right := agg("right", "1.0", nil, catalog.IncludeRef{ID: "leaf"}, catalog.IncludeRef{ID: "top"})
	top := agg("top", "1.0", nil, catalog.IncludeRef{ID: "left"}, catalog.IncludeRef{ID: "right"})
	r := New(newPlatform([]*catalog.Module{mod("lib.a", "1.0")}, leaf, left, right, top))

	var visited []string
	diags, err := r.Walk(top, catalog.Environment{}, func(res *Resolved) error {
		visited = append(visited, res.Aggregate.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() unexpected error: %v", err)
	}
	if want := []string{"top", "left", "leaf", "right"}; !slices.Equal(visited, want) {
		t.Errorf("visited = %v, want %v", visited, want)
	}
	if len(diags) != 1 || diags[0].Code != diag.CodeIncludeCycle {
		t.Errorf("diagnostics = %v, want one include_cycle", diags)
	}

	stop := errors.New("stop")
	_, err = r.Walk(top, catalog.Environment{}, func(*Resolved) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want stop", err)
	}
}
