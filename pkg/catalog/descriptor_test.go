// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"strings"
	"testing"

	"github.com/invowk/bundlegraph/pkg/version"
)

func TestParseModule(t *testing.T) {
	t.Parallel()

	src := `
id:      "lib.core"
version: "1.2"
exports: ["lib.core", "lib.core.util"]
imports: [{package: "org.log", range: "[1.7,2.0)", optional: true}]
requires: [{id: "lib.base", range: "1.0", reexport: true}]
classpath: ["lib/core.jar"]
`
	origin := Binary(BinaryOrigin{Location: "/repo/lib.core"})
	m, err := ParseModule([]byte(src), "module.cue", origin)
	if err != nil {
		t.Fatalf("ParseModule() unexpected error: %v", err)
	}

	if m.Key() != (Key{ID: "lib.core", Version: "1.2.0"}) {
		t.Errorf("Key() = %v, want lib.core@1.2.0", m.Key())
	}
	if len(m.Exports) != 2 || m.Exports[1] != "lib.core.util" {
		t.Errorf("Exports = %v, want [lib.core lib.core.util]", m.Exports)
	}
	if len(m.Imports) != 1 || !m.Imports[0].Optional || !m.Imports[0].Range.Contains(version.MustParse("1.8")) {
		t.Errorf("Imports = %+v, want one optional import accepting 1.8", m.Imports)
	}
	if len(m.Requires) != 1 || !m.Requires[0].Reexport {
		t.Errorf("Requires = %+v, want one re-exported require", m.Requires)
	}
	if m.Origin.Kind() != OriginBinary {
		t.Errorf("Origin.Kind() = %v, want binary", m.Origin.Kind())
	}
	if len(m.ClassPath) != 1 || m.ClassPath[0] != "lib/core.jar" {
		t.Errorf("ClassPath = %v, want [lib/core.jar]", m.ClassPath)
	}
}

func TestParseModuleDefaultsAndFragment(t *testing.T) {
	t.Parallel()

	src := `
id:      "lib.core.nls"
version: "1.0.0"
host: {id: "lib.core", range: "[1.0,2.0)"}
`
	m, err := ParseModule([]byte(src), "module.cue", Binary(BinaryOrigin{}))
	if err != nil {
		t.Fatalf("ParseModule() unexpected error: %v", err)
	}
	if !m.IsFragment() || m.Host.ID != "lib.core" {
		t.Errorf("Host = %+v, want fragment of lib.core", m.Host)
	}
	if len(m.ClassPath) != 1 || m.ClassPath[0] != "." {
		t.Errorf("ClassPath = %v, want [.]", m.ClassPath)
	}
}

func TestParseModuleErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantSub string
	}{
		{name: "missing version", src: `id: "a"`, wantSub: "version"},
		{name: "bad version", src: `id: "a", version: "1.x"`, wantSub: "version"},
		{name: "bad range", src: `id: "a", version: "1.0", requires: [{id: "b", range: "[2.0,1.0)"}]`, wantSub: "requires[0]"},
		{name: "self host", src: `id: "a", version: "1.0", host: {id: "a"}`, wantSub: "fragment of itself"},
		{name: "unknown field", src: `id: "a", version: "1.0", bogus: 1`, wantSub: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseModule([]byte(tt.src), "module.cue", Binary(BinaryOrigin{}))
			if err == nil {
				t.Fatal("ParseModule() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestParseAggregate(t *testing.T) {
	t.Parallel()

	src := `
id:      "feat"
version: "1.0"
label:   "Feature"
members: [
	{id: "lib.a"},
	{id: "lib.b", version: "2.0", os: "win32", download_size: 12, unpack: true},
]
includes: [{id: "feat.extra", version: "*", optional: true}]
`
	a, err := ParseAggregate([]byte(src), "aggregate.cue", Binary(BinaryOrigin{}))
	if err != nil {
		t.Fatalf("ParseAggregate() unexpected error: %v", err)
	}
	if a.String() != "feat@1.0.0" || a.Label != "Feature" {
		t.Errorf("aggregate = %s %q, want feat@1.0.0 \"Feature\"", a, a.Label)
	}
	if len(a.Members) != 2 {
		t.Fatalf("len(Members) = %d, want 2", len(a.Members))
	}
	if got := a.Members[0].String(); got != "lib.a@*" {
		t.Errorf("Members[0] = %q, want lib.a@*", got)
	}
	b := a.Members[1]
	if b.Selector.OS != "win32" || b.DownloadSize != 12 || !b.Unpack {
		t.Errorf("Members[1] = %+v, want os=win32 download_size=12 unpack", b)
	}
	if len(a.Includes) != 1 || !a.Includes[0].Optional || a.Includes[0].String() != "feat.extra@*" {
		t.Errorf("Includes = %+v, want optional feat.extra@*", a.Includes)
	}
}

func TestParseAggregateBadReference(t *testing.T) {
	t.Parallel()

	src := `id: "feat", version: "1.0", members: [{id: "lib.a", version: "one"}]`
	if _, err := ParseAggregate([]byte(src), "aggregate.cue", Binary(BinaryOrigin{})); err == nil {
		t.Fatal("ParseAggregate() succeeded, want error for bad member version")
	}
}
