// SPDX-License-Identifier: MPL-2.0

package content

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/version"
)

func TestOriginAccessor(t *testing.T) {
	t.Parallel()

	ws := &catalog.Module{
		ID: "lib.ws", Version: version.MustParse("1.0"),
		Origin: catalog.Workspace(catalog.WorkspaceOrigin{
			ProjectDir:  "/ws/lib",
			SourceRoots: []string{"src"},
			OutputRoots: []string{"bin", "gen-bin"},
		}),
	}
	bin := &catalog.Module{
		ID: "lib.bin", Version: version.MustParse("1.0"),
		ClassPath: []string{".", "lib/extra.jar"},
		Origin:    catalog.Binary(catalog.BinaryOrigin{Location: "/repo/lib.bin"}),
	}

	tests := []struct {
		name     string
		accessor OriginAccessor
		module   *catalog.Module
		want     []Entry
	}{
		{
			name:     "workspace with sources",
			accessor: OriginAccessor{IncludeSources: true},
			module:   ws,
			want: []Entry{
				{Path: filepath.Join("/ws/lib", "bin"), Kind: KindBinary},
				{Path: filepath.Join("/ws/lib", "gen-bin"), Kind: KindBinary},
				{Path: filepath.Join("/ws/lib", "src"), Kind: KindSource},
			},
		},
		{
			name:   "workspace without sources",
			module: ws,
			want: []Entry{
				{Path: filepath.Join("/ws/lib", "bin"), Kind: KindBinary},
				{Path: filepath.Join("/ws/lib", "gen-bin"), Kind: KindBinary},
			},
		},
		{
			name:   "binary",
			module: bin,
			want: []Entry{
				{Path: filepath.Clean("/repo/lib.bin"), Kind: KindBinary},
				{Path: filepath.Join("/repo/lib.bin", "lib", "extra.jar"), Kind: KindBinary},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, tt.accessor.Entries(tt.module)); diff != "" {
				t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
