// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// Files maps slash-separated paths to file contents.
type Files map[string]string

// WriteFile writes content to the slash-separated path on fsys, creating
// parent directories.
func WriteFile(t testing.TB, fsys afero.Fs, name, content string) {
	t.Helper()
	p := filepath.FromSlash(name)
	if err := fsys.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path.Dir(name), err)
	}
	if err := afero.WriteFile(fsys, p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// WriteTree writes files below root in path order.
func WriteTree(t testing.TB, fsys afero.Fs, root string, files Files) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		WriteFile(t, fsys, path.Join(root, name), files[name])
	}
}

// MemFs returns an in-memory filesystem holding files.
func MemFs(t testing.TB, files Files) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	WriteTree(t, fsys, "/", files)
	return fsys
}

// ModuleCUE renders a minimal module.cue with the given exports.
func ModuleCUE(id, version string, exports ...string) string {
	s := fmt.Sprintf("id: %q\nversion: %q\n", id, version)
	if len(exports) > 0 {
		quoted := make([]string, len(exports))
		for i, e := range exports {
			quoted[i] = fmt.Sprintf("%q", e)
		}
		s += "exports: [" + strings.Join(quoted, ", ") + "]\n"
	}
	return s
}
