// SPDX-License-Identifier: MPL-2.0

package state

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/cueutil"
	"github.com/invowk/bundlegraph/pkg/version"
)

// DefaultFileName is the conventional state file name.
const DefaultFileName = "state.cue"

//go:embed state_schema.cue
var stateSchema []byte

// ErrEnvironmentMismatch is returned when a state file was produced for a
// different environment than the one requested.
var ErrEnvironmentMismatch = errors.New("state environment mismatch")

type (
	// FileProvider reads the state from a CUE file.
	//
	//	modules: [
	//		{module: "lib.a@1.0.0", imports: [{package: "pkg.b", provider: "lib.b@1.0.0"}]},
	//		{module: "lib.c@1.0.0", resolved: false, unsatisfied: [{kind: "import", name: "pkg.q"}]},
	//	]
	FileProvider struct {
		Fs   afero.Fs
		Path string
	}

	stateFile struct {
		Environment *catalog.Environment `json:"environment,omitempty"`
		Modules     []moduleStateFile    `json:"modules"`
	}

	moduleStateFile struct {
		Module   string `json:"module"`
		Resolved bool   `json:"resolved"`
		Imports  []struct {
			Package  string `json:"package"`
			Provider string `json:"provider"`
		} `json:"imports,omitempty"`
		Requires []struct {
			ID        string   `json:"id"`
			Providers []string `json:"providers"`
		} `json:"requires,omitempty"`
		Host        string           `json:"host,omitempty"`
		Unsatisfied []constraintFile `json:"unsatisfied,omitempty"`
	}

	constraintFile struct {
		Kind     string `json:"kind"`
		Name     string `json:"name"`
		Range    string `json:"range,omitempty"`
		Optional bool   `json:"optional,omitempty"`
	}
)

// Resolve reads and decodes the file. When the file records an environment,
// every component set in both must agree (case-insensitively).
func (p FileProvider) Resolve(ctx context.Context, _ []*catalog.Module, env catalog.Environment) (State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fsys := p.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fsys, p.Path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return Parse(data, p.Path, env)
}

// Parse decodes a state document. A zero env skips the environment check.
func Parse(data []byte, filename string, env catalog.Environment) (*Snapshot, error) {
	res, err := cueutil.ParseAndDecode[stateFile](stateSchema, data, "#State", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	f := res.Value

	if f.Environment != nil && !sameEnvironment(*f.Environment, env) {
		return nil, fmt.Errorf("%w: %s was produced for %s, want %s", ErrEnvironmentMismatch, filename, f.Environment, env)
	}

	states := make([]ModuleState, 0, len(f.Modules))
	for i, ms := range f.Modules {
		st, err := ms.toModuleState()
		if err != nil {
			return nil, fmt.Errorf("%s: modules[%d]: %w", filename, i, err)
		}
		states = append(states, st)
	}
	return NewSnapshot(states...), nil
}

func (ms moduleStateFile) toModuleState() (ModuleState, error) {
	key, err := catalog.ParseKey(ms.Module)
	if err != nil {
		return ModuleState{}, err
	}
	st := ModuleState{Module: key, Resolved: ms.Resolved}

	for _, imp := range ms.Imports {
		provider, err := catalog.ParseKey(imp.Provider)
		if err != nil {
			return ModuleState{}, fmt.Errorf("import %s: %w", imp.Package, err)
		}
		st.Imports = append(st.Imports, ImportBinding{Package: imp.Package, Provider: provider})
	}

	for _, req := range ms.Requires {
		b := RequireBinding{ID: req.ID}
		for _, p := range req.Providers {
			provider, err := catalog.ParseKey(p)
			if err != nil {
				return ModuleState{}, fmt.Errorf("require %s: %w", req.ID, err)
			}
			b.Providers = append(b.Providers, provider)
		}
		st.Requires = append(st.Requires, b)
	}

	if ms.Host != "" {
		host, err := catalog.ParseKey(ms.Host)
		if err != nil {
			return ModuleState{}, fmt.Errorf("host: %w", err)
		}
		st.Host = &host
	}

	for _, c := range ms.Unsatisfied {
		r, err := version.ParseRange(c.Range)
		if err != nil {
			return ModuleState{}, fmt.Errorf("unsatisfied %s %s: %w", c.Kind, c.Name, err)
		}
		st.Unsatisfied = append(st.Unsatisfied, Constraint{
			Kind:     ConstraintKind(c.Kind),
			Name:     c.Name,
			Range:    r,
			Optional: c.Optional,
		})
	}
	return st, nil
}

func sameEnvironment(a, b catalog.Environment) bool {
	agree := func(x, y string) bool { return x == "" || y == "" || strings.EqualFold(x, y) }
	return agree(a.OS, b.OS) && agree(a.WS, b.WS) && agree(a.Arch, b.Arch) && agree(a.NL, b.NL)
}
