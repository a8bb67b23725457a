// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/invowk/bundlegraph/pkg/cueutil"
	"github.com/invowk/bundlegraph/pkg/version"
)

const (
	// ModuleFileName is the module descriptor file name.
	ModuleFileName = "module.cue"
	// AggregateFileName is the aggregate descriptor file name.
	AggregateFileName = "aggregate.cue"
)

//go:embed descriptor_schema.cue
var descriptorSchema []byte

type (
	moduleFile struct {
		ID         string        `json:"id"`
		Version    string        `json:"version"`
		Exports    []string      `json:"exports,omitempty"`
		Imports    []importFile  `json:"imports,omitempty"`
		Requires   []requireFile `json:"requires,omitempty"`
		Host       *hostFile     `json:"host,omitempty"`
		Extensible bool          `json:"extensible,omitempty"`
		Singleton  bool          `json:"singleton,omitempty"`
		ClassPath  []string      `json:"classpath,omitempty"`
		Sources    []string      `json:"sources,omitempty"`
		Output     []string      `json:"output,omitempty"`
	}

	importFile struct {
		Package  string `json:"package"`
		Range    string `json:"range,omitempty"`
		Optional bool   `json:"optional,omitempty"`
	}

	requireFile struct {
		ID       string `json:"id"`
		Range    string `json:"range,omitempty"`
		Reexport bool   `json:"reexport,omitempty"`
		Optional bool   `json:"optional,omitempty"`
	}

	hostFile struct {
		ID    string `json:"id"`
		Range string `json:"range,omitempty"`
	}

	aggregateFile struct {
		ID       string        `json:"id"`
		Version  string        `json:"version"`
		Label    string        `json:"label,omitempty"`
		Members  []memberFile  `json:"members,omitempty"`
		Includes []includeFile `json:"includes,omitempty"`
	}

	memberFile struct {
		ID           string `json:"id"`
		Version      string `json:"version,omitempty"`
		OS           string `json:"os,omitempty"`
		WS           string `json:"ws,omitempty"`
		Arch         string `json:"arch,omitempty"`
		NL           string `json:"nl,omitempty"`
		DownloadSize int64  `json:"download_size,omitempty"`
		InstallSize  int64  `json:"install_size,omitempty"`
		Unpack       bool   `json:"unpack,omitempty"`
	}

	includeFile struct {
		ID       string `json:"id"`
		Version  string `json:"version,omitempty"`
		OS       string `json:"os,omitempty"`
		WS       string `json:"ws,omitempty"`
		Arch     string `json:"arch,omitempty"`
		NL       string `json:"nl,omitempty"`
		Optional bool   `json:"optional,omitempty"`
	}

	// ModuleLayout is the workspace-specific part of a module descriptor.
	ModuleLayout struct {
		Sources []string
		Output  []string
	}
)

// ParseModule decodes a module.cue document. The origin is attached as-is;
// workspace loaders pass the layout through ParseModuleWithLayout instead.
func ParseModule(data []byte, filename string, origin Origin) (*Module, error) {
	m, _, err := ParseModuleWithLayout(data, filename, origin)
	return m, err
}

// ParseModuleWithLayout decodes a module.cue document and also returns its
// declared source and output roots.
func ParseModuleWithLayout(data []byte, filename string, origin Origin) (*Module, ModuleLayout, error) {
	res, err := cueutil.ParseAndDecode[moduleFile](descriptorSchema, data, "#Module", cueutil.WithFilename(filename))
	if err != nil {
		return nil, ModuleLayout{}, err
	}
	f := res.Value

	v, err := version.Parse(f.Version)
	if err != nil {
		return nil, ModuleLayout{}, fmt.Errorf("%s: version: %w", filename, err)
	}

	m := &Module{
		ID:         f.ID,
		Version:    v,
		Exports:    f.Exports,
		Extensible: f.Extensible,
		Singleton:  f.Singleton,
		ClassPath:  f.ClassPath,
		Origin:     origin,
	}
	if len(m.ClassPath) == 0 {
		m.ClassPath = []string{"."}
	}

	for i, imp := range f.Imports {
		r, err := version.ParseRange(imp.Range)
		if err != nil {
			return nil, ModuleLayout{}, fmt.Errorf("%s: imports[%d].range: %w", filename, i, err)
		}
		m.Imports = append(m.Imports, ImportSpec{Package: imp.Package, Range: r, Optional: imp.Optional})
	}

	for i, req := range f.Requires {
		r, err := version.ParseRange(req.Range)
		if err != nil {
			return nil, ModuleLayout{}, fmt.Errorf("%s: requires[%d].range: %w", filename, i, err)
		}
		m.Requires = append(m.Requires, RequireSpec{ID: req.ID, Range: r, Reexport: req.Reexport, Optional: req.Optional})
	}

	if f.Host != nil {
		if f.Host.ID == f.ID {
			return nil, ModuleLayout{}, fmt.Errorf("%s: host: module %s cannot be a fragment of itself", filename, f.ID)
		}
		r, err := version.ParseRange(f.Host.Range)
		if err != nil {
			return nil, ModuleLayout{}, fmt.Errorf("%s: host.range: %w", filename, err)
		}
		m.Host = &HostSpec{ID: f.Host.ID, Range: r}
	}

	return m, ModuleLayout{Sources: f.Sources, Output: f.Output}, nil
}

// ParseAggregate decodes an aggregate.cue document.
func ParseAggregate(data []byte, filename string, origin Origin) (*AggregateDescriptor, error) {
	res, err := cueutil.ParseAndDecode[aggregateFile](descriptorSchema, data, "#Aggregate", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	f := res.Value

	v, err := version.Parse(f.Version)
	if err != nil {
		return nil, fmt.Errorf("%s: version: %w", filename, err)
	}

	a := &AggregateDescriptor{
		ID:      f.ID,
		Version: v,
		Label:   f.Label,
		Origin:  origin,
	}

	for i, mem := range f.Members {
		if err := checkReference(mem.Version); err != nil {
			return nil, fmt.Errorf("%s: members[%d].version: %w", filename, i, err)
		}
		a.Members = append(a.Members, MemberRef{
			ID:           mem.ID,
			Version:      strings.TrimSpace(mem.Version),
			Selector:     EnvironmentSelector{OS: mem.OS, WS: mem.WS, Arch: mem.Arch, NL: mem.NL},
			DownloadSize: mem.DownloadSize,
			InstallSize:  mem.InstallSize,
			Unpack:       mem.Unpack,
		})
	}

	for i, inc := range f.Includes {
		if err := checkReference(inc.Version); err != nil {
			return nil, fmt.Errorf("%s: includes[%d].version: %w", filename, i, err)
		}
		a.Includes = append(a.Includes, IncludeRef{
			ID:       inc.ID,
			Version:  strings.TrimSpace(inc.Version),
			Selector: EnvironmentSelector{OS: inc.OS, WS: inc.WS, Arch: inc.Arch, NL: inc.NL},
			Optional: inc.Optional,
		})
	}

	return a, nil
}

func checkReference(ref string) error {
	if version.IsWildcard(ref) {
		return nil
	}
	_, err := version.Parse(ref)
	return err
}
