// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

var (
	// DefaultSourceRoots are used when a workspace descriptor declares none.
	DefaultSourceRoots = []string{"src"}
	// DefaultOutputRoots are used when a workspace descriptor declares none.
	DefaultOutputRoots = []string{"bin"}
)

// WorkspaceLoader reads in-progress modules from project directories.
// Each project holds a module.cue and optionally an aggregate.cue.
type WorkspaceLoader struct {
	Fs       afero.Fs
	Projects []string
}

// NewWorkspaceCatalog returns a workspace-origin catalog over the given projects.
func NewWorkspaceCatalog(fsys afero.Fs, projects []string, opts ...CatalogOption) *Catalog {
	return NewCatalog("workspace", OriginWorkspace, WorkspaceLoader{Fs: fsys, Projects: projects}, opts...)
}

// Load reads every project. A project without module.cue is an error.
func (l WorkspaceLoader) Load(ctx context.Context) (*Contents, error) {
	fsys := l.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	var (
		contents Contents
		errs     *multierror.Error
	)

	for _, dir := range l.Projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		modulePath := filepath.Join(dir, ModuleFileName)
		data, err := afero.ReadFile(fsys, modulePath)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("project %s: %w", dir, err))
			continue
		}

		// The origin is filled in after the layout is known.
		m, layout, err := ParseModuleWithLayout(data, modulePath, Origin{})
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		ws := WorkspaceOrigin{
			ProjectDir:  dir,
			SourceRoots: layout.Sources,
			OutputRoots: layout.Output,
		}
		if len(ws.SourceRoots) == 0 {
			ws.SourceRoots = DefaultSourceRoots
		}
		if len(ws.OutputRoots) == 0 {
			ws.OutputRoots = DefaultOutputRoots
		}
		m.Origin = Workspace(ws)
		contents.Modules = append(contents.Modules, m)

		aggregatePath := filepath.Join(dir, AggregateFileName)
		data, err = afero.ReadFile(fsys, aggregatePath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("project %s: %w", dir, err))
			continue
		}
		a, err := ParseAggregate(data, aggregatePath, Workspace(ws))
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		contents.Aggregates = append(contents.Aggregates, a)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &contents, nil
}
