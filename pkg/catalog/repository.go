// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// RepositoryLoader reads prebuilt modules from a repository directory.
// Every module.cue below Root describes one module located in the
// descriptor's directory; every aggregate.cue describes one aggregate.
type RepositoryLoader struct {
	Fs   afero.Fs
	Root string
}

// NewRepositoryCatalog returns a binary-origin catalog over the repository at root.
func NewRepositoryCatalog(fsys afero.Fs, root string, opts ...CatalogOption) *Catalog {
	return NewCatalog(root, OriginBinary, RepositoryLoader{Fs: fsys, Root: root}, opts...)
}

// Load scans the repository. Malformed descriptors are collected and
// returned together; nothing from a repository with a bad descriptor is used.
func (l RepositoryLoader) Load(ctx context.Context) (*Contents, error) {
	fsys := l.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	iofs := afero.NewIOFS(afero.NewBasePathFs(fsys, l.Root))

	modulePaths, err := globFiles(iofs, "**/"+ModuleFileName)
	if err != nil {
		return nil, err
	}
	aggregatePaths, err := globFiles(iofs, "**/"+AggregateFileName)
	if err != nil {
		return nil, err
	}

	var (
		contents Contents
		errs     *multierror.Error
	)

	for _, p := range modulePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(iofs, p)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		origin := Binary(BinaryOrigin{
			Repository: l.Root,
			Location:   filepath.Join(l.Root, filepath.FromSlash(path.Dir(p))),
		})
		m, err := ParseModule(data, filepath.Join(l.Root, filepath.FromSlash(p)), origin)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		contents.Modules = append(contents.Modules, m)
	}

	for _, p := range aggregatePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(iofs, p)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		origin := Binary(BinaryOrigin{
			Repository: l.Root,
			Location:   filepath.Join(l.Root, filepath.FromSlash(path.Dir(p))),
		})
		a, err := ParseAggregate(data, filepath.Join(l.Root, filepath.FromSlash(p)), origin)
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

func globFiles(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}
