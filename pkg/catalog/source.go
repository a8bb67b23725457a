// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrOriginMismatch is the sentinel error wrapped by OriginMismatchError.
var ErrOriginMismatch = errors.New("module origin does not match source")

type (
	// Contents is everything a loader read from one source.
	Contents struct {
		Modules    []*Module
		Aggregates []*AggregateDescriptor
	}

	// Loader reads the contents of a source.
	Loader interface {
		Load(ctx context.Context) (*Contents, error)
	}

	// LoaderFunc adapts a function to Loader.
	LoaderFunc func(ctx context.Context) (*Contents, error)

	// Source is a named provider of modules and aggregates from one origin kind.
	Source interface {
		Name() string
		Kind() OriginKind
		Modules(ctx context.Context) ([]*Module, error)
		Aggregates(ctx context.Context) ([]*AggregateDescriptor, error)
		// Refresh drops loaded contents; the next access re-reads them.
		Refresh()
	}

	// Catalog is a Source that populates itself from a Loader on first access.
	// Concurrent first accesses share a single load.
	Catalog struct {
		name   string
		kind   OriginKind
		loader Loader
		logger *log.Logger

		mu       sync.Mutex
		loaded   bool
		contents *Contents
		err      error
	}

	// CatalogOption configures a Catalog.
	CatalogOption func(*Catalog)

	// OriginMismatchError is returned when a loader produces a module whose
	// origin kind differs from the catalog's kind.
	OriginMismatchError struct {
		Source string
		Want   OriginKind
		Got    OriginKind
		Module Key
	}
)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (*Contents, error) { return f(ctx) }

// Error implements the error interface.
func (e *OriginMismatchError) Error() string {
	return fmt.Sprintf("source %q: module %s has %s origin, want %s", e.Source, e.Module, e.Got, e.Want)
}

// Unwrap returns ErrOriginMismatch so callers can use errors.Is for programmatic detection.
func (e *OriginMismatchError) Unwrap() error { return ErrOriginMismatch }

// WithCatalogLogger sets the logger used for load diagnostics.
func WithCatalogLogger(l *log.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCatalog creates a catalog. Nothing is read until the first access.
func NewCatalog(name string, kind OriginKind, loader Loader, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		name:   name,
		kind:   kind,
		loader: loader,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// Kind returns the origin kind of every module in the catalog.
func (c *Catalog) Kind() OriginKind { return c.kind }

// Modules returns the catalog's modules, loading them on first access.
func (c *Catalog) Modules(ctx context.Context) ([]*Module, error) {
	contents, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return contents.Modules, nil
}

// Aggregates returns the catalog's aggregates, loading them on first access.
func (c *Catalog) Aggregates(ctx context.Context) ([]*AggregateDescriptor, error) {
	contents, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return contents.Aggregates, nil
}

// Refresh clears loaded contents, including a remembered load failure.
func (c *Catalog) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = false
	c.contents = nil
	c.err = nil
}

func (c *Catalog) ensureLoaded(ctx context.Context) (*Contents, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.contents, c.err
	}

	contents, err := c.load(ctx)
	if err != nil && ctx.Err() != nil {
		// A cancelled load is not remembered; the next access retries.
		return nil, err
	}

	c.loaded = true
	c.contents, c.err = contents, err
	return contents, err
}

func (c *Catalog) load(ctx context.Context) (*Contents, error) {
	contents, err := c.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load source %q: %w", c.name, err)
	}
	if contents == nil {
		contents = &Contents{}
	}

	for _, m := range contents.Modules {
		if m.Origin.Kind() != c.kind {
			return nil, &OriginMismatchError{Source: c.name, Want: c.kind, Got: m.Origin.Kind(), Module: m.Key()}
		}
	}

	c.logger.Debug("source loaded", "source", c.name, "modules", len(contents.Modules), "aggregates", len(contents.Aggregates))
	return contents, nil
}
