// SPDX-License-Identifier: MPL-2.0

package catalog

import "context"

// StaticLoader serves a fixed set of modules and aggregates.
type StaticLoader struct {
	Modules    []*Module
	Aggregates []*AggregateDescriptor
}

// Load returns the static contents.
func (s StaticLoader) Load(ctx context.Context) (*Contents, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Contents{Modules: s.Modules, Aggregates: s.Aggregates}, nil
}

// NewStaticCatalog is a shorthand for a catalog over in-memory contents.
func NewStaticCatalog(name string, kind OriginKind, modules []*Module, aggregates []*AggregateDescriptor, opts ...CatalogOption) *Catalog {
	return NewCatalog(name, kind, StaticLoader{Modules: modules, Aggregates: aggregates}, opts...)
}
