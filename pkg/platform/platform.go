// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/diag"
	"github.com/invowk/bundlegraph/pkg/version"
)

// ErrDuplicateModule is the sentinel error wrapped by DuplicateModuleError.
var ErrDuplicateModule = errors.New("duplicate workspace entry")

type (
	// Platform is the merged view over a workspace source and binary sources.
	// It is safe for concurrent use.
	Platform struct {
		workspace       catalog.Source
		sources         []catalog.Source
		preferWorkspace bool
		logger          *log.Logger

		mu         sync.RWMutex
		loaded     bool
		view       *view
		err        error
		generation uint64

		subMu       sync.Mutex
		subscribers []func()
	}

	// Option configures a Platform.
	Option func(*Platform)

	// DuplicateModuleError is returned when the workspace holds two modules
	// (or two aggregates) with the same id and version.
	DuplicateModuleError struct {
		// Kind is "module" or "aggregate".
		Kind string
		Key  catalog.Key
	}

	view struct {
		// modules and aggregates hold one entry per version, highest first.
		modules       map[string][]*catalog.Module
		aggregates    map[string][]*catalog.AggregateDescriptor
		fragments     map[string][]*catalog.Module
		allModules    []*catalog.Module
		allAggregates []*catalog.AggregateDescriptor
		diagnostics   []diag.Diagnostic
	}

	sourceContents struct {
		source     catalog.Source
		modules    []*catalog.Module
		aggregates []*catalog.AggregateDescriptor
	}
)

// Error implements the error interface.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("workspace contains %s %s more than once", e.Kind, e.Key)
}

// Unwrap returns ErrDuplicateModule so callers can use errors.Is for programmatic detection.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// WithPreferWorkspace sets whether workspace modules win over binary modules
// with the same id and version. The default is true.
func WithPreferWorkspace(prefer bool) Option {
	return func(p *Platform) { p.preferWorkspace = prefer }
}

// WithLogger sets the logger used for composition warnings.
func WithLogger(l *log.Logger) Option {
	return func(p *Platform) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a platform over workspace (may be nil) and the binary sources.
// Earlier binary sources take precedence over later ones for identical
// module versions. Nothing is read until the first lookup or Load.
func New(workspace catalog.Source, sources []catalog.Source, opts ...Option) *Platform {
	p := &Platform{
		workspace:       workspace,
		sources:         slices.Clone(sources),
		preferWorkspace: true,
		logger:          log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load populates the merged view if it has not been populated yet and
// returns the population error, if any. A failed load is remembered until
// Refresh, unless ctx was cancelled.
func (p *Platform) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return p.err
	}

	v, err := p.build(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	p.loaded = true
	p.view, p.err = v, err
	return err
}

// Refresh re-reads every source, rebuilds the merged view and notifies
// OnRefresh subscribers. Subscribers are notified even if the rebuild fails,
// since the previous view is gone either way.
func (p *Platform) Refresh(ctx context.Context) error {
	p.mu.Lock()
	for _, src := range p.allSources() {
		src.Refresh()
	}
	v, err := p.build(ctx)
	p.loaded = ctx.Err() == nil
	p.view, p.err = v, err
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	p.logger.Debug("platform refreshed", "generation", gen, "error", err)

	p.subMu.Lock()
	subs := slices.Clone(p.subscribers)
	p.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
	return err
}

// Generation counts completed refreshes. Caches compare it to detect staleness.
func (p *Platform) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// OnRefresh registers fn to run after every Refresh.
func (p *Platform) OnRefresh(fn func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// PreferWorkspace reports the configured override policy.
func (p *Platform) PreferWorkspace() bool { return p.preferWorkspace }

// Diagnostics returns the warnings produced while building the current view.
func (p *Platform) Diagnostics() []diag.Diagnostic {
	return slices.Clone(p.current().diagnostics)
}

// Lookup returns the highest version of id.
func (p *Platform) Lookup(id string) (*catalog.Module, bool) {
	candidates := p.current().modules[id]
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[0], true
}

// LookupVersion returns the module with exactly id and v.
func (p *Platform) LookupVersion(id string, v version.Version) (*catalog.Module, bool) {
	for _, m := range p.current().modules[id] {
		if m.Version.Equal(v) {
			return m, true
		}
	}
	return nil, false
}

// Resolve looks up id by reference: a wildcard (see version.IsWildcard)
// selects the highest version, anything else must match exactly.
func (p *Platform) Resolve(id, ref string) (*catalog.Module, bool) {
	if version.IsWildcard(ref) {
		return p.Lookup(id)
	}
	v, err := version.Parse(ref)
	if err != nil {
		return nil, false
	}
	return p.LookupVersion(id, v)
}

// Versions returns every version of id, highest first.
func (p *Platform) Versions(id string) []*catalog.Module {
	return slices.Clone(p.current().modules[id])
}

// All returns the union of all modules, one per id and version, ordered by id then version.
// A workspace module suppresses only the binary module with its own version;
// other versions of the id stay listed, as they stay reachable through
// Lookup and LookupVersion.
func (p *Platform) All() []*catalog.Module {
	return slices.Clone(p.current().allModules)
}

// Fragments returns every known fragment naming hostID as its host.
// Host version ranges are not checked; see catalog.Module.IsFragmentOf.
func (p *Platform) Fragments(hostID string) []*catalog.Module {
	return slices.Clone(p.current().fragments[hostID])
}

// LookupAggregate returns the highest version of the aggregate id.
func (p *Platform) LookupAggregate(id string) (*catalog.AggregateDescriptor, bool) {
	candidates := p.current().aggregates[id]
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[0], true
}

// LookupAggregateVersion returns the aggregate with exactly id and v.
func (p *Platform) LookupAggregateVersion(id string, v version.Version) (*catalog.AggregateDescriptor, bool) {
	for _, a := range p.current().aggregates[id] {
		if a.Version.Equal(v) {
			return a, true
		}
	}
	return nil, false
}

// ResolveAggregate is Resolve for aggregates.
func (p *Platform) ResolveAggregate(id, ref string) (*catalog.AggregateDescriptor, bool) {
	if version.IsWildcard(ref) {
		return p.LookupAggregate(id)
	}
	v, err := version.Parse(ref)
	if err != nil {
		return nil, false
	}
	return p.LookupAggregateVersion(id, v)
}

// Aggregates returns all aggregates, one per id and version.
func (p *Platform) Aggregates() []*catalog.AggregateDescriptor {
	return slices.Clone(p.current().allAggregates)
}

// current returns the view, loading it on first use. A failed load yields
// an empty view so lookups report absence.
func (p *Platform) current() *view {
	p.mu.RLock()
	v, loaded := p.view, p.loaded
	p.mu.RUnlock()
	if loaded || v != nil {
		if v == nil {
			return &view{}
		}
		return v
	}

	if err := p.Load(context.Background()); err != nil {
		p.logger.Warn("platform load failed", "error", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.view == nil {
		return &view{}
	}
	return p.view
}

func (p *Platform) allSources() []catalog.Source {
	all := make([]catalog.Source, 0, len(p.sources)+1)
	if p.workspace != nil {
		all = append(all, p.workspace)
	}
	return append(all, p.sources...)
}

// build reads every source concurrently and merges the results.
func (p *Platform) build(ctx context.Context) (*view, error) {
	sources := p.allSources()
	results := make([]sourceContents, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			modules, err := src.Modules(gctx)
			if err != nil {
				return err
			}
			aggregates, err := src.Aggregates(gctx)
			if err != nil {
				return err
			}
			results[i] = sourceContents{source: src, modules: modules, aggregates: aggregates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var workspace sourceContents
	binaries := results
	if p.workspace != nil {
		workspace, binaries = results[0], results[1:]
	}
	return p.merge(workspace, binaries)
}

func (p *Platform) merge(workspace sourceContents, binaries []sourceContents) (*view, error) {
	v := &view{
		modules:    make(map[string][]*catalog.Module),
		aggregates: make(map[string][]*catalog.AggregateDescriptor),
		fragments:  make(map[string][]*catalog.Module),
	}

	wsModules := make(map[catalog.Key]*catalog.Module, len(workspace.modules))
	for _, m := range workspace.modules {
		if _, dup := wsModules[m.Key()]; dup {
			return nil, &DuplicateModuleError{Kind: "module", Key: m.Key()}
		}
		wsModules[m.Key()] = m
	}
	wsAggregates := make(map[catalog.Key]*catalog.AggregateDescriptor, len(workspace.aggregates))
	for _, a := range workspace.aggregates {
		if _, dup := wsAggregates[a.Key()]; dup {
			return nil, &DuplicateModuleError{Kind: "aggregate", Key: a.Key()}
		}
		wsAggregates[a.Key()] = a
	}

	binModules := make(map[catalog.Key]*catalog.Module)
	binAggregates := make(map[catalog.Key]*catalog.AggregateDescriptor)
	for _, sc := range binaries {
		for _, m := range sc.modules {
			if _, dup := binModules[m.Key()]; dup {
				v.warnDuplicate(p.logger, m.Key(), sc.source.Name())
				continue
			}
			binModules[m.Key()] = m
		}
		for _, a := range sc.aggregates {
			if _, dup := binAggregates[a.Key()]; dup {
				v.warnDuplicate(p.logger, a.Key(), sc.source.Name())
				continue
			}
			binAggregates[a.Key()] = a
		}
	}

	for _, m := range pick(wsModules, binModules, p.preferWorkspace) {
		v.modules[m.ID] = append(v.modules[m.ID], m)
		v.allModules = append(v.allModules, m)
		if m.Host != nil {
			v.fragments[m.Host.ID] = append(v.fragments[m.Host.ID], m)
		}
	}
	for _, a := range pick(wsAggregates, binAggregates, p.preferWorkspace) {
		v.aggregates[a.ID] = append(v.aggregates[a.ID], a)
		v.allAggregates = append(v.allAggregates, a)
	}

	slices.SortFunc(v.allModules, catalog.CompareModules)
	slices.SortFunc(v.allAggregates, catalog.CompareAggregates)
	for _, list := range v.modules {
		slices.SortFunc(list, func(a, b *catalog.Module) int { return b.Version.Compare(a.Version) })
	}
	for _, list := range v.aggregates {
		slices.SortFunc(list, func(a, b *catalog.AggregateDescriptor) int { return b.Version.Compare(a.Version) })
	}
	for _, list := range v.fragments {
		slices.SortFunc(list, catalog.CompareModules)
	}

	p.logger.Debug("platform view built",
		"workspace_modules", len(wsModules), "binary_modules", len(binModules),
		"modules", len(v.allModules), "aggregates", len(v.allAggregates))
	return v, nil
}

func (v *view) warnDuplicate(logger *log.Logger, key catalog.Key, source string) {
	logger.Warn("duplicate binary entry ignored", "key", key.String(), "source", source)
	v.diagnostics = append(v.diagnostics, diag.NewWarning(diag.CodeDuplicateBinary,
		fmt.Sprintf("%s from %s ignored, an earlier source provides it", key, source), key.String()))
}

// pick returns one entry per key, the workspace entry winning when prefer is set.
func pick[T any](workspace, binary map[catalog.Key]T, prefer bool) []T {
	out := make([]T, 0, len(workspace)+len(binary))
	for k, w := range workspace {
		if _, clash := binary[k]; clash && !prefer {
			continue
		}
		out = append(out, w)
	}
	for k, b := range binary {
		if _, clash := workspace[k]; clash && prefer {
			continue
		}
		out = append(out, b)
	}
	return out
}
