// SPDX-License-Identifier: MPL-2.0

package closure

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/content"
	"github.com/invowk/bundlegraph/pkg/diag"
	"github.com/invowk/bundlegraph/pkg/state"
	"github.com/invowk/bundlegraph/pkg/version"
)

type (
	// Universe is the module view the resolver reads. *platform.Platform implements it.
	Universe interface {
		LookupVersion(id string, v version.Version) (*catalog.Module, bool)
		Fragments(hostID string) []*catalog.Module
	}

	// Refresher is implemented by universes that announce rebuilds.
	Refresher interface {
		OnRefresh(fn func())
	}

	// Dependency is one host module visible to the root, with its attached fragments.
	Dependency struct {
		Host      *catalog.Module
		Fragments []*catalog.Module
		// Visible lists the packages visible through this dependency, sorted.
		// It is nil for the root's own host.
		Visible []string
		// Required is set when the root requires the host, directly or via re-export.
		Required bool
		// RootHost marks the root's own host (the root itself unless it is a fragment).
		RootHost bool
		// Entries are the host's entries followed by each fragment's entries.
		Entries []content.Entry
	}

	// Result is the classpath of one root module. Results are shared between
	// callers through the cache and must not be modified.
	Result struct {
		Root         *catalog.Module
		Dependencies []*Dependency
		Diagnostics  []diag.Diagnostic
	}

	// Resolver computes classpaths. It is safe for concurrent use.
	Resolver struct {
		universe Universe
		accessor content.Accessor
		logger   *log.Logger

		mu    sync.Mutex
		state state.State
		cache map[catalog.Key]*Result
		// epoch changes on every invalidation so in-flight results are not cached stale.
		epoch uint64
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// Restricted reports whether visibility through d is limited to Visible.
func (d *Dependency) Restricted() bool { return !d.RootHost }

// Modules returns the host followed by its fragments.
func (d *Dependency) Modules() []*catalog.Module {
	return append([]*catalog.Module{d.Host}, d.Fragments...)
}

// Dependency returns the dependency whose host has id, if any.
func (r *Result) Dependency(id string) (*Dependency, bool) {
	for _, d := range r.Dependencies {
		if d.Host.ID == id {
			return d, true
		}
	}
	return nil, false
}

// Entries returns every classpath entry in dependency order.
func (r *Result) Entries() []content.Entry {
	var out []content.Entry
	for _, d := range r.Dependencies {
		out = append(out, d.Entries...)
	}
	return out
}

// WithLogger sets the logger used for cycle warnings.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAccessor sets the content accessor. The default is content.OriginAccessor.
func WithAccessor(a content.Accessor) Option {
	return func(r *Resolver) {
		if a != nil {
			r.accessor = a
		}
	}
}

// New creates a resolver over universe and st. If universe implements
// Refresher, cached results are dropped on every refresh.
func New(universe Universe, st state.State, opts ...Option) *Resolver {
	r := &Resolver{
		universe: universe,
		accessor: content.OriginAccessor{},
		logger:   log.New(io.Discard),
		state:    st,
		cache:    make(map[catalog.Key]*Result),
	}
	for _, opt := range opts {
		opt(r)
	}
	if rf, ok := universe.(Refresher); ok {
		rf.OnRefresh(r.Invalidate)
	}
	return r
}

// SetState replaces the binding graph and drops cached results.
func (r *Resolver) SetState(st state.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = st
	r.epoch++
	clear(r.cache)
}

// Invalidate drops every cached result.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	clear(r.cache)
}

// ResolveClasspath returns the classpath of root. An unresolved root yields
// an *UnresolvedError; a binding that contradicts the universe yields a
// *BindingContractError.
func (r *Resolver) ResolveClasspath(root *catalog.Module) (*Result, error) {
	r.mu.Lock()
	st, epoch := r.state, r.epoch
	if cached, ok := r.cache[root.Key()]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	if st == nil {
		return nil, &UnresolvedError{Module: root.Key(), Reason: "no resolved state available"}
	}

	res, err := newWalk(r.universe, st, r.accessor).run(root)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		r.logger.Warn(d.Message, "code", d.Code, "root", root.Key().String(), "modules", d.Modules)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch == epoch {
		r.cache[root.Key()] = res
	}
	return res, nil
}
