// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/invowk/bundlegraph/internal/dag"
	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/diag"
)

type (
	// Universe is the view the resolver reads. *platform.Platform implements it.
	Universe interface {
		Resolve(id, ref string) (*catalog.Module, bool)
		ResolveAggregate(id, ref string) (*catalog.AggregateDescriptor, bool)
		Versions(id string) []*catalog.Module
		All() []*catalog.Module
		Aggregates() []*catalog.AggregateDescriptor
	}

	// Refresher is implemented by universes that announce rebuilds.
	Refresher interface {
		OnRefresh(fn func())
	}

	// Member is a resolved member reference.
	Member struct {
		Ref    catalog.MemberRef
		Module *catalog.Module
	}

	// Include is a resolved nested include.
	Include struct {
		Ref       catalog.IncludeRef
		Aggregate *catalog.AggregateDescriptor
	}

	// Resolved is an aggregate resolved for one environment. Results are
	// shared through the cache and must not be modified.
	Resolved struct {
		Aggregate   *catalog.AggregateDescriptor
		Environment catalog.Environment
		// Members are in dependency order: providers before consumers.
		Members     []Member
		Includes    []Include
		Diagnostics []diag.Diagnostic
	}

	// Resolver resolves aggregates. It is safe for concurrent use.
	Resolver struct {
		universe Universe
		logger   *log.Logger

		mu    sync.Mutex
		cache map[cacheKey]*Resolved
		epoch uint64
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	cacheKey struct {
		aggregate catalog.Key
		env       catalog.Environment
	}
)

// Modules returns the member modules in order.
func (r *Resolved) Modules() []*catalog.Module {
	out := make([]*catalog.Module, 0, len(r.Members))
	for _, m := range r.Members {
		out = append(out, m.Module)
	}
	return out
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver. If universe implements Refresher, cached results
// are dropped on every refresh.
func New(universe Universe, opts ...Option) *Resolver {
	r := &Resolver{
		universe: universe,
		logger:   log.New(io.Discard),
		cache:    make(map[cacheKey]*Resolved),
	}
	for _, opt := range opts {
		opt(r)
	}
	if rf, ok := universe.(Refresher); ok {
		rf.OnRefresh(r.Invalidate)
	}
	return r
}

// Invalidate drops every cached result.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	clear(r.cache)
}

// Resolve resolves desc for env. Every reference that cannot be found is
// reported; the returned error is a *multierror.Error whose entries are
// *MissingReferenceError values. Missing optional includes are warnings.
func (r *Resolver) Resolve(desc *catalog.AggregateDescriptor, env catalog.Environment) (*Resolved, error) {
	key := cacheKey{aggregate: desc.Key(), env: normalize(env)}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	epoch := r.epoch
	r.mu.Unlock()

	res, err := r.resolve(desc, env)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		r.logger.Warn(d.Message, "code", d.Code, "aggregate", desc.Key().String(), "modules", d.Modules)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch == epoch {
		r.cache[key] = res
	}
	return res, nil
}

func (r *Resolver) resolve(desc *catalog.AggregateDescriptor, env catalog.Environment) (*Resolved, error) {
	res := &Resolved{Aggregate: desc, Environment: env}
	var errs *multierror.Error

	seenModules := mapset.NewThreadUnsafeSet[catalog.Key]()
	for _, ref := range desc.Members {
		if !ref.Selector.Matches(env) {
			continue
		}
		m, ok := r.universe.Resolve(ref.ID, ref.Version)
		if !ok {
			errs = multierror.Append(errs, r.missing(desc, RefMember, ref.ID, ref.Version))
			continue
		}
		if seenModules.Add(m.Key()) {
			res.Members = append(res.Members, Member{Ref: ref, Module: m})
		}
	}

	seenAggregates := mapset.NewThreadUnsafeSet[catalog.Key]()
	for _, ref := range desc.Includes {
		if !ref.Selector.Matches(env) {
			continue
		}
		a, ok := r.universe.ResolveAggregate(ref.ID, ref.Version)
		if !ok {
			missing := r.missing(desc, RefInclude, ref.ID, ref.Version)
			if ref.Optional {
				res.Diagnostics = append(res.Diagnostics, diag.NewWithCause(diag.SeverityWarning,
					diag.CodeOptionalIncludeMissing, missing.Error(), missing, ref.String()))
				continue
			}
			errs = multierror.Append(errs, missing)
			continue
		}
		if seenAggregates.Add(a.Key()) {
			res.Includes = append(res.Includes, Include{Ref: ref, Aggregate: a})
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	res.Members, res.Diagnostics = orderMembers(res.Members, res.Diagnostics)
	return res, nil
}

func (r *Resolver) missing(desc *catalog.AggregateDescriptor, kind RefKind, id, ref string) *MissingReferenceError {
	e := &MissingReferenceError{Aggregate: desc.Key(), Kind: kind, ID: id, Version: displayVersion(ref)}

	switch kind {
	case RefMember:
		var versions []string
		for _, m := range r.universe.Versions(id) {
			versions = append(versions, m.Version.String())
		}
		e.Suggestions = suggest(id, versions, moduleIDs(r.universe.All()))
	case RefInclude:
		var versions, ids []string
		for _, a := range r.universe.Aggregates() {
			if a.ID == id {
				versions = append(versions, a.Version.String())
			}
			ids = append(ids, a.ID)
		}
		slices.Reverse(versions)
		e.Suggestions = suggest(id, versions, slices.Compact(ids))
	}
	return e
}

// orderMembers sorts members so providers precede consumers. Edges come from
// requires, imports and fragment hosts among the members themselves.
func orderMembers(members []Member, diags []diag.Diagnostic) ([]Member, []diag.Diagnostic) {
	if len(members) < 2 {
		return members, diags
	}

	g := dag.New()
	byKey := make(map[string]Member, len(members))
	for _, m := range members {
		k := m.Module.Key().String()
		byKey[k] = m
		g.AddNode(k)
	}

	for _, consumer := range members {
		c := consumer.Module
		for _, provider := range members {
			p := provider.Module
			if p == c {
				continue
			}
			if dependsOn(c, p) {
				g.AddEdge(p.Key().String(), c.Key().String())
			}
		}
	}

	order, cycles := g.Order()
	sorted := make([]Member, 0, len(order))
	for _, k := range order {
		sorted = append(sorted, byKey[k])
	}
	for _, cycle := range cycles {
		diags = append(diags, diag.NewWarning(diag.CodeMemberCycle,
			"dependency cycle among members: "+strings.Join(cycle, " -> "), cycle...))
	}
	return sorted, diags
}

func dependsOn(c, p *catalog.Module) bool {
	for _, req := range c.Requires {
		if p.SatisfiesRequire(req) {
			return true
		}
	}
	for _, imp := range c.Imports {
		if p.SatisfiesImport(imp) {
			return true
		}
	}
	return c.IsFragmentOf(p)
}

func moduleIDs(modules []*catalog.Module) []string {
	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	return slices.Compact(ids)
}

func displayVersion(ref string) string {
	if strings.TrimSpace(ref) == "" || strings.TrimSpace(ref) == "*" {
		return "*"
	}
	return strings.TrimSpace(ref)
}

func normalize(env catalog.Environment) catalog.Environment {
	return catalog.Environment{
		OS:   strings.ToLower(strings.TrimSpace(env.OS)),
		WS:   strings.ToLower(strings.TrimSpace(env.WS)),
		Arch: strings.ToLower(strings.TrimSpace(env.Arch)),
		NL:   strings.ToLower(strings.TrimSpace(env.NL)),
	}
}

// Walk visits desc and every aggregate it includes, transitively, depth
// first and at most once each. An include cycle is reported as a warning and
// not followed. fn's error stops the walk.
func (r *Resolver) Walk(desc *catalog.AggregateDescriptor, env catalog.Environment, fn func(*Resolved) error) ([]diag.Diagnostic, error) {
	w := &walker{resolver: r, env: env, fn: fn, visited: mapset.NewThreadUnsafeSet[catalog.Key]()}
	err := w.visit(desc, nil)
	return w.diagnostics, err
}

type walker struct {
	resolver    *Resolver
	env         catalog.Environment
	fn          func(*Resolved) error
	visited     mapset.Set[catalog.Key]
	diagnostics []diag.Diagnostic
}

func (w *walker) visit(desc *catalog.AggregateDescriptor, path []catalog.Key) error {
	if i := slices.Index(path, desc.Key()); i >= 0 {
		cycle := make([]string, 0, len(path)-i+1)
		for _, k := range path[i:] {
			cycle = append(cycle, k.String())
		}
		cycle = append(cycle, desc.Key().String())
		w.diagnostics = append(w.diagnostics, diag.NewWarning(diag.CodeIncludeCycle,
			"include cycle: "+strings.Join(cycle, " -> "), cycle[:len(cycle)-1]...))
		return nil
	}
	if !w.visited.Add(desc.Key()) {
		return nil
	}

	res, err := w.resolver.Resolve(desc, w.env)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", desc, err)
	}
	if err := w.fn(res); err != nil {
		return err
	}

	path = append(path, desc.Key())
	for _, inc := range res.Includes {
		if err := w.visit(inc.Aggregate, path); err != nil {
			return err
		}
	}
	return nil
}
