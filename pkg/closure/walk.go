// SPDX-License-Identifier: MPL-2.0

package closure

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/content"
	"github.com/invowk/bundlegraph/pkg/diag"
	"github.com/invowk/bundlegraph/pkg/state"
	"github.com/invowk/bundlegraph/pkg/version"
)

type (
	// walk is the state of one ResolveClasspath call. It is never shared.
	walk struct {
		universe Universe
		state    state.State
		accessor content.Accessor

		rootHost *catalog.Module
		// self holds the root host and its fragments.
		self mapset.Set[catalog.Key]
		// imported holds every package the root imports, from any provider.
		imported mapset.Set[string]

		records map[catalog.Key]*record
		order   []catalog.Key

		fragments   map[catalog.Key][]*catalog.Module
		cycles      mapset.Set[string]
		skipped     mapset.Set[catalog.Key]
		diagnostics []diag.Diagnostic
	}

	record struct {
		host     *catalog.Module
		visible  mapset.Set[string]
		required bool
	}
)

func newWalk(u Universe, st state.State, accessor content.Accessor) *walk {
	return &walk{
		universe:  u,
		state:     st,
		accessor:  accessor,
		self:      mapset.NewThreadUnsafeSet[catalog.Key](),
		imported:  mapset.NewThreadUnsafeSet[string](),
		records:   make(map[catalog.Key]*record),
		fragments: make(map[catalog.Key][]*catalog.Module),
		cycles:    mapset.NewThreadUnsafeSet[string](),
		skipped:   mapset.NewThreadUnsafeSet[catalog.Key](),
	}
}

func (w *walk) run(root *catalog.Module) (*Result, error) {
	rs, ok := w.state.Lookup(root.Key())
	if !ok {
		return nil, &UnresolvedError{Module: root.Key(), Reason: "not present in the resolved state"}
	}
	if !rs.Resolved {
		return nil, &UnresolvedError{Module: root.Key(), Reason: unsatisfiedReason(rs)}
	}

	host := root
	if root.IsFragment() {
		if rs.Host == nil {
			return nil, &UnresolvedError{Module: root.Key(), Reason: "fragment is not attached to a host"}
		}
		h, err := w.resolved(root.Key(), "host "+root.Host.ID, *rs.Host)
		if err != nil {
			return nil, err
		}
		host = h
	}
	w.rootHost = host

	hostFragments, err := w.fragmentsOf(host)
	if err != nil {
		return nil, err
	}
	if root != host && !slices.ContainsFunc(hostFragments, func(f *catalog.Module) bool { return f.Key() == root.Key() }) {
		hostFragments = append(hostFragments, root)
		slices.SortFunc(hostFragments, catalog.CompareModules)
		w.fragments[host.Key()] = hostFragments
	}

	consumers := append([]*catalog.Module{host}, hostFragments...)
	for _, c := range consumers {
		w.self.Add(c.Key())
	}

	direct, err := w.bindDirect(consumers)
	if err != nil {
		return nil, err
	}

	onStack := mapset.NewThreadUnsafeSet[catalog.Key]()
	done := mapset.NewThreadUnsafeSet[catalog.Key]()
	for _, m := range direct {
		if err := w.reexports(m, []catalog.Key{host.Key()}, onStack, done); err != nil {
			return nil, err
		}
	}

	for _, key := range w.order {
		if _, err := w.fragmentsOf(w.records[key].host); err != nil {
			return nil, err
		}
	}

	return w.result(root, hostFragments), nil
}

// bindDirect records the import and require bindings of the root's host and
// fragments, and returns the directly required modules in binding order.
func (w *walk) bindDirect(consumers []*catalog.Module) ([]*catalog.Module, error) {
	var direct []*catalog.Module
	for _, c := range consumers {
		cs, ok := w.state.Lookup(c.Key())
		if !ok {
			// Implicitly attached fragment without bindings of its own.
			continue
		}

		for _, imp := range cs.Imports {
			p, err := w.provider(c.Key(), "import "+imp.Package, imp.Provider)
			if err != nil {
				return nil, err
			}
			if w.self.Contains(p.Key()) {
				continue
			}
			w.imported.Add(imp.Package)
			w.record(p).visible.Add(imp.Package)
		}

		for _, req := range cs.Requires {
			for _, pk := range req.Providers {
				p, err := w.provider(c.Key(), "require "+req.ID, pk)
				if err != nil {
					return nil, err
				}
				if w.self.Contains(p.Key()) {
					continue
				}
				w.record(p).required = true
				direct = append(direct, p)
			}
		}
	}
	return direct, nil
}

// reexports follows the re-exported requires of m and of its fragments.
// path is the current recursion path, starting at the root host; a provider
// already on it is a cycle and is not re-entered.
func (w *walk) reexports(m *catalog.Module, path []catalog.Key, onStack, done mapset.Set[catalog.Key]) error {
	if done.Contains(m.Key()) {
		return nil
	}
	onStack.Add(m.Key())
	path = append(path, m.Key())
	defer onStack.Remove(m.Key())

	frags, err := w.fragmentsOf(m)
	if err != nil {
		return err
	}

	for _, owner := range append([]*catalog.Module{m}, frags...) {
		ownerState, ok := w.state.Lookup(owner.Key())
		if !ok {
			continue
		}
		for _, req := range owner.ReexportedRequires() {
			for _, pk := range ownerState.RequireProviders(req.ID) {
				p, err := w.provider(owner.Key(), "require "+req.ID, pk)
				if err != nil {
					return err
				}
				if w.self.Contains(p.Key()) || onStack.Contains(p.Key()) {
					w.reportCycle(path, p.Key())
					continue
				}
				w.record(p).required = true
				if err := w.reexports(p, path, onStack, done); err != nil {
					return err
				}
			}
		}
	}

	done.Add(m.Key())
	return nil
}

func (w *walk) reportCycle(path []catalog.Key, back catalog.Key) {
	start := slices.Index(path, back)
	if start < 0 {
		// The cycle closes through the root host.
		start = 0
	}
	members := make([]string, 0, len(path)-start+1)
	for _, k := range path[start:] {
		members = append(members, k.String())
	}
	members = append(members, back.String())

	canonical := slices.Clone(members[:len(members)-1])
	slices.Sort(canonical)
	id := strings.Join(canonical, ",")
	if w.cycles.Contains(id) {
		return
	}
	w.cycles.Add(id)
	w.diagnostics = append(w.diagnostics, diag.NewWarning(diag.CodeReexportCycle,
		"re-export cycle: "+strings.Join(members, " -> "), canonical...))
}

func (w *walk) record(host *catalog.Module) *record {
	if rec, ok := w.records[host.Key()]; ok {
		return rec
	}
	rec := &record{host: host, visible: mapset.NewThreadUnsafeSet[string]()}
	w.records[host.Key()] = rec
	w.order = append(w.order, host.Key())
	return rec
}

// provider resolves a binding target. Fragments stand for their bound host.
func (w *walk) provider(consumer catalog.Key, constraint string, key catalog.Key) (*catalog.Module, error) {
	for range 2 {
		m, err := w.resolved(consumer, constraint, key)
		if err != nil {
			return nil, err
		}
		if !m.IsFragment() {
			return m, nil
		}
		ms, _ := w.state.Lookup(m.Key())
		if ms.Host == nil {
			return nil, &BindingContractError{Module: consumer, Constraint: constraint, Provider: key, Reason: "fragment provider is not attached to a host"}
		}
		key = *ms.Host
	}
	return nil, &BindingContractError{Module: consumer, Constraint: constraint, Provider: key, Reason: "fragment attached to another fragment"}
}

// resolved returns the module for key, which must be in the universe and resolved.
func (w *walk) resolved(consumer catalog.Key, constraint string, key catalog.Key) (*catalog.Module, error) {
	v, err := version.Parse(key.Version)
	if err != nil {
		return nil, &BindingContractError{Module: consumer, Constraint: constraint, Provider: key, Reason: err.Error()}
	}
	m, ok := w.universe.LookupVersion(key.ID, v)
	if !ok {
		return nil, &BindingContractError{Module: consumer, Constraint: constraint, Provider: key, Reason: "provider is not in the platform"}
	}
	ms, ok := w.state.Lookup(m.Key())
	if !ok || !ms.Resolved {
		return nil, &BindingContractError{Module: consumer, Constraint: constraint, Provider: key, Reason: "provider is not resolved"}
	}
	return m, nil
}

// fragmentsOf returns the fragments attached to host: those the state binds
// to it and, for extensible hosts, every other known fragment accepting it.
func (w *walk) fragmentsOf(host *catalog.Module) ([]*catalog.Module, error) {
	if frags, ok := w.fragments[host.Key()]; ok {
		return frags, nil
	}

	var frags []*catalog.Module
	seen := mapset.NewThreadUnsafeSet[catalog.Key]()
	for _, fk := range w.state.Fragments(host.Key()) {
		f, err := w.resolved(host.Key(), "fragment", fk)
		if err != nil {
			return nil, err
		}
		if seen.Add(f.Key()) {
			frags = append(frags, f)
		}
	}

	if host.Extensible {
		for _, f := range w.universe.Fragments(host.ID) {
			if seen.Contains(f.Key()) || !f.IsFragmentOf(host) {
				continue
			}
			fs, ok := w.state.Lookup(f.Key())
			if ok && !fs.Resolved {
				w.skipFragment(host, f)
				continue
			}
			if ok && fs.Host != nil && *fs.Host != host.Key() {
				continue
			}
			seen.Add(f.Key())
			frags = append(frags, f)
		}
	}

	slices.SortFunc(frags, catalog.CompareModules)
	w.fragments[host.Key()] = frags
	return frags, nil
}

func (w *walk) skipFragment(host, f *catalog.Module) {
	if !w.skipped.Add(f.Key()) {
		return
	}
	w.diagnostics = append(w.diagnostics, diag.NewWarning(diag.CodeFragmentUnresolved,
		fmt.Sprintf("fragment %s of extensible host %s is unresolved and was not attached", f, host), f.Key().String()))
}

func (w *walk) result(root *catalog.Module, hostFragments []*catalog.Module) *Result {
	res := &Result{Root: root}
	res.Dependencies = append(res.Dependencies, &Dependency{
		Host:      w.rootHost,
		Fragments: hostFragments,
		RootHost:  true,
		Entries:   w.entries(w.rootHost, hostFragments),
	})

	for _, key := range w.order {
		rec := w.records[key]
		frags := w.fragments[key]

		visible := rec.visible.Clone()
		if rec.required {
			for _, m := range append([]*catalog.Module{rec.host}, frags...) {
				for _, pkg := range m.Exports {
					if !w.imported.Contains(pkg) {
						visible.Add(pkg)
					}
				}
			}
		}
		names := visible.ToSlice()
		slices.Sort(names)
		if names == nil {
			names = []string{}
		}

		res.Dependencies = append(res.Dependencies, &Dependency{
			Host:      rec.host,
			Fragments: frags,
			Visible:   names,
			Required:  rec.required,
			Entries:   w.entries(rec.host, frags),
		})
	}

	res.Diagnostics = w.diagnostics
	return res
}

func (w *walk) entries(host *catalog.Module, frags []*catalog.Module) []content.Entry {
	entries := slices.Clone(w.accessor.Entries(host))
	for _, f := range frags {
		entries = append(entries, w.accessor.Entries(f)...)
	}
	return entries
}

func unsatisfiedReason(ms *state.ModuleState) string {
	if len(ms.Unsatisfied) == 0 {
		return "reported unresolved"
	}
	parts := make([]string, 0, len(ms.Unsatisfied))
	for _, c := range ms.Unsatisfied {
		parts = append(parts, c.String())
	}
	return "missing " + strings.Join(parts, ", ")
}
