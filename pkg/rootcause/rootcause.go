// SPDX-License-Identifier: MPL-2.0

package rootcause

import (
	"io"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/invowk/bundlegraph/pkg/catalog"
	"github.com/invowk/bundlegraph/pkg/state"
	"github.com/invowk/bundlegraph/pkg/version"
)

type (
	// Universe maps state keys to module declarations.
	Universe interface {
		LookupVersion(id string, v version.Version) (*catalog.Module, bool)
	}

	// Walker finds root causes. It holds no per-walk state and is safe for concurrent use.
	Walker struct {
		universe Universe
		logger   *log.Logger
	}

	// Option configures a Walker.
	Option func(*Walker)

	// Step is one hop of a root-cause chain.
	Step struct {
		Module *catalog.Module
		// Because is the unsatisfied constraint of the previous step that
		// this module would have satisfied. It is nil for the first step.
		Because *state.Constraint
	}

	candidate struct {
		module *catalog.Module
	}
)

// WithLogger sets the logger used for walk tracing.
func WithLogger(l *log.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a walker.
func New(universe Universe, opts ...Option) *Walker {
	w := &Walker{universe: universe, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Find returns the root cause of m's failure given the complete unresolved set.
// When nothing in the set explains m, m itself is the root cause. A module
// already on the chain is never revisited, so on a cycle the cause is the
// last module reached before the chain would loop back.
func (w *Walker) Find(m *catalog.Module, unresolved []*state.ModuleState) *catalog.Module {
	chain := w.Chain(m, unresolved)
	return chain[len(chain)-1].Module
}

// Chain returns the path from m to its root cause. The first step is m.
func (w *Walker) Chain(m *catalog.Module, unresolved []*state.ModuleState) []Step {
	candidates := make([]candidate, 0, len(unresolved))
	byKey := make(map[catalog.Key]*state.ModuleState, len(unresolved))
	for _, st := range unresolved {
		byKey[st.Module] = st
		v, err := version.Parse(st.Module.Version)
		if err != nil {
			continue
		}
		cm, ok := w.universe.LookupVersion(st.Module.ID, v)
		if !ok {
			w.logger.Debug("unresolved module unknown to the platform", "module", st.Module.String())
			continue
		}
		candidates = append(candidates, candidate{module: cm})
	}

	visited := mapset.NewThreadUnsafeSet[catalog.Key]()
	chain := []Step{{Module: m}}
	current := m
	for {
		visited.Add(current.Key())
		next, because := w.next(byKey[current.Key()], candidates, visited)
		if next == nil {
			return chain
		}
		w.logger.Debug("root cause step", "from", current.String(), "to", next.String(), "constraint", because.String())
		chain = append(chain, Step{Module: next, Because: because})
		current = next
	}
}

// next returns the first unvisited candidate satisfying one of st's
// mandatory unsatisfied constraints, scanning constraints in order.
func (w *Walker) next(st *state.ModuleState, candidates []candidate, visited mapset.Set[catalog.Key]) (*catalog.Module, *state.Constraint) {
	if st == nil {
		return nil, nil
	}
	for i := range st.Unsatisfied {
		c := &st.Unsatisfied[i]
		if c.Optional {
			continue
		}
		for _, cand := range candidates {
			if visited.Contains(cand.module.Key()) {
				continue
			}
			if c.Satisfies(cand.module) {
				return cand.module, c
			}
		}
	}
	return nil, nil
}
