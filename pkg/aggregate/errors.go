// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/invowk/bundlegraph/pkg/catalog"
)

const (
	// RefMember marks a member reference.
	RefMember RefKind = "member"
	// RefInclude marks a nested include reference.
	RefInclude RefKind = "include"

	maxSuggestions = 3
)

// ErrMissingReference is the sentinel error wrapped by MissingReferenceError.
var ErrMissingReference = errors.New("aggregate reference not found")

type (
	// RefKind tells member references from include references.
	RefKind string

	// MissingReferenceError names a reference the platform cannot satisfy.
	MissingReferenceError struct {
		Aggregate catalog.Key
		Kind      RefKind
		ID        string
		// Version is the requested version, "*" for wildcards.
		Version string
		// Suggestions are close identifiers or available versions.
		Suggestions []string
	}
)

// Error implements the error interface.
func (e *MissingReferenceError) Error() string {
	msg := fmt.Sprintf("aggregate %s: %s %s@%s not found", e.Aggregate, e.Kind, e.ID, e.Version)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

// Unwrap returns ErrMissingReference so callers can use errors.Is for programmatic detection.
func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }

// suggest returns the available versions of id when there are any, otherwise
// the known identifiers closest to id by edit distance.
func suggest(id string, versions []string, known []string) []string {
	if len(versions) > 0 {
		out := make([]string, 0, min(len(versions), maxSuggestions))
		for _, v := range versions[:min(len(versions), maxSuggestions)] {
			out = append(out, id+"@"+v)
		}
		return out
	}

	type candidate struct {
		name string
		dist int
	}
	limit := max(2, len(id)/3)
	var candidates []candidate
	for _, name := range known {
		if name == id {
			continue
		}
		if d := levenshtein.Distance(id, name, nil); d <= limit {
			candidates = append(candidates, candidate{name: name, dist: d})
		}
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(len(candidates), maxSuggestions))
	for _, c := range candidates[:min(len(candidates), maxSuggestions)] {
		out = append(out, c.name)
	}
	return out
}
