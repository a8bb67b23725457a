// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"strings"

	"github.com/invowk/bundlegraph/pkg/version"
)

type (
	// MemberRef references a module from an aggregate.
	MemberRef struct {
		ID string
		// Version is an exact version or a wildcard (see version.IsWildcard).
		Version  string
		Selector EnvironmentSelector
		// DownloadSize and InstallSize are informational, in kilobytes.
		DownloadSize int64
		InstallSize  int64
		Unpack       bool
	}

	// IncludeRef references a nested aggregate.
	IncludeRef struct {
		ID       string
		Version  string
		Selector EnvironmentSelector
		// Optional includes that cannot be found produce a warning instead of failing resolution.
		Optional bool
	}

	// AggregateDescriptor is an ordered collection of member and include references.
	AggregateDescriptor struct {
		ID       string
		Version  version.Version
		Label    string
		Members  []MemberRef
		Includes []IncludeRef
		Origin   Origin
	}
)

// Key returns the aggregate's identity.
func (a *AggregateDescriptor) Key() Key { return Key{ID: a.ID, Version: a.Version.String()} }

// String returns "id@version".
func (a *AggregateDescriptor) String() string { return a.Key().String() }

// String returns "id@version", with "*" for wildcard versions.
func (r MemberRef) String() string { return refString(r.ID, r.Version) }

// String returns "id@version", with "*" for wildcard versions.
func (r IncludeRef) String() string { return refString(r.ID, r.Version) }

func refString(id, ver string) string {
	if version.IsWildcard(ver) {
		return id + "@*"
	}
	return id + "@" + strings.TrimSpace(ver)
}

// CompareAggregates orders aggregates by id, then version.
func CompareAggregates(a, b *AggregateDescriptor) int {
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return a.Version.Compare(b.Version)
}
