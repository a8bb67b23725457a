// SPDX-License-Identifier: MPL-2.0

// Package platform composes module catalogs into one queryable view.
//
// A [Platform] merges one workspace source of in-progress modules with any
// number of binary repository sources. Unqualified lookups return the highest
// version; when the same id and version exists in both, the workspace module
// wins unless workspace preference is disabled. Derived caches in other
// packages subscribe to [Platform.OnRefresh] and drop their entries when the
// view is rebuilt.
//
// The package also maps the running Go runtime to descriptor environment
// values (see [CurrentEnvironment]).
package platform
