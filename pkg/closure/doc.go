// SPDX-License-Identifier: MPL-2.0

// Package closure computes the classpath of a module from a resolved binding
// graph.
//
// [Resolver.ResolveClasspath] returns one [Dependency] per host module the
// root can see. The root's own host is unrestricted. Every other dependency
// carries the packages visible through it: the packages the root imports
// from it, plus, when the root requires it (directly or through re-exports),
// everything it and its fragments export. A package the root imports from
// one provider is never also visible through another module's require.
//
// Re-export cycles are tolerated. They are reported as warnings on the
// [Result] and logged; the closure still completes.
package closure
