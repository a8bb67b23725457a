// SPDX-License-Identifier: MPL-2.0

// Package aggregate resolves aggregate descriptors against a module platform.
//
// [Resolver.Resolve] filters member and include references by environment,
// resolves each against the platform (a wildcard version selects the highest
// available, an explicit version must match exactly) and orders the members
// so that providers come before their consumers. Nested includes are resolved
// to descriptors but not flattened; [Resolver.Walk] visits them explicitly.
package aggregate
