// SPDX-License-Identifier: MPL-2.0

// Package catalog holds the module data model and the catalogs that read it.
//
// A [Module] is a versioned unit of packaged code that exports packages,
// imports packages, and requires other modules. A module may be a fragment of
// exactly one host, in which case it has no classpath identity of its own and
// is always resolved in the context of that host.
//
// An [AggregateDescriptor] is a named, versioned collection of module
// references and nested aggregate includes, each filtered by an
// [EnvironmentSelector].
//
// A [Source] is a named provider of modules and aggregates read from one
// origin: a workspace of in-progress projects or a binary repository
// directory. [Catalog] is the lazily populated, refreshable implementation;
// the loaders ([RepositoryLoader], [WorkspaceLoader], [StaticLoader]) decide
// where the descriptors come from. Descriptors are CUE documents validated
// against embedded schemas:
//
//	id:      "lib.core"
//	version: "1.2.0"
//	exports: ["lib.core", "lib.core.util"]
//	imports: [{package: "org.slf4j", range: "[1.7,2.0)"}]
//	requires: [{id: "lib.base", range: "1.0", reexport: true}]
package catalog
