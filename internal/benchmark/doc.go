// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks over the hot paths: descriptor parsing,
// catalog loading, platform composition, classpath computation, aggregate
// resolution and root-cause walks.
//
// They double as the workload for PGO profiles:
//
//	go test -run='^$' -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
