// SPDX-License-Identifier: MPL-2.0

// Package state carries the resolved binding graph produced by an external
// constraint solver.
//
// A [State] records, per module, whether it resolved, which concrete module
// satisfies each import and require, which host a fragment attached to, and
// the constraints left unsatisfied. This package does not solve constraints;
// a [Provider] supplies the state, either from a CUE file ([FileProvider])
// or from memory ([StaticProvider]).
package state
