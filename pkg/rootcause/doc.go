// SPDX-License-Identifier: MPL-2.0

// Package rootcause finds the deepest failure behind an unresolved module.
//
// Starting from a module the solver could not resolve, the walker looks at
// each unsatisfied constraint and searches the other unresolved modules for
// one whose declaration would have satisfied it. If one exists, that module's
// own failure is the better explanation, and the walk continues there. A
// module already visited is never entered twice, so the walk terminates on
// cyclic inputs and the last module reached is reported.
package rootcause
