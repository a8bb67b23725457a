// SPDX-License-Identifier: MPL-2.0

// Package diag defines the structured, non-fatal diagnostics returned next to
// resolution results. Callers decide how to render them; the engine never
// prints.
package diag
