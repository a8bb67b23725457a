// SPDX-License-Identifier: MPL-2.0

// Package watch reports changes to module and aggregate descriptors under a
// set of catalog roots.
//
// Events are debounced: edits arriving within the quiet period are coalesced
// and the callback fires once with every changed descriptor path.
package watch
