// SPDX-License-Identifier: MPL-2.0

// Package content maps resolved modules to their physical classpath entries.
package content
