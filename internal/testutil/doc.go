// SPDX-License-Identifier: MPL-2.0

// Package testutil builds catalog fixtures for tests: descriptor trees on an
// afero filesystem and the descriptor sources that go in them.
package testutil
