// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// [ActionableError] wraps a failure with the operation, the resource, and
// short suggestions. An error may link to an [Issue], long-form Markdown
// guidance the CLI renders with glamour in verbose mode.
package issue
