// SPDX-License-Identifier: MPL-2.0

package closure

import (
	"errors"
	"fmt"

	"github.com/invowk/bundlegraph/pkg/catalog"
)

var (
	// ErrUnresolved is the sentinel error wrapped by UnresolvedError.
	ErrUnresolved = errors.New("module is not resolved")
	// ErrInconsistentBinding is the sentinel error wrapped by BindingContractError.
	ErrInconsistentBinding = errors.New("inconsistent resolved state")
)

type (
	// UnresolvedError is returned when the root module has no resolved
	// binding graph. It is a recoverable, per-request failure.
	UnresolvedError struct {
		Module catalog.Key
		Reason string
	}

	// BindingContractError is returned when the resolved state contradicts
	// the catalog, e.g. a binding names a module the platform does not know.
	BindingContractError struct {
		// Module is the module whose binding is broken.
		Module catalog.Key
		// Constraint describes the binding, e.g. "import pkg.a".
		Constraint string
		Provider   catalog.Key
		Reason     string
	}
)

// Error implements the error interface.
func (e *UnresolvedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("module %s is not resolved", e.Module)
	}
	return fmt.Sprintf("module %s is not resolved: %s", e.Module, e.Reason)
}

// Unwrap returns ErrUnresolved so callers can use errors.Is for programmatic detection.
func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// Error implements the error interface.
func (e *BindingContractError) Error() string {
	return fmt.Sprintf("module %s: %s bound to %s: %s", e.Module, e.Constraint, e.Provider, e.Reason)
}

// Unwrap returns ErrInconsistentBinding so callers can use errors.Is for programmatic detection.
func (e *BindingContractError) Unwrap() error { return ErrInconsistentBinding }
