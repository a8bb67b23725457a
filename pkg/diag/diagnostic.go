// SPDX-License-Identifier: MPL-2.0

package diag

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SeverityWarning indicates a recoverable anomaly; the result is complete.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal error; the result omits something.
	SeverityError Severity = "error"
)

const (
	// CodeReexportCycle reports a cycle in the re-export graph of a closure.
	CodeReexportCycle Code = "reexport_cycle"
	// CodeMemberCycle reports a dependency cycle among aggregate members.
	CodeMemberCycle Code = "member_cycle"
	// CodeIncludeCycle reports an aggregate that includes itself transitively.
	CodeIncludeCycle Code = "include_cycle"
	// CodeOptionalIncludeMissing reports an optional include that could not be found.
	CodeOptionalIncludeMissing Code = "optional_include_missing"
	// CodeDuplicateBinary reports the same module version in more than one binary source.
	CodeDuplicateBinary Code = "duplicate_binary_module"
	// CodeFragmentUnresolved reports a fragment that was skipped because it did not resolve.
	CodeFragmentUnresolved Code = "fragment_unresolved"
)

var (
	// ErrInvalidSeverity is returned when a Severity value is not recognized.
	ErrInvalidSeverity = errors.New("invalid diagnostic severity")
	// ErrInvalidCode is returned when a Code value is not recognized.
	ErrInvalidCode = errors.New("invalid diagnostic code")
)

type (
	// Severity is the diagnostic level.
	Severity string

	// Code is a machine-readable diagnostic identifier.
	Code string

	// Diagnostic is one structured, non-fatal finding.
	Diagnostic struct {
		Severity Severity
		Code     Code
		// Message is the human-readable description.
		Message string
		// Modules lists the module or aggregate keys involved, in a stable order.
		Modules []string
		// Cause is the underlying error, if any.
		Cause error
	}
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, string(s))}
	}
}

// String returns the code as written.
func (c Code) String() string { return string(c) }

// IsValid reports whether c is a known code.
func (c Code) IsValid() (bool, []error) {
	switch c {
	case CodeReexportCycle, CodeMemberCycle, CodeIncludeCycle, CodeOptionalIncludeMissing,
		CodeDuplicateBinary, CodeFragmentUnresolved:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidCode, string(c))}
	}
}

// NewWarning creates a warning diagnostic.
func NewWarning(code Code, message string, modules ...string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Modules: modules}
}

// NewWithCause creates a diagnostic carrying an underlying error.
func NewWithCause(severity Severity, code Code, message string, cause error, modules ...string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Modules: modules, Cause: cause}
}

// String renders "warning[reexport_cycle]: message (a@1.0.0, b@1.0.0)".
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	if len(d.Modules) > 0 {
		s += " (" + strings.Join(d.Modules, ", ") + ")"
	}
	return s
}
