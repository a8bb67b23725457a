// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidRange is the sentinel error wrapped by InvalidRangeError.
var ErrInvalidRange = errors.New("invalid version range")

type (
	// Range is a constraint over versions.
	//
	// The zero value matches every version.
	Range struct {
		min          Version
		max          Version
		hasMin       bool
		hasMax       bool
		minInclusive bool
		maxInclusive bool
		expr         *semver.Constraints
		original     string
	}

	// InvalidRangeError is returned when a range expression cannot be parsed.
	InvalidRangeError struct {
		Value string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid version range %q: %v", e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid version range %q", e.Value)
}

// Unwrap returns ErrInvalidRange so callers can use errors.Is for programmatic detection.
func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// Any returns the range that matches every version.
func Any() Range { return Range{} }

// Exactly returns the range that matches exactly v.
func Exactly(v Version) Range {
	return Range{
		min: v, max: v,
		hasMin: true, hasMax: true,
		minInclusive: true, maxInclusive: true,
		original: "[" + v.String() + "," + v.String() + "]",
	}
}

// AtLeast returns the range that matches v and everything above it.
func AtLeast(v Version) Range {
	return Range{min: v, hasMin: true, minInclusive: true, original: v.String()}
}

// ParseRange parses a range expression.
//
// Accepted forms:
//   - "" or "*": any version
//   - "1.2" or "1.2.3.q": at least that version
//   - "[1.0,2.0)", "(1.0,2.0]", "[1.0,1.0]": interval notation
//   - anything else is evaluated as a semver constraint against the numeric core
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Range{original: s}, nil
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(") {
		return parseInterval(s)
	}

	if v, err := Parse(s); err == nil {
		r := AtLeast(v)
		r.original = s
		return r, nil
	}

	c, err := semver.NewConstraint(s)
	if err != nil {
		return Range{}, &InvalidRangeError{Value: s, Cause: err}
	}
	return Range{expr: c, original: s}, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseInterval(s string) (Range, error) {
	if len(s) < 2 {
		return Range{}, &InvalidRangeError{Value: s}
	}
	last := s[len(s)-1]
	if last != ']' && last != ')' {
		return Range{}, &InvalidRangeError{Value: s, Cause: errors.New("missing closing bracket")}
	}

	body := s[1 : len(s)-1]
	lo, hi, ok := strings.Cut(body, ",")
	if !ok {
		return Range{}, &InvalidRangeError{Value: s, Cause: errors.New("missing comma")}
	}

	r := Range{
		minInclusive: s[0] == '[',
		maxInclusive: last == ']',
		original:     s,
	}

	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := Parse(lo)
		if err != nil {
			return Range{}, &InvalidRangeError{Value: s, Cause: err}
		}
		r.min, r.hasMin = v, true
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := Parse(hi)
		if err != nil {
			return Range{}, &InvalidRangeError{Value: s, Cause: err}
		}
		r.max, r.hasMax = v, true
	}

	if r.hasMin && r.hasMax {
		c := r.min.Compare(r.max)
		if c > 0 || (c == 0 && !(r.minInclusive && r.maxInclusive)) {
			return Range{}, &InvalidRangeError{Value: s, Cause: errors.New("empty interval")}
		}
	}

	return r, nil
}

// Contains reports whether v satisfies the range.
func (r Range) Contains(v Version) bool {
	if r.expr != nil {
		return r.expr.Check(v.coreOrZero())
	}
	if r.hasMin {
		c := v.Compare(r.min)
		if c < 0 || (c == 0 && !r.minInclusive) {
			return false
		}
	}
	if r.hasMax {
		c := v.Compare(r.max)
		if c > 0 || (c == 0 && !r.maxInclusive) {
			return false
		}
	}
	return true
}

// IsAny reports whether the range matches everything.
func (r Range) IsAny() bool {
	return r.expr == nil && !r.hasMin && !r.hasMax
}

// String returns the expression the range was parsed from.
func (r Range) String() string {
	if r.original == "" && r.IsAny() {
		return "*"
	}
	return r.original
}

// MarshalText implements encoding.TextMarshaler.
func (r Range) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Range) UnmarshalText(b []byte) error {
	parsed, err := ParseRange(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
