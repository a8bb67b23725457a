// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Wildcard is the canonical "any version" reference.
const Wildcard = "0.0.0"

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

type (
	// Version is a parsed module version.
	Version struct {
		core      *semver.Version
		qualifier string
	}

	// InvalidVersionError is returned when a version string cannot be parsed.
	InvalidVersionError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Zero is the lowest possible version.
var Zero = MustParse("0.0.0")

// Parse parses a version string. The empty string parses as 0.0.0.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = Wildcard
	}

	parts := strings.SplitN(s, ".", 4)
	nums := [3]uint64{}
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return Version{}, &InvalidVersionError{Value: s, Reason: fmt.Sprintf("segment %d is not numeric", i+1)}
		}
		nums[i] = n
	}

	var qualifier string
	if len(parts) == 4 {
		qualifier = parts[3]
		if qualifier == "" {
			return Version{}, &InvalidVersionError{Value: s, Reason: "empty qualifier"}
		}
		for _, r := range qualifier {
			if !isQualifierRune(r) {
				return Version{}, &InvalidVersionError{Value: s, Reason: fmt.Sprintf("illegal qualifier character %q", r)}
			}
		}
	}

	return Version{
		core:      semver.New(nums[0], nums[1], nums[2], "", ""),
		qualifier: qualifier,
	}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func isQualifierRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}

// Major returns the major segment.
func (v Version) Major() uint64 { return v.coreOrZero().Major() }

// Minor returns the minor segment.
func (v Version) Minor() uint64 { return v.coreOrZero().Minor() }

// Micro returns the micro segment.
func (v Version) Micro() uint64 { return v.coreOrZero().Patch() }

// Qualifier returns the qualifier segment, or "" when absent.
func (v Version) Qualifier() string { return v.qualifier }

func (v Version) coreOrZero() *semver.Version {
	if v.core == nil {
		return semver.New(0, 0, 0, "", "")
	}
	return v.core
}

// Compare returns -1, 0 or 1 depending on whether v is lower than, equal to,
// or higher than other.
func (v Version) Compare(other Version) int {
	if c := v.coreOrZero().Compare(other.coreOrZero()); c != 0 {
		return c
	}
	return strings.Compare(v.qualifier, other.qualifier)
}

// Equal reports whether both versions are identical.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// IsZero reports whether v is 0.0.0 without qualifier.
func (v Version) IsZero() bool { return v.Equal(Zero) }

// String returns the canonical major.minor.micro[.qualifier] form.
func (v Version) String() string {
	c := v.coreOrZero()
	s := fmt.Sprintf("%d.%d.%d", c.Major(), c.Minor(), c.Patch())
	if v.qualifier != "" {
		s += "." + v.qualifier
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// IsWildcard reports whether a version reference means "any version".
func IsWildcard(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "*" {
		return true
	}
	v, err := Parse(ref)
	return err == nil && v.IsZero()
}
