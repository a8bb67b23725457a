// SPDX-License-Identifier: MPL-2.0

// Package version implements the version and version-range model shared by
// modules and aggregate descriptors.
//
// A version has the form major[.minor[.micro[.qualifier]]]. Missing numeric
// segments default to zero, and the qualifier is compared lexically after the
// numeric core, with the empty qualifier sorting lowest.
//
// References from aggregates use a wildcard (the empty string or "0.0.0") to
// mean "highest available". Constraints on imports and requires use [Range],
// which accepts interval notation ("[1.0,2.0)"), a bare minimum version
// ("1.2"), or a semver constraint expression ("^1.2", ">=1.0, <2.0").
package version
