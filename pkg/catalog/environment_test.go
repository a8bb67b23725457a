// SPDX-License-Identifier: MPL-2.0

package catalog

import "testing"

func TestEnvironmentSelectorMatches(t *testing.T) {
	t.Parallel()

	linux := Environment{OS: "linux", WS: "gtk", Arch: "x86_64", NL: "en_US"}

	tests := []struct {
		name string
		sel  EnvironmentSelector
		want bool
	}{
		{name: "empty matches anything", sel: EnvironmentSelector{}, want: true},
		{name: "single os", sel: EnvironmentSelector{OS: "linux"}, want: true},
		{name: "other os", sel: EnvironmentSelector{OS: "win32"}, want: false},
		{name: "allow list", sel: EnvironmentSelector{OS: "win32, linux"}, want: true},
		{name: "case insensitive", sel: EnvironmentSelector{OS: "Linux", Arch: "X86_64"}, want: true},
		{name: "one component fails", sel: EnvironmentSelector{OS: "linux", WS: "cocoa"}, want: false},
		{name: "locale", sel: EnvironmentSelector{NL: "de_DE,en_US"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.sel.Matches(linux); got != tt.want {
				t.Errorf("%v.Matches(%v) = %v, want %v", tt.sel, linux, got, tt.want)
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	t.Parallel()

	if got := (Environment{OS: "linux", Arch: "aarch64"}).String(); got != "os=linux arch=aarch64" {
		t.Errorf("String() = %q, want %q", got, "os=linux arch=aarch64")
	}
	if got := (EnvironmentSelector{}).String(); got != "*" {
		t.Errorf("empty selector String() = %q, want %q", got, "*")
	}
	if !(EnvironmentSelector{OS: " "}).IsEmpty() {
		t.Error("blank selector IsEmpty() = false, want true")
	}
}
