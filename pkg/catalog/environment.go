// SPDX-License-Identifier: MPL-2.0

package catalog

import "strings"

type (
	// Environment is a target configuration.
	Environment struct {
		OS   string `json:"os" toml:"os"`
		WS   string `json:"ws" toml:"ws"`
		Arch string `json:"arch" toml:"arch"`
		NL   string `json:"nl" toml:"nl"`
	}

	// EnvironmentSelector filters references by target configuration. Each
	// component is empty (matches anything) or a comma-separated allow-list.
	EnvironmentSelector struct {
		OS   string
		WS   string
		Arch string
		NL   string
	}
)

// Matches reports whether every non-empty component's allow-list contains
// the corresponding environment value, compared case-insensitively.
func (s EnvironmentSelector) Matches(env Environment) bool {
	return allows(s.OS, env.OS) &&
		allows(s.WS, env.WS) &&
		allows(s.Arch, env.Arch) &&
		allows(s.NL, env.NL)
}

// IsEmpty reports whether the selector matches every environment.
func (s EnvironmentSelector) IsEmpty() bool {
	return strings.TrimSpace(s.OS) == "" &&
		strings.TrimSpace(s.WS) == "" &&
		strings.TrimSpace(s.Arch) == "" &&
		strings.TrimSpace(s.NL) == ""
}

// String renders the non-empty components as "os=win32 arch=x86_64".
func (s EnvironmentSelector) String() string {
	return renderComponents(s.OS, s.WS, s.Arch, s.NL)
}

// String renders the non-empty components as "os=linux ws=gtk".
func (e Environment) String() string {
	return renderComponents(e.OS, e.WS, e.Arch, e.NL)
}

func renderComponents(os, ws, arch, nl string) string {
	var parts []string
	for _, c := range [...]struct{ k, v string }{{"os", os}, {"ws", ws}, {"arch", arch}, {"nl", nl}} {
		if v := strings.TrimSpace(c.v); v != "" {
			parts = append(parts, c.k+"="+v)
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func allows(list, value string) bool {
	if strings.TrimSpace(list) == "" {
		return true
	}
	for allowed := range strings.SplitSeq(list, ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}
