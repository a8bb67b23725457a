// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/invowk/bundlegraph/pkg/catalog"
)

// currentOnce caches the detected environment for the lifetime of the process.
//
// INVARIANT: detectEnvironmentFrom MUST NOT panic; sync.OnceValue re-panics on
// every call.
var currentOnce = sync.OnceValue(func() catalog.Environment {
	return detectEnvironmentFrom(runtime.GOOS, runtime.GOARCH, os.Getenv)
})

// CurrentEnvironment returns the environment of the running process in
// descriptor terms, e.g. os=linux ws=gtk arch=x86_64 nl=en_US.
func CurrentEnvironment() catalog.Environment {
	return currentOnce()
}

// OSFor maps a Go OS name to its descriptor value. Unknown names pass through.
func OSFor(goos string) string {
	switch goos {
	case Windows:
		return OSWin32
	case Darwin:
		return OSMacOSX
	case Linux:
		return OSLinux
	default:
		return goos
	}
}

// WindowingSystemFor returns the default windowing system for a Go OS name.
func WindowingSystemFor(goos string) string {
	switch goos {
	case Windows:
		return WSWin32
	case Darwin:
		return WSCocoa
	case Linux, "freebsd", "openbsd", "netbsd":
		return WSGTK
	default:
		return ""
	}
}

// ArchFor maps a Go architecture name to its descriptor value.
func ArchFor(goarch string) string {
	switch goarch {
	case "amd64":
		return ArchX86_64
	case "arm64":
		return ArchAArch64
	case "386":
		return ArchX86
	default:
		return goarch
	}
}

// LocaleFrom derives a locale such as "en_US" from LC_ALL, LC_MESSAGES or
// LANG, in that order. "C" and "POSIX" yield an empty locale.
func LocaleFrom(lookupEnv func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := lookupEnv(key)
		if v == "" {
			continue
		}
		v, _, _ = strings.Cut(v, ".")
		v, _, _ = strings.Cut(v, "@")
		if v == "C" || v == "POSIX" {
			return ""
		}
		return v
	}
	return ""
}

// detectEnvironmentFrom builds an environment from injected inputs so tests
// do not depend on process state.
func detectEnvironmentFrom(goos, goarch string, lookupEnv func(string) string) catalog.Environment {
	return catalog.Environment{
		OS:   OSFor(goos),
		WS:   WindowingSystemFor(goos),
		Arch: ArchFor(goarch),
		NL:   LocaleFrom(lookupEnv),
	}
}

// Complete fills the empty components of env from CurrentEnvironment.
func Complete(env catalog.Environment) catalog.Environment {
	cur := CurrentEnvironment()
	if env.OS == "" {
		env.OS = cur.OS
	}
	if env.WS == "" {
		env.WS = cur.WS
	}
	if env.Arch == "" {
		env.Arch = cur.Arch
	}
	if env.NL == "" {
		env.NL = cur.NL
	}
	return env
}
