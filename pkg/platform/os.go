// SPDX-License-Identifier: MPL-2.0

package platform

// Go OS names for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Descriptor values for operating systems, windowing systems and
// architectures, as written in environment selectors.
const (
	OSWin32  = "win32"
	OSLinux  = "linux"
	OSMacOSX = "macosx"

	WSWin32 = "win32"
	WSGTK   = "gtk"
	WSCocoa = "cocoa"

	ArchX86_64  = "x86_64"
	ArchAArch64 = "aarch64"
	ArchX86     = "x86"
)
