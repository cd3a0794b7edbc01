//go:build !ios && !android && (amd64 || arm64)

// Package platform knows how shared libraries are named on each supported
// operating system.
package platform

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Is64Bit reports whether the platform is 64-bit. Only 64-bit platforms
// are supported because of purego limitations.
const Is64Bit = unsafe.Sizeof(uintptr(0)) == 8

// LibraryExtension is the shared-library file extension on this platform.
var LibraryExtension string

// LibraryPrefix is the shared-library name prefix on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, freebsd, etc.
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// FormatLibraryName returns the platform-specific library filename.
// Version 0 yields the unversioned name.
//
// Examples:
//   - Linux:   FormatLibraryName("avcodec", 60) -> "libavcodec.so.60"
//   - macOS:   FormatLibraryName("avcodec", 60) -> "libavcodec.60.dylib"
//   - Windows: FormatLibraryName("avcodec", 60) -> "avcodec-60.dll"
func FormatLibraryName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("%s%s.%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s%s-%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	default: // linux, freebsd
		if version > 0 {
			return fmt.Sprintf("%s%s%s.%d", LibraryPrefix, name, LibraryExtension, version)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	}
}
