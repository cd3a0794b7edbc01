//go:build !ios && !android && (amd64 || arm64)

package platform

import (
	"runtime"
	"testing"
)

func TestFormatLibraryName(t *testing.T) {
	got := FormatLibraryName("avcodec", 60)
	var want string
	switch runtime.GOOS {
	case "darwin":
		want = "libavcodec.60.dylib"
	case "windows":
		want = "avcodec-60.dll"
	default:
		want = "libavcodec.so.60"
	}
	if got != want {
		t.Errorf("FormatLibraryName(avcodec, 60) = %q, want %q", got, want)
	}
}

func TestFormatLibraryNameUnversioned(t *testing.T) {
	got := FormatLibraryName("avutil", 0)
	var want string
	switch runtime.GOOS {
	case "darwin":
		want = "libavutil.dylib"
	case "windows":
		want = "avutil.dll"
	default:
		want = "libavutil.so"
	}
	if got != want {
		t.Errorf("FormatLibraryName(avutil, 0) = %q, want %q", got, want)
	}
}
