//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"testing"
)

func TestLibrarySearchPaths(t *testing.T) {
	paths := LibrarySearchPaths()
	if len(paths) == 0 {
		t.Error("no search paths for this platform")
	}
	for _, p := range paths {
		if p == "" {
			t.Error("empty search path")
		}
	}
}

func TestLoad(t *testing.T) {
	err := Load()
	if err != nil {
		t.Skipf("FFmpeg libraries not available: %v", err)
	}
	if !IsLoaded() {
		t.Error("IsLoaded() = false after successful Load")
	}
	if AVFormatVersion() == 0 {
		t.Error("avformat version is 0 after Load")
	}
	if AVFilterVersion() == 0 {
		t.Error("avfilter version is 0 after Load")
	}
}

func TestLoadIdempotent(t *testing.T) {
	first := Load()
	second := Load()
	if (first == nil) != (second == nil) {
		t.Errorf("Load results differ: %v then %v", first, second)
	}
}
