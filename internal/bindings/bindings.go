//go:build !ios && !android && (amd64 || arm64)

// Package bindings locates and loads the FFmpeg shared libraries through
// purego and hands out the library handles that the ffmpeg package
// registers its functions against.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/videodec/internal/platform"
)

// ErrNotLoaded is returned when FFmpeg functions are called before the
// libraries were loaded.
var ErrNotLoaded = errors.New("videodec: FFmpeg libraries not loaded")

// ErrLibraryNotFound is returned when a required FFmpeg library cannot be
// found on this system.
var ErrLibraryNotFound = errors.New("videodec: FFmpeg library not found")

var (
	libAVUtil   uintptr
	libAVCodec  uintptr
	libAVFormat uintptr
	libAVFilter uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

var (
	avutilVersion   func() uint32
	avcodecVersion  func() uint32
	avformatVersion func() uint32
	avfilterVersion func() uint32
)

// IsLoaded reports whether the libraries loaded successfully.
func IsLoaded() bool {
	return loaded
}

// Load loads the FFmpeg libraries and their version entry points. It is
// safe to call many times; only the first call does work.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	// Dependency order matters: avutil first, then the libraries that
	// link against it.
	var err error

	libAVUtil, err = loadLibrary("avutil", []int{59, 58, 57, 56})
	if err != nil {
		return fmt.Errorf("loading libavutil: %w", err)
	}

	libAVCodec, err = loadLibrary("avcodec", []int{61, 60, 59, 58})
	if err != nil {
		return fmt.Errorf("loading libavcodec: %w", err)
	}

	libAVFormat, err = loadLibrary("avformat", []int{61, 60, 59, 58})
	if err != nil {
		return fmt.Errorf("loading libavformat: %w", err)
	}

	// avfilter carries the scale and format filters used for RGB output.
	libAVFilter, err = loadLibrary("avfilter", []int{10, 9, 8, 7})
	if err != nil {
		return fmt.Errorf("loading libavfilter: %w", err)
	}

	purego.RegisterLibFunc(&avutilVersion, libAVUtil, "avutil_version")
	purego.RegisterLibFunc(&avcodecVersion, libAVCodec, "avcodec_version")
	purego.RegisterLibFunc(&avformatVersion, libAVFormat, "avformat_version")
	purego.RegisterLibFunc(&avfilterVersion, libAVFilter, "avfilter_version")

	return nil
}

// loadLibrary tries versioned names in every search path, then lets the
// system resolver have a go.
func loadLibrary(name string, versions []int) (uintptr, error) {
	for _, searchPath := range LibrarySearchPaths() {
		for _, ver := range versions {
			libName := platform.FormatLibraryName(name, ver)
			if lib, err := tryOpen(filepath.Join(searchPath, libName)); err == nil {
				return lib, nil
			}
		}
		libName := platform.FormatLibraryName(name, 0)
		if lib, err := tryOpen(filepath.Join(searchPath, libName)); err == nil {
			return lib, nil
		}
	}

	for _, ver := range versions {
		if lib, err := tryOpen(platform.FormatLibraryName(name, ver)); err == nil {
			return lib, nil
		}
	}
	if lib, err := tryOpen(platform.FormatLibraryName(name, 0)); err == nil {
		return lib, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// tryOpen opens with RTLD_NOW | RTLD_GLOBAL. RTLD_GLOBAL is required: the
// FFmpeg libraries resolve symbols across each other.
func tryOpen(path string) (uintptr, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return lib, nil
}

// FindLibrary returns the full path a library would load from, for
// diagnostics.
func FindLibrary(name string, versions []int) (string, error) {
	for _, searchPath := range LibrarySearchPaths() {
		for _, ver := range versions {
			fullPath := filepath.Join(searchPath, platform.FormatLibraryName(name, ver))
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
		fullPath := filepath.Join(searchPath, platform.FormatLibraryName(name, 0))
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// LibrarySearchPaths returns platform-specific library search paths.
func LibrarySearchPaths() []string {
	var paths []string

	switch runtime.GOOS {
	case "linux":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)

	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/opt/homebrew/opt/ffmpeg/lib",
			"/usr/local/opt/ffmpeg/lib",
		)

	case "windows":
		if winPath := os.Getenv("PATH"); winPath != "" {
			paths = append(paths, filepath.SplitList(winPath)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		paths = append(paths,
			"C:\\ffmpeg\\bin",
			"C:\\Program Files\\ffmpeg\\bin",
		)

	case "freebsd":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/local/lib",
			"/usr/lib",
		)
	}

	return paths
}

// AVUtilVersion returns the loaded avutil version, or 0.
func AVUtilVersion() uint32 {
	if !loaded || avutilVersion == nil {
		return 0
	}
	return avutilVersion()
}

// AVCodecVersion returns the loaded avcodec version, or 0.
func AVCodecVersion() uint32 {
	if !loaded || avcodecVersion == nil {
		return 0
	}
	return avcodecVersion()
}

// AVFormatVersion returns the loaded avformat version, or 0.
func AVFormatVersion() uint32 {
	if !loaded || avformatVersion == nil {
		return 0
	}
	return avformatVersion()
}

// AVFilterVersion returns the loaded avfilter version, or 0.
func AVFilterVersion() uint32 {
	if !loaded || avfilterVersion == nil {
		return 0
	}
	return avfilterVersion()
}

// LibAVUtil returns the avutil library handle.
func LibAVUtil() uintptr {
	return libAVUtil
}

// LibAVCodec returns the avcodec library handle.
func LibAVCodec() uintptr {
	return libAVCodec
}

// LibAVFormat returns the avformat library handle.
func LibAVFormat() uintptr {
	return libAVFormat
}

// LibAVFilter returns the avfilter library handle.
func LibAVFilter() uintptr {
	return libAVFilter
}
