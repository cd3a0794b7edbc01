//go:build !ios && !android && (amd64 || arm64)

// Package ffmpeg implements the codec backend on top of the FFmpeg shared
// libraries, bound at runtime through purego. No cgo is involved: the
// libraries are dlopen'd, functions are registered by name, and struct
// fields are read at known offsets.
package ffmpeg

import (
	"fmt"

	"github.com/obinnaokechukwu/videodec/codec"
	"github.com/obinnaokechukwu/videodec/internal/bindings"
)

// Backend opens containers with libavformat.
type Backend struct{}

// NewBackend returns the FFmpeg-backed codec.Backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Open implements codec.Backend.
func (b *Backend) Open(src codec.Source) (codec.Container, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	return openContainer(src)
}

// Load loads the FFmpeg libraries and registers every function this
// package calls. Safe to call many times.
func Load() error {
	if err := bindings.Load(); err != nil {
		return err
	}
	registerBindings()
	return nil
}

// Available reports whether the FFmpeg libraries could be loaded on this
// system.
func Available() bool {
	return Load() == nil
}

// VersionString formats a packed FFmpeg library version as "major.minor.micro".
func VersionString(v uint32) string {
	if v == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d.%d", (v>>16)&0xFF, (v>>8)&0xFF, v&0xFF)
}

// LibraryVersions describes the loaded FFmpeg libraries.
type LibraryVersions struct {
	AVUtil   string
	AVCodec  string
	AVFormat string
	AVFilter string
}

// Versions returns the loaded library versions for diagnostics.
func Versions() LibraryVersions {
	return LibraryVersions{
		AVUtil:   VersionString(bindings.AVUtilVersion()),
		AVCodec:  VersionString(bindings.AVCodecVersion()),
		AVFormat: VersionString(bindings.AVFormatVersion()),
		AVFilter: VersionString(bindings.AVFilterVersion()),
	}
}
