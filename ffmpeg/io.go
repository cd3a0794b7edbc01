//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"errors"
	"io"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/videodec/internal/handles"
)

// ioContext adapts an io.ReadSeeker into an AVIOContext so libavformat can
// demux from arbitrary Go byte sources.
type ioContext struct {
	avio   unsafe.Pointer
	reader io.ReadSeeker
	handle uintptr
	closed bool
}

// Callbacks are registered once and shared by every ioContext; purego has
// a hard limit on the number of live callbacks.
var (
	ioCallbacksOnce sync.Once
	readCallbackPtr uintptr
	seekCallbackPtr uintptr
)

func initIOCallbacks() {
	ioCallbacksOnce.Do(func() {
		// int read_packet(void *opaque, uint8_t *buf, int buf_size)
		readCallbackPtr = purego.NewCallback(func(_ purego.CDecl, opaque unsafe.Pointer, buf *byte, bufSize int32) int32 {
			ctx, ok := handles.Lookup(uintptr(opaque)).(*ioContext)
			if !ok || bufSize <= 0 {
				return -1
			}
			goBuf := unsafe.Slice(buf, bufSize)
			n, err := ctx.reader.Read(goBuf)
			if n > 0 {
				return int32(n)
			}
			if err == io.EOF || err == nil {
				return errEOF
			}
			return -1
		})

		// int64_t seek(void *opaque, int64_t offset, int whence)
		seekCallbackPtr = purego.NewCallback(func(_ purego.CDecl, opaque unsafe.Pointer, offset int64, whence int32) int64 {
			ctx, ok := handles.Lookup(uintptr(opaque)).(*ioContext)
			if !ok {
				return -1
			}
			if whence == avseekSize {
				// The library asks for the total size; answer by seeking
				// to the end and restoring the position.
				current, err := ctx.reader.Seek(0, io.SeekCurrent)
				if err != nil {
					return -1
				}
				end, err := ctx.reader.Seek(0, io.SeekEnd)
				if err != nil {
					return -1
				}
				if _, err := ctx.reader.Seek(current, io.SeekStart); err != nil {
					return -1
				}
				return end
			}
			pos, err := ctx.reader.Seek(offset, int(whence))
			if err != nil {
				return -1
			}
			return pos
		})
	})
}

// newIOContext wraps reader in an AVIOContext with the given scratch
// buffer size.
func newIOContext(reader io.ReadSeeker, bufferSize int) (*ioContext, error) {
	if reader == nil {
		return nil, errors.New("ffmpeg: nil reader")
	}
	initIOCallbacks()

	// The buffer must come from av_malloc; the library may reallocate it.
	buffer := avMalloc(uintptr(bufferSize))
	if buffer == nil {
		return nil, errors.New("ffmpeg: failed to allocate I/O buffer")
	}

	ctx := &ioContext{reader: reader}
	ctx.handle = handles.Register(ctx)

	ctx.avio = avioAllocContext(
		buffer,
		int32(bufferSize),
		0, // read-only
		unsafe.Pointer(ctx.handle),
		readCallbackPtr,
		0,
		seekCallbackPtr,
	)
	if ctx.avio == nil {
		avFree(buffer)
		handles.Unregister(ctx.handle)
		return nil, errors.New("ffmpeg: failed to allocate AVIOContext")
	}
	return ctx, nil
}

// Close frees the AVIOContext and its current buffer. The buffer pointer
// is re-read from the context because the library may have swapped it.
func (c *ioContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.avio != nil {
		if buf := readPtr(c.avio, offIOCtxBuffer); buf != nil {
			avFree(buf)
		}
		avioContextFree(&c.avio)
	}
	if c.handle != 0 {
		handles.Unregister(c.handle)
		c.handle = 0
	}
	return nil
}
