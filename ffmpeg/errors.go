//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"fmt"
	"syscall"

	"github.com/obinnaokechukwu/videodec/codec"
)

// FFmpeg error codes this package must recognize. AVERROR_EOF is the
// FFERRTAG('E','O','F',' ') value; EAGAIN is the negated OS errno.
const (
	errEOF   = int32(-541478725)
	errAgain = -int32(syscall.EAGAIN)
)

// Error is a failure reported by an FFmpeg function.
type Error struct {
	Code    int32  // negative AVERROR code
	Op      string // function that failed
	Message string // av_strerror text, if resolvable
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ffmpeg %s: %s (code %d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("ffmpeg %s: code %d", e.Op, e.Code)
}

// avError converts a negative FFmpeg return code. EOF and EAGAIN map onto
// the codec package sentinels so the engine can branch on them.
func avError(code int32, op string) error {
	switch code {
	case errEOF:
		return codec.ErrEOF
	case errAgain:
		return codec.ErrAgain
	}
	return &Error{Code: code, Op: op, Message: strError(code)}
}

// strError resolves a code through av_strerror.
func strError(code int32) string {
	if avStrerror == nil {
		return ""
	}
	var buf [128]byte
	if avStrerror(code, &buf[0], uintptr(len(buf))) < 0 {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}
