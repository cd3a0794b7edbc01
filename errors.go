//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"errors"
	"fmt"
)

// Kind classifies decoder errors.
type Kind int

const (
	// KindInvalidInput means the container could not be opened or the
	// bytes are not decodable media.
	KindInvalidInput Kind = iota + 1

	// KindInvalidArgument means the caller passed a bad option, stream
	// index, frame index, or tried an operation on an inactive stream.
	KindInvalidArgument

	// KindIO means the codec library reported a read, seek, send, flush,
	// or filter-graph failure.
	KindIO

	// KindEndOfStream means the decoder drained with no more frames to
	// deliver.
	KindEndOfStream

	// KindInternal means an invariant was violated after decoding.
	KindInternal

	// KindUnsupported means the operation is recognized but not
	// implemented, such as audio decoding.
	KindUnsupported
)

// String returns a short name for the error kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindInvalidArgument:
		return "invalid argument"
	case KindIO:
		return "io error"
	case KindEndOfStream:
		return "end of stream"
	case KindInternal:
		return "internal"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the error type returned by all Decoder operations.
type Error struct {
	Kind Kind   // classification
	Op   string // operation that failed
	Msg  string // human-readable detail
	Err  error  // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("videodec %s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("videodec %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("videodec %s: %s", e.Op, e.Msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ErrorKind returns the Kind of err, or 0 if err is not a decoder error.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsInvalidInput reports whether err indicates an unopenable input.
func IsInvalidInput(err error) bool { return ErrorKind(err) == KindInvalidInput }

// IsInvalidArgument reports whether err indicates a caller mistake.
func IsInvalidArgument(err error) bool { return ErrorKind(err) == KindInvalidArgument }

// IsIO reports whether err indicates a codec library failure.
func IsIO(err error) bool { return ErrorKind(err) == KindIO }

// IsEndOfStream reports whether err indicates a fully drained stream.
func IsEndOfStream(err error) bool { return ErrorKind(err) == KindEndOfStream }

// IsInternal reports whether err indicates a violated invariant.
func IsInternal(err error) bool { return ErrorKind(err) == KindInternal }

// IsUnsupported reports whether err indicates an unimplemented operation.
func IsUnsupported(err error) bool { return ErrorKind(err) == KindUnsupported }
