// Package codec defines the contract between the videodec engine and the
// underlying demux/decode library.
//
// The engine never talks to FFmpeg directly; it drives a Container obtained
// from a Backend. The production implementation lives in package ffmpeg and
// binds the real libraries through purego. Package codectest provides a
// deterministic in-memory implementation used by the engine tests.
package codec

import (
	"errors"
	"io"
)

// MediaType identifies the kind of payload a stream carries.
// Values match the library's media-type enumeration.
type MediaType int32

const (
	MediaTypeUnknown MediaType = -1
	MediaTypeVideo   MediaType = 0
	MediaTypeAudio   MediaType = 1
	MediaTypeData    MediaType = 2
)

// String returns a short human-readable name for the media type.
func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	default:
		return "unknown"
	}
}

// ErrAgain indicates the decoder needs more input before it can produce a
// frame. It is retriable: feed another packet and receive again.
var ErrAgain = errors.New("codec: more input required")

// ErrEOF indicates the container or decoder has no more data to deliver.
var ErrEOF = errors.New("codec: end of stream")

// Source describes where a container's bytes come from.
// Exactly one of Path and Reader must be set. When Reader is used, the
// backend reads through it with callback I/O and BufferSize controls the
// scratch buffer handed to the library (0 means the backend default).
// The reader must stay valid for the container's lifetime; backends never
// copy the underlying bytes.
type Source struct {
	Path       string
	Reader     io.ReadSeeker
	BufferSize int
}

// StreamHeader carries the header-derived description of one stream.
// Duration is in time-base units; zero or negative values mean "not
// reported by the container".
type StreamHeader struct {
	Index      int
	MediaType  MediaType
	CodecName  string
	BitRate    int64
	NumFrames  int64
	Duration   int64
	TimeBase   Rational
	AverageFPS float64
	Width      int
	Height     int
}

// Packet is one compressed unit read from the container.
// Handle is backend-private state for the payload; it stays valid until the
// next ReadPacket call on the same container.
type Packet struct {
	StreamIndex int
	PTS         int64
	Duration    int64
	Keyframe    bool
	Discard     bool

	Handle any
}

// Frame is one decoded picture. Handle is backend-private state for the
// pixel data; it stays valid until the next ReceiveFrame call on the same
// decoder.
type Frame struct {
	PTS      int64
	Duration int64

	Handle any
}

// RGBImage is the output of a Scaler: packed 8-bit RGB with a row stride
// that may exceed Width*3. Pix is owned by the caller.
type RGBImage struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// ScalerConfig selects the output dimensions of a Scaler.
type ScalerConfig struct {
	Width  int
	Height int
}

// Backend opens containers from byte sources.
type Backend interface {
	Open(src Source) (Container, error)
}

// Container is an opened media file. It is not safe for concurrent use.
type Container interface {
	// NumStreams returns the number of stream slots in the container.
	NumStreams() int

	// Stream returns the header of stream i.
	Stream(i int) (StreamHeader, error)

	// BestStream returns the library's choice of primary stream for the
	// media type, or -1 when the container has none. preferred >= 0
	// requests a specific stream index.
	BestStream(media MediaType, preferred int) int

	// Duration reports the container-level duration in seconds when the
	// library knows it.
	Duration() (float64, bool)

	// BitRate reports the container-level bit rate when the library
	// knows it.
	BitRate() (int64, bool)

	// ReadPacket fills pkt with the next packet in file order.
	// Returns ErrEOF at end of file.
	ReadPacket(pkt *Packet) error

	// SeekFile repositions the demuxer so the next packet is the highest
	// keyframe with ts' <= ts, constrained to [minTS, maxTS] in the time
	// base of streamIndex.
	SeekFile(streamIndex int, minTS, ts, maxTS int64) error

	// IndexSearch returns the index of the keyframe bracketing ts in the
	// library's own stream index, or -1 when unknown.
	IndexSearch(streamIndex int, ts int64) int

	// OpenDecoder opens a decoder for the stream. threadCount is a hint
	// to the library's internal threading; 0 means library default.
	OpenDecoder(streamIndex int, threadCount int) (Decoder, error)

	Close() error
}

// Decoder turns packets into frames for a single stream.
type Decoder interface {
	// SendPacket feeds one packet. A nil packet starts draining.
	SendPacket(pkt *Packet) error

	// ReceiveFrame fills fr with the next decoded frame.
	// Returns ErrAgain when more input is needed and ErrEOF once the
	// drain is complete.
	ReceiveFrame(fr *Frame) error

	// FlushBuffers discards all buffered state, typically after a seek.
	FlushBuffers()

	// CodecName returns the name of the opened codec.
	CodecName() string

	// Width and Height are the coded dimensions after the codec opened.
	Width() int
	Height() int

	// NewScaler builds the scale/format graph that converts this
	// decoder's frames to 8-bit RGB at the configured dimensions.
	NewScaler(cfg ScalerConfig) (Scaler, error)

	Close() error
}

// Scaler converts decoded frames to packed RGB.
type Scaler interface {
	Scale(fr *Frame) (*RGBImage, error)
	Close() error
}
