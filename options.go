//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/obinnaokechukwu/videodec/codec"
)

// VideoStreamOptions configures AddVideoStream.
type VideoStreamOptions struct {
	// StreamIndex selects a specific stream, or -1 for the container's
	// best video stream.
	StreamIndex int

	// Width and Height resize the decoded output. Both must be set; if
	// either is zero the codec's native dimensions are used.
	Width  int
	Height int

	// ThreadCount is passed to the codec's internal threading. 0 keeps
	// the library default.
	ThreadCount int

	// Layout selects the pixel memory order of decoded images.
	Layout Layout
}

// NewVideoStreamOptions returns the defaults: best stream, native
// dimensions, library threading, NHWC output.
func NewVideoStreamOptions() VideoStreamOptions {
	return VideoStreamOptions{StreamIndex: -1, Layout: LayoutNHWC}
}

// ParseVideoStreamOptions parses the compact "key=value,key=value" option
// string. Recognized keys are ffmpeg_thread_count, shape, width and height.
// Unknown keys, malformed pairs and out-of-domain values are rejected.
// The empty string yields the defaults.
func ParseVideoStreamOptions(s string) (VideoStreamOptions, error) {
	const op = "parse_options"
	opts := NewVideoStreamOptions()
	if s == "" {
		return opts, nil
	}
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return opts, newError(KindInvalidArgument, op, "malformed option %q", pair)
		}
		switch key {
		case "ffmpeg_thread_count":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return opts, newError(KindInvalidArgument, op, "ffmpeg_thread_count must be a non-negative integer, got %q", value)
			}
			opts.ThreadCount = n
		case "shape":
			switch value {
			case "NHWC", "HWC":
				opts.Layout = LayoutNHWC
			case "NCHW", "CHW":
				opts.Layout = LayoutNCHW
			default:
				return opts, newError(KindInvalidArgument, op, "shape must be NHWC or NCHW, got %q", value)
			}
		case "width":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return opts, newError(KindInvalidArgument, op, "width must be a positive integer, got %q", value)
			}
			opts.Width = n
		case "height":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return opts, newError(KindInvalidArgument, op, "height must be a positive integer, got %q", value)
			}
			opts.Height = n
		default:
			return opts, newError(KindInvalidArgument, op, "unknown option %q", key)
		}
	}
	return opts, nil
}

// defaultIOBufferSize is the scratch buffer handed to the library when
// demuxing byte-slice inputs.
const defaultIOBufferSize = 1 << 20

type config struct {
	backend      codec.Backend
	logger       *log.Logger
	ioBufferSize int
	mp4Index     bool
}

// Option configures a Decoder at construction time.
type Option func(*config)

// WithBackend replaces the default FFmpeg backend. Useful for tests.
func WithBackend(b codec.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithLogger enables debug logging of seeks, scans and decode loops.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithIOBufferSize sets the scratch buffer handed to the library for
// byte-slice inputs. The default is 1 MiB.
func WithIOBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.ioBufferSize = n
		}
	}
}

// WithMP4Index builds the frame index from MP4 sample tables when the input
// is unfragmented MP4, skipping the packet-by-packet scan. Inputs that are
// not plain MP4 fall back to the scan transparently.
func WithMP4Index() Option {
	return func(c *config) { c.mp4Index = true }
}
