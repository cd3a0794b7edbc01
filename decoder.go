//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"bytes"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/obinnaokechukwu/videodec/codec"
	"github.com/obinnaokechukwu/videodec/ffmpeg"
)

// Decoder decodes video frames from a single container with exact-frame
// seeking. A Decoder is not safe for concurrent use.
type Decoder struct {
	backend   codec.Backend
	container codec.Container
	src       codec.Source
	buf       []byte
	logger    *log.Logger
	mp4Index  bool

	meta          ContainerMetadata
	streams       map[int]*streamState
	activeStreams []int

	// desiredPTS holds a pending seek target in seconds. It is consumed
	// by the next frame-producing call.
	desiredPTS *float64

	stats  DecodeStats
	closed bool
}

// frameInfo is one scanned frame position in stream time-base units.
type frameInfo struct {
	pts int64
}

type streamState struct {
	streamIndex int
	timeBase    codec.Rational

	dec       codec.Decoder
	scaler    codec.Scaler
	options   VideoStreamOptions
	outWidth  int
	outHeight int

	allFrames []frameInfo
	keyFrames []frameInfo

	// currentPTS and currentDuration track the last frame delivered to
	// the caller, in time-base units.
	currentPTS      int64
	currentDuration int64

	// discardFramesBeforePTS is the seek target: decoded frames below it
	// are dropped on the way to the desired position.
	discardFramesBeforePTS int64
}

func (st *streamState) active() bool { return st.dec != nil }

// DecodedOutput is one frame delivered to the caller.
type DecodedOutput struct {
	StreamIndex int
	MediaType   codec.MediaType

	// PTS is the presentation timestamp in stream time-base units;
	// PTSSeconds is the same instant in seconds.
	PTS        int64
	PTSSeconds float64

	Image Image
}

func newConfig(opts []Option) *config {
	cfg := &config{ioBufferSize: defaultIOBufferSize}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// New opens the media file at path and scans its frame index.
func New(path string, opts ...Option) (*Decoder, error) {
	const op = "open"
	if path == "" {
		return nil, newError(KindInvalidInput, op, "empty path")
	}
	return open(newConfig(opts), codec.Source{Path: path}, nil)
}

// NewFromBytes opens an in-memory media file. The decoder reads from data
// for its whole lifetime and never copies it.
func NewFromBytes(data []byte, opts ...Option) (*Decoder, error) {
	const op = "open"
	if len(data) == 0 {
		return nil, newError(KindInvalidInput, op, "empty input buffer")
	}
	cfg := newConfig(opts)
	src := codec.Source{Reader: bytes.NewReader(data), BufferSize: cfg.ioBufferSize}
	return open(cfg, src, data)
}

func open(cfg *config, src codec.Source, buf []byte) (*Decoder, error) {
	const op = "open"
	backend := cfg.backend
	if backend == nil {
		backend = ffmpeg.NewBackend()
	}
	container, err := backend.Open(src)
	if err != nil {
		return nil, wrapError(KindInvalidInput, op, err)
	}
	d := &Decoder{
		backend:   backend,
		container: container,
		src:       src,
		buf:       buf,
		logger:    cfg.logger,
		mp4Index:  cfg.mp4Index,
		streams:   make(map[int]*streamState),
	}
	if err := d.initMetadata(); err != nil {
		container.Close()
		return nil, err
	}
	if err := d.scan(); err != nil {
		container.Close()
		return nil, err
	}
	return d, nil
}

// initMetadata fills header-derived metadata for the container and every
// stream. Scan-derived fields are filled later by scan.
func (d *Decoder) initMetadata() error {
	const op = "open"
	n := d.container.NumStreams()
	d.meta = ContainerMetadata{Streams: make([]StreamMetadata, n)}

	if dur, ok := d.container.Duration(); ok {
		d.meta.DurationSeconds = ptrTo(dur)
	}
	if br, ok := d.container.BitRate(); ok {
		d.meta.BitRate = ptrTo(br)
	}

	for i := 0; i < n; i++ {
		h, err := d.container.Stream(i)
		if err != nil {
			return wrapError(KindInvalidInput, op, err)
		}
		sm := StreamMetadata{
			StreamIndex: i,
			MediaType:   h.MediaType,
			TimeBase:    h.TimeBase,
		}
		if h.CodecName != "" {
			sm.CodecName = ptrTo(h.CodecName)
		}
		if h.BitRate > 0 {
			sm.BitRate = ptrTo(h.BitRate)
		}
		if h.NumFrames > 0 {
			sm.NumFrames = ptrTo(h.NumFrames)
		}
		if h.Duration > 0 && h.TimeBase.Num > 0 && h.TimeBase.Den > 0 {
			sm.DurationSeconds = ptrTo(h.TimeBase.Float64() * float64(h.Duration))
		}
		if h.AverageFPS > 0 {
			sm.AverageFPS = ptrTo(h.AverageFPS)
		}
		if h.Width > 0 {
			sm.Width = ptrTo(h.Width)
		}
		if h.Height > 0 {
			sm.Height = ptrTo(h.Height)
		}
		switch h.MediaType {
		case codec.MediaTypeVideo:
			d.meta.NumVideoStreams++
		case codec.MediaTypeAudio:
			d.meta.NumAudioStreams++
		}
		d.meta.Streams[i] = sm
	}

	if best := d.container.BestStream(codec.MediaTypeVideo, -1); best >= 0 {
		d.meta.BestVideoStreamIndex = ptrTo(best)
	}
	if best := d.container.BestStream(codec.MediaTypeAudio, -1); best >= 0 {
		d.meta.BestAudioStreamIndex = ptrTo(best)
	}
	return nil
}

// streamState returns the per-stream state for idx, creating it on first
// use with the cursor parked before all representable timestamps.
func (d *Decoder) streamStateFor(idx int) *streamState {
	if st, ok := d.streams[idx]; ok {
		return st
	}
	st := &streamState{
		streamIndex:            idx,
		timeBase:               d.meta.Streams[idx].TimeBase,
		discardFramesBeforePTS: math.MinInt64,
	}
	d.streams[idx] = st
	return st
}

// AddVideoStream activates a video stream for decoding. The stream is
// chosen by opts.StreamIndex, or the container's best video stream when
// that is -1.
func (d *Decoder) AddVideoStream(opts VideoStreamOptions) error {
	const op = "add_video_stream"
	if opts.Width < 0 || opts.Height < 0 {
		return newError(KindInvalidArgument, op, "negative output dimensions %dx%d", opts.Width, opts.Height)
	}
	idx := d.container.BestStream(codec.MediaTypeVideo, opts.StreamIndex)
	if idx < 0 || idx >= len(d.meta.Streams) {
		return newError(KindInvalidArgument, op, "no video stream for index %d", opts.StreamIndex)
	}
	if d.meta.Streams[idx].MediaType != codec.MediaTypeVideo {
		return newError(KindInvalidArgument, op, "stream %d is %s, not video", idx, d.meta.Streams[idx].MediaType)
	}
	if st, ok := d.streams[idx]; ok && st.active() {
		return newError(KindInvalidArgument, op, "stream %d is already active", idx)
	}

	dec, err := d.container.OpenDecoder(idx, opts.ThreadCount)
	if err != nil {
		return wrapError(KindIO, op, err)
	}

	st := d.streamStateFor(idx)
	st.options = opts
	st.outWidth, st.outHeight = dec.Width(), dec.Height()
	if opts.Width > 0 && opts.Height > 0 {
		st.outWidth, st.outHeight = opts.Width, opts.Height
	}
	scaler, err := dec.NewScaler(codec.ScalerConfig{Width: st.outWidth, Height: st.outHeight})
	if err != nil {
		dec.Close()
		return wrapError(KindIO, op, err)
	}
	st.dec = dec
	st.scaler = scaler

	// The opened codec is authoritative for these fields.
	sm := &d.meta.Streams[idx]
	if name := dec.CodecName(); name != "" {
		sm.CodecName = ptrTo(name)
	}
	if w := dec.Width(); w > 0 {
		sm.Width = ptrTo(w)
	}
	if h := dec.Height(); h > 0 {
		sm.Height = ptrTo(h)
	}

	d.activeStreams = append(d.activeStreams, idx)
	sort.Ints(d.activeStreams)
	d.debugf("video stream activated", "stream", idx, "out", [2]int{st.outWidth, st.outHeight})
	return nil
}

// AddAudioStream is recognized but not implemented.
func (d *Decoder) AddAudioStream(streamIndex int) error {
	return newError(KindUnsupported, "add_audio_stream", "audio decoding is not supported")
}

// SeekToPTS records a seek target in seconds. The seek itself is deferred
// to the next frame-producing call, which may satisfy it without touching
// the demuxer when the target lies ahead in the current keyframe span.
func (d *Decoder) SeekToPTS(seconds float64) {
	s := seconds
	d.desiredPTS = &s
}

// NextFrame decodes and returns the first frame at or past the current
// position on any active stream.
func (d *Decoder) NextFrame() (DecodedOutput, error) {
	const op = "next_frame"
	out, err := d.decodeOutput(op, func(st *streamState, fr *codec.Frame) bool {
		return fr.PTS >= st.discardFramesBeforePTS
	})
	if err != nil {
		return DecodedOutput{}, err
	}
	if want := out.Image.Height * out.Image.Width * 3; len(out.Image.Pix) != want {
		return DecodedOutput{}, newError(KindInternal, op,
			"decoded image has %d bytes, want %d", len(out.Image.Pix), want)
	}
	return out, nil
}

// FrameAtPTS returns the frame displayed at the given time in seconds.
func (d *Decoder) FrameAtPTS(seconds float64) (DecodedOutput, error) {
	const op = "frame_at_pts"
	target := seconds

	// A target inside the frame most recently delivered rewinds to that
	// frame's start so the same frame is produced again.
	for _, idx := range d.activeStreams {
		st := d.streams[idx]
		den := float64(st.timeBase.Den)
		if den == 0 {
			continue
		}
		start := float64(st.currentPTS) / den
		end := float64(st.currentPTS+st.currentDuration) / den
		if target >= start && target < end {
			target = start
			break
		}
	}
	d.desiredPTS = &target

	return d.decodeOutput(op, func(st *streamState, fr *codec.Frame) bool {
		den := float64(st.timeBase.Den)
		if den == 0 {
			return false
		}
		start := float64(fr.PTS) / den
		end := float64(fr.PTS+fr.Duration) / den
		return target >= start && target < end
	})
}

// FrameAtIndex returns frame frameIndex of the given stream, counting
// scanned frames in presentation order from zero.
func (d *Decoder) FrameAtIndex(streamIndex, frameIndex int) (DecodedOutput, error) {
	const op = "frame_at_index"
	st, err := d.activeStream(op, streamIndex)
	if err != nil {
		return DecodedOutput{}, err
	}
	if frameIndex < 0 || frameIndex >= len(st.allFrames) {
		return DecodedOutput{}, newError(KindInvalidArgument, op,
			"frame index %d out of range [0, %d) for stream %d", frameIndex, len(st.allFrames), streamIndex)
	}
	if st.timeBase.Den == 0 {
		return DecodedOutput{}, newError(KindInternal, op, "stream %d has no time base", streamIndex)
	}
	seconds := float64(st.allFrames[frameIndex].pts) / float64(st.timeBase.Den)
	d.desiredPTS = &seconds

	return d.decodeOutput(op, func(st *streamState, fr *codec.Frame) bool {
		return fr.PTS >= st.discardFramesBeforePTS
	})
}

// FramesAtIndices decodes the listed frame indices into one contiguous
// batch, in the order given. Indices may repeat and need not be sorted.
func (d *Decoder) FramesAtIndices(streamIndex int, frameIndices []int) (Batch, error) {
	const op = "frames_at_indices"
	st, err := d.activeStream(op, streamIndex)
	if err != nil {
		return Batch{}, err
	}
	batch := newBatch(st.options.Layout, len(frameIndices), st.outHeight, st.outWidth)
	for slot, fi := range frameIndices {
		out, err := d.FrameAtIndex(streamIndex, fi)
		if err != nil {
			return Batch{}, err
		}
		copy(batch.Image(slot).Pix, out.Image.Pix)
	}
	return batch, nil
}

func (d *Decoder) activeStream(op string, streamIndex int) (*streamState, error) {
	if streamIndex < 0 || streamIndex >= len(d.meta.Streams) {
		return nil, newError(KindInvalidArgument, op,
			"stream index %d out of range [0, %d)", streamIndex, len(d.meta.Streams))
	}
	st, ok := d.streams[streamIndex]
	if !ok || !st.active() {
		return nil, newError(KindInvalidArgument, op, "stream %d is not active", streamIndex)
	}
	return st, nil
}

// Metadata returns a deep copy of the container metadata.
func (d *Decoder) Metadata() ContainerMetadata {
	return d.meta.clone()
}

// Stats returns the counters of the most recent frame-producing call.
func (d *Decoder) Stats() DecodeStats {
	return d.stats
}

// NumFrames returns the scanned frame count of a stream, or 0 when the
// stream index is unknown.
func (d *Decoder) NumFrames(streamIndex int) int {
	if st, ok := d.streams[streamIndex]; ok {
		return len(st.allFrames)
	}
	return 0
}

// Close releases all decoders and the container. Close is idempotent.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var firstErr error
	for _, idx := range d.activeStreams {
		st := d.streams[idx]
		if st.scaler != nil {
			if err := st.scaler.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			st.scaler = nil
		}
		if st.dec != nil {
			if err := st.dec.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			st.dec = nil
		}
	}
	if err := d.container.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return wrapError(KindIO, "close", firstErr)
	}
	return nil
}
