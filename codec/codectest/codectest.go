// Package codectest provides an in-memory codec.Backend with fully
// deterministic behavior. Containers are described by frame tables instead
// of real bitstreams, which lets engine tests exercise scanning, seeking,
// draining and conversion without shared libraries or media files.
package codectest

import (
	"errors"
	"sort"

	"github.com/obinnaokechukwu/videodec/codec"
)

// FrameSpec describes one packet/frame of a synthetic stream.
type FrameSpec struct {
	PTS      int64
	Duration int64
	Key      bool
	Discard  bool
}

// StreamSpec describes one synthetic stream.
type StreamSpec struct {
	MediaType  codec.MediaType
	CodecName  string
	TimeBase   codec.Rational
	Width      int
	Height     int
	BitRate    int64
	AverageFPS float64

	// Header values reported before any scan. Zero means "not reported".
	HeaderNumFrames int64
	HeaderDuration  int64

	Frames []FrameSpec
}

// Backend implements codec.Backend over synthetic stream tables.
type Backend struct {
	Streams         []StreamSpec
	DurationSeconds float64
	BitRate         int64

	// FailOpen makes Open return an error, for the invalid-input path.
	FailOpen bool
}

// Video builds a video StreamSpec of n frames at the given fps with a
// keyframe every keyInterval frames. Frame i has pts=i and duration=1 in a
// 1/fps time base.
func Video(n, fps, keyInterval, width, height int) StreamSpec {
	s := StreamSpec{
		MediaType:       codec.MediaTypeVideo,
		CodecName:       "h264",
		TimeBase:        codec.NewRational(1, int32(fps)),
		Width:           width,
		Height:          height,
		BitRate:         400_000,
		AverageFPS:      float64(fps),
		HeaderNumFrames: int64(n),
		HeaderDuration:  int64(n),
	}
	for i := 0; i < n; i++ {
		s.Frames = append(s.Frames, FrameSpec{
			PTS:      int64(i),
			Duration: 1,
			Key:      keyInterval > 0 && i%keyInterval == 0,
		})
	}
	return s
}

var errClosed = errors.New("codectest: container is closed")

// Open implements codec.Backend.
func (b *Backend) Open(src codec.Source) (codec.Container, error) {
	if b.FailOpen {
		return nil, errors.New("codectest: cannot open input")
	}
	c := &container{backend: b}
	c.buildPacketOrder()
	return c, nil
}

// packetRef addresses one frame of one stream in file order.
type packetRef struct {
	stream int
	frame  int
}

type container struct {
	backend *Backend
	packets []packetRef
	pos     int
	closed  bool
}

func (c *container) buildPacketOrder() {
	c.packets = c.packets[:0]
	for si, s := range c.backend.Streams {
		for fi := range s.Frames {
			c.packets = append(c.packets, packetRef{stream: si, frame: fi})
		}
	}
	// Frame tables are in decode order. Interleave streams by decode
	// position, not PTS, so out-of-order presentation times (B-frame
	// style) survive demuxing.
	sort.SliceStable(c.packets, func(i, j int) bool {
		pi, pj := c.packets[i], c.packets[j]
		ti := float64(pi.frame) * c.backend.Streams[pi.stream].TimeBase.Float64()
		tj := float64(pj.frame) * c.backend.Streams[pj.stream].TimeBase.Float64()
		if ti != tj {
			return ti < tj
		}
		return pi.stream < pj.stream
	})
}

func (c *container) NumStreams() int {
	return len(c.backend.Streams)
}

func (c *container) Stream(i int) (codec.StreamHeader, error) {
	if i < 0 || i >= len(c.backend.Streams) {
		return codec.StreamHeader{}, errors.New("codectest: stream index out of range")
	}
	s := c.backend.Streams[i]
	return codec.StreamHeader{
		Index:      i,
		MediaType:  s.MediaType,
		CodecName:  s.CodecName,
		BitRate:    s.BitRate,
		NumFrames:  s.HeaderNumFrames,
		Duration:   s.HeaderDuration,
		TimeBase:   s.TimeBase,
		AverageFPS: s.AverageFPS,
		Width:      s.Width,
		Height:     s.Height,
	}, nil
}

func (c *container) BestStream(media codec.MediaType, preferred int) int {
	if preferred >= 0 {
		if preferred < len(c.backend.Streams) {
			return preferred
		}
		return -1
	}
	for i, s := range c.backend.Streams {
		if s.MediaType == media {
			return i
		}
	}
	return -1
}

func (c *container) Duration() (float64, bool) {
	return c.backend.DurationSeconds, c.backend.DurationSeconds > 0
}

func (c *container) BitRate() (int64, bool) {
	return c.backend.BitRate, c.backend.BitRate > 0
}

func (c *container) ReadPacket(pkt *codec.Packet) error {
	if c.closed {
		return errClosed
	}
	if c.pos >= len(c.packets) {
		return codec.ErrEOF
	}
	ref := c.packets[c.pos]
	c.pos++
	fs := c.backend.Streams[ref.stream].Frames[ref.frame]
	*pkt = codec.Packet{
		StreamIndex: ref.stream,
		PTS:         fs.PTS,
		Duration:    fs.Duration,
		Keyframe:    fs.Key,
		Discard:     fs.Discard,
		Handle:      ref,
	}
	return nil
}

func (c *container) SeekFile(streamIndex int, minTS, ts, maxTS int64) error {
	if c.closed {
		return errClosed
	}
	if streamIndex < 0 || streamIndex >= len(c.backend.Streams) {
		return errors.New("codectest: seek on unknown stream")
	}
	s := c.backend.Streams[streamIndex]

	// Highest keyframe with pts <= ts, like avformat_seek_file with
	// max_ts == ts. Before the first keyframe we clamp to the start.
	target := -1
	for fi, fs := range s.Frames {
		if fs.Key && fs.PTS <= ts {
			target = fi
		}
	}
	if target < 0 {
		c.pos = 0
		return nil
	}
	want := packetRef{stream: streamIndex, frame: target}
	for i, ref := range c.packets {
		if ref == want {
			c.pos = i
			return nil
		}
	}
	return errors.New("codectest: seek target not in packet order")
}

func (c *container) IndexSearch(streamIndex int, ts int64) int {
	if streamIndex < 0 || streamIndex >= len(c.backend.Streams) {
		return -1
	}
	idx := -1
	n := 0
	for _, fs := range c.backend.Streams[streamIndex].Frames {
		if fs.Key {
			if fs.PTS <= ts {
				idx = n
			}
			n++
		}
	}
	return idx
}

func (c *container) OpenDecoder(streamIndex int, threadCount int) (codec.Decoder, error) {
	if streamIndex < 0 || streamIndex >= len(c.backend.Streams) {
		return nil, errors.New("codectest: decoder for unknown stream")
	}
	s := c.backend.Streams[streamIndex]
	return &decoder{spec: s, threadCount: threadCount}, nil
}

func (c *container) Close() error {
	c.closed = true
	return nil
}

// decoder replays packets as frames through a FIFO, reproducing the
// send/receive contract: receive before send reports ErrAgain, a nil send
// starts draining, and a drained queue reports ErrEOF.
type decoder struct {
	spec        StreamSpec
	threadCount int
	queue       []codec.Frame
	draining    bool
}

func (d *decoder) SendPacket(pkt *codec.Packet) error {
	if pkt == nil {
		d.draining = true
		return nil
	}
	if d.draining {
		return codec.ErrEOF
	}
	d.queue = append(d.queue, codec.Frame{
		PTS:      pkt.PTS,
		Duration: pkt.Duration,
		Handle:   pkt.PTS,
	})
	return nil
}

func (d *decoder) ReceiveFrame(fr *codec.Frame) error {
	if len(d.queue) == 0 {
		if d.draining {
			return codec.ErrEOF
		}
		return codec.ErrAgain
	}
	*fr = d.queue[0]
	d.queue = d.queue[1:]
	return nil
}

func (d *decoder) FlushBuffers() {
	d.queue = nil
	d.draining = false
}

func (d *decoder) CodecName() string { return d.spec.CodecName }
func (d *decoder) Width() int        { return d.spec.Width }
func (d *decoder) Height() int       { return d.spec.Height }

func (d *decoder) NewScaler(cfg codec.ScalerConfig) (codec.Scaler, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("codectest: scaler needs positive dimensions")
	}
	return &scaler{width: cfg.Width, height: cfg.Height}, nil
}

func (d *decoder) Close() error { return nil }

// stridePad is deliberate row padding so stride handling in the converter
// is exercised by every engine test.
const stridePad = 8

type scaler struct {
	width  int
	height int
}

// Scale produces a synthetic RGB image whose pixels encode the frame PTS
// and coordinates: R=pts, G=x, B=y (all mod 256). Padding bytes are filled
// with 0xEE so converter bugs show up as visible garbage.
func (s *scaler) Scale(fr *codec.Frame) (*codec.RGBImage, error) {
	if fr == nil {
		return nil, errors.New("codectest: nil frame")
	}
	stride := s.width*3 + stridePad
	pix := make([]byte, stride*s.height)
	for y := 0; y < s.height; y++ {
		row := pix[y*stride:]
		for x := 0; x < s.width; x++ {
			row[x*3+0] = byte(fr.PTS)
			row[x*3+1] = byte(x)
			row[x*3+2] = byte(y)
		}
		for p := s.width * 3; p < stride; p++ {
			row[p] = 0xEE
		}
	}
	return &codec.RGBImage{
		Width:  s.width,
		Height: s.height,
		Stride: stride,
		Pix:    pix,
	}, nil
}

func (s *scaler) Close() error { return nil }
