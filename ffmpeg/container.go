//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"errors"
	"unsafe"

	"github.com/obinnaokechukwu/videodec/codec"
)

// container implements codec.Container over an AVFormatContext.
type container struct {
	ctx unsafe.Pointer
	io  *ioContext     // non-nil for reader-backed sources
	pkt unsafe.Pointer // reused AVPacket
}

func openContainer(src codec.Source) (*container, error) {
	if (src.Path == "") == (src.Reader == nil) {
		return nil, errors.New("ffmpeg: exactly one of Path and Reader must be set")
	}

	c := &container{}
	var err error
	if src.Reader != nil {
		err = c.openCustomIO(src)
	} else {
		err = c.openPath(src.Path)
	}
	if err != nil {
		return nil, err
	}

	if ret := avformatFindStreamInfo(c.ctx, nil); ret < 0 {
		c.Close()
		return nil, avError(ret, "avformat_find_stream_info")
	}

	c.pkt = avPacketAlloc()
	if c.pkt == nil {
		c.Close()
		return nil, errors.New("ffmpeg: failed to allocate packet")
	}
	return c, nil
}

func (c *container) openPath(path string) error {
	ret := avformatOpenInput(&c.ctx, path, nil, nil)
	if ret < 0 {
		return avError(ret, "avformat_open_input")
	}
	return nil
}

func (c *container) openCustomIO(src codec.Source) error {
	bufferSize := src.BufferSize
	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	ioCtx, err := newIOContext(src.Reader, bufferSize)
	if err != nil {
		return err
	}

	c.ctx = avformatAllocContext()
	if c.ctx == nil {
		ioCtx.Close()
		return errors.New("ffmpeg: failed to allocate format context")
	}
	writePtr(c.ctx, offFmtCtxPB, ioCtx.avio)
	writeInt32(c.ctx, offFmtCtxFlags, readInt32(c.ctx, offFmtCtxFlags)|avfmtFlagCustomIO)

	// On failure avformat_open_input frees the context but not the
	// caller's AVIOContext.
	if ret := avformatOpenInput(&c.ctx, "", nil, nil); ret < 0 {
		ioCtx.Close()
		return avError(ret, "avformat_open_input")
	}
	c.io = ioCtx
	return nil
}

func (c *container) NumStreams() int {
	if c.ctx == nil {
		return 0
	}
	return int(readUint32(c.ctx, offFmtCtxNbStreams))
}

func (c *container) Stream(i int) (codec.StreamHeader, error) {
	if i < 0 || i >= c.NumStreams() {
		return codec.StreamHeader{}, errors.New("ffmpeg: stream index out of range")
	}
	st := streamPtr(c.ctx, i)
	if st == nil {
		return codec.StreamHeader{}, errors.New("ffmpeg: nil stream")
	}
	par := readPtr(st, offStreamCodecPar)
	if par == nil {
		return codec.StreamHeader{}, errors.New("ffmpeg: stream has no codec parameters")
	}

	tbNum, tbDen := readRational(st, offStreamTimeBase)
	fpsNum, fpsDen := readRational(st, offStreamAvgFrameRate)

	h := codec.StreamHeader{
		Index:     i,
		MediaType: codec.MediaType(readInt32(par, offParCodecType)),
		CodecName: avcodecGetName(readInt32(par, offParCodecID)),
		BitRate:   readInt64(par, offParBitRate),
		NumFrames: readInt64(st, offStreamNbFrames),
		TimeBase:  codec.NewRational(tbNum, tbDen),
		Width:     int(readInt32(par, offParWidth)),
		Height:    int(readInt32(par, offParHeight)),
	}
	if dur := readInt64(st, offStreamDuration); dur != avNoPTS {
		h.Duration = dur
	}
	if fpsDen != 0 {
		h.AverageFPS = float64(fpsNum) / float64(fpsDen)
	}
	return h, nil
}

func (c *container) BestStream(media codec.MediaType, preferred int) int {
	ret := avFindBestStream(c.ctx, int32(media), int32(preferred), -1, nil, 0)
	if ret < 0 {
		return -1
	}
	return int(ret)
}

func (c *container) Duration() (float64, bool) {
	dur := readInt64(c.ctx, offFmtCtxDuration)
	if dur == avNoPTS || dur <= 0 {
		return 0, false
	}
	return float64(dur) / avTimeBase, true
}

func (c *container) BitRate() (int64, bool) {
	br := readInt64(c.ctx, offFmtCtxBitRate)
	return br, br > 0
}

func (c *container) ReadPacket(pkt *codec.Packet) error {
	avPacketUnref(c.pkt)
	if ret := avReadFrame(c.ctx, c.pkt); ret < 0 {
		return avError(ret, "av_read_frame")
	}
	flags := readInt32(c.pkt, offPktFlags)
	*pkt = codec.Packet{
		StreamIndex: int(readInt32(c.pkt, offPktStreamIndex)),
		PTS:         readInt64(c.pkt, offPktPTS),
		Duration:    readInt64(c.pkt, offPktDuration),
		Keyframe:    flags&pktFlagKey != 0,
		Discard:     flags&pktFlagDiscard != 0,
		Handle:      c.pkt,
	}
	return nil
}

func (c *container) SeekFile(streamIndex int, minTS, ts, maxTS int64) error {
	ret := avformatSeekFile(c.ctx, int32(streamIndex), minTS, ts, maxTS, 0)
	if ret < 0 {
		return avError(ret, "avformat_seek_file")
	}
	return nil
}

func (c *container) IndexSearch(streamIndex int, ts int64) int {
	st := streamPtr(c.ctx, streamIndex)
	if st == nil {
		return -1
	}
	return int(avIndexSearchTimestamp(st, ts, avseekFlagBackward))
}

func (c *container) OpenDecoder(streamIndex int, threadCount int) (codec.Decoder, error) {
	if streamIndex < 0 || streamIndex >= c.NumStreams() {
		return nil, errors.New("ffmpeg: stream index out of range")
	}
	st := streamPtr(c.ctx, streamIndex)
	par := readPtr(st, offStreamCodecPar)
	if par == nil {
		return nil, errors.New("ffmpeg: stream has no codec parameters")
	}
	return openDecoder(st, par, threadCount)
}

func (c *container) Close() error {
	if c.pkt != nil {
		avPacketFree(&c.pkt)
	}
	if c.ctx != nil {
		avformatCloseInput(&c.ctx)
	}
	if c.io != nil {
		c.io.Close()
		c.io = nil
	}
	return nil
}
