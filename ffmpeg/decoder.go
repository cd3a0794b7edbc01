//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"errors"
	"unsafe"

	"github.com/obinnaokechukwu/videodec/codec"
)

// decoder implements codec.Decoder over an AVCodecContext.
type decoder struct {
	ctx     unsafe.Pointer
	frame   unsafe.Pointer // reused AVFrame
	codecID int32

	// Inherited from the stream; the filter graph needs them.
	timeBase codec.Rational
	sarNum   int32
	sarDen   int32
}

func openDecoder(st, par unsafe.Pointer, threadCount int) (*decoder, error) {
	codecID := readInt32(par, offParCodecID)
	avCodec := avcodecFindDecoder(codecID)
	if avCodec == nil {
		return nil, errors.New("ffmpeg: no decoder for codec " + avcodecGetName(codecID))
	}

	ctx := avcodecAllocContext3(avCodec)
	if ctx == nil {
		return nil, errors.New("ffmpeg: failed to allocate codec context")
	}
	if ret := avcodecParametersToContext(ctx, par); ret < 0 {
		avcodecFreeContext(&ctx)
		return nil, avError(ret, "avcodec_parameters_to_context")
	}
	if threadCount > 0 {
		if ret := avOptSetInt(ctx, "threads", int64(threadCount), 0); ret < 0 {
			avcodecFreeContext(&ctx)
			return nil, avError(ret, "av_opt_set_int")
		}
	}
	if ret := avcodecOpen2(ctx, avCodec, nil); ret < 0 {
		avcodecFreeContext(&ctx)
		return nil, avError(ret, "avcodec_open2")
	}

	frame := avFrameAlloc()
	if frame == nil {
		avcodecFreeContext(&ctx)
		return nil, errors.New("ffmpeg: failed to allocate frame")
	}

	tbNum, tbDen := readRational(st, offStreamTimeBase)
	sarNum, sarDen := readRational(par, offParSAR)
	return &decoder{
		ctx:      ctx,
		frame:    frame,
		codecID:  codecID,
		timeBase: codec.NewRational(tbNum, tbDen),
		sarNum:   sarNum,
		sarDen:   sarDen,
	}, nil
}

func (d *decoder) SendPacket(pkt *codec.Packet) error {
	var raw unsafe.Pointer
	if pkt != nil {
		p, ok := pkt.Handle.(unsafe.Pointer)
		if !ok {
			return errors.New("ffmpeg: packet does not belong to this backend")
		}
		raw = p
	}
	if ret := avcodecSendPacket(d.ctx, raw); ret < 0 {
		return avError(ret, "avcodec_send_packet")
	}
	return nil
}

func (d *decoder) ReceiveFrame(fr *codec.Frame) error {
	// avcodec_receive_frame unrefs the frame before filling it.
	if ret := avcodecReceiveFrame(d.ctx, d.frame); ret < 0 {
		return avError(ret, "avcodec_receive_frame")
	}
	*fr = codec.Frame{
		PTS:      readInt64(d.frame, offFramePTS),
		Duration: readInt64(d.frame, offFrameDuration),
		Handle:   d.frame,
	}
	return nil
}

func (d *decoder) FlushBuffers() {
	avcodecFlushBuffers(d.ctx)
}

func (d *decoder) CodecName() string {
	return avcodecGetName(d.codecID)
}

func (d *decoder) Width() int {
	return int(readInt32(d.ctx, offCodecCtxWidth))
}

func (d *decoder) Height() int {
	return int(readInt32(d.ctx, offCodecCtxHeight))
}

func (d *decoder) NewScaler(cfg codec.ScalerConfig) (codec.Scaler, error) {
	return newScaler(d, cfg)
}

func (d *decoder) Close() error {
	if d.frame != nil {
		avFrameFree(&d.frame)
	}
	if d.ctx != nil {
		avcodecFreeContext(&d.ctx)
	}
	return nil
}
