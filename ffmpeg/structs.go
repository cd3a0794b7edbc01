//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"math"
	"unsafe"
)

// Struct field offsets for FFmpeg 6.x on 64-bit platforms. These layouts
// are ABI-stable within a major version; the enclosing fields are part of
// the public headers.

// AVFormatContext
const (
	offFmtCtxPB        = 32 // AVIOContext *pb
	offFmtCtxNbStreams = 44 // unsigned int nb_streams
	offFmtCtxStreams   = 48 // AVStream **streams
	offFmtCtxDuration  = 72 // int64_t duration, in AV_TIME_BASE units
	offFmtCtxBitRate   = 80 // int64_t bit_rate
	offFmtCtxFlags     = 96 // int flags
)

// AVStream
const (
	offStreamIndex        = 8  // int index
	offStreamCodecPar     = 16 // AVCodecParameters *codecpar
	offStreamTimeBase     = 32 // AVRational time_base
	offStreamDuration     = 48 // int64_t duration, in time_base units
	offStreamNbFrames     = 56 // int64_t nb_frames
	offStreamAvgFrameRate = 88 // AVRational avg_frame_rate
)

// AVCodecParameters
const (
	offParCodecType = 0  // enum AVMediaType
	offParCodecID   = 4  // enum AVCodecID
	offParBitRate   = 32 // int64_t bit_rate
	offParWidth     = 56 // int width
	offParHeight    = 60 // int height
	offParSAR       = 64 // AVRational sample_aspect_ratio
)

// AVPacket
const (
	offPktPTS         = 8  // int64_t pts
	offPktStreamIndex = 36 // int stream_index
	offPktFlags       = 40 // int flags
	offPktDuration    = 64 // int64_t duration
)

// AVCodecContext
const (
	offCodecCtxWidth  = 116 // int width
	offCodecCtxHeight = 120 // int height
	offCodecCtxPixFmt = 136 // enum AVPixelFormat pix_fmt
)

// AVFrame
const (
	offFrameData     = 0   // uint8_t *data[8]
	offFrameLinesize = 64  // int linesize[8]
	offFrameWidth    = 104 // int width
	offFrameHeight   = 108 // int height
	offFrameFormat   = 116 // int format
	offFramePTS      = 136 // int64_t pts
	offFrameDuration = 472 // int64_t duration
)

// AVIOContext
const (
	offIOCtxBuffer = 8 // unsigned char *buffer
)

const (
	avTimeBase = 1_000_000
	avNoPTS    = int64(math.MinInt64) // AV_NOPTS_VALUE

	avfmtFlagCustomIO  = 0x0080
	avseekFlagBackward = 1
	avseekSize         = 0x10000

	pktFlagKey     = 0x0001
	pktFlagDiscard = 0x0004

	pixFmtRGB24 = 2

	buffersrcFlagKeepRef = 8
)

func readInt32(p unsafe.Pointer, off uintptr) int32 {
	return *(*int32)(unsafe.Add(p, off))
}

func readUint32(p unsafe.Pointer, off uintptr) uint32 {
	return *(*uint32)(unsafe.Add(p, off))
}

func readInt64(p unsafe.Pointer, off uintptr) int64 {
	return *(*int64)(unsafe.Add(p, off))
}

func readPtr(p unsafe.Pointer, off uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Add(p, off))
}

func writeInt32(p unsafe.Pointer, off uintptr, v int32) {
	*(*int32)(unsafe.Add(p, off)) = v
}

func writePtr(p unsafe.Pointer, off uintptr, v unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Add(p, off)) = v
}

// readRational reads an AVRational (two packed int32s).
func readRational(p unsafe.Pointer, off uintptr) (num, den int32) {
	return readInt32(p, off), readInt32(p, off+4)
}

// streamPtr returns the AVStream pointer for stream i.
func streamPtr(fmtCtx unsafe.Pointer, i int) unsafe.Pointer {
	streams := readPtr(fmtCtx, offFmtCtxStreams)
	if streams == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(streams, uintptr(i)*unsafe.Sizeof(uintptr(0))))
}
