//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/videodec/internal/bindings"
)

// Function bindings, registered once after the libraries load.
var (
	// avformat
	avformatOpenInput      func(ctx *unsafe.Pointer, url string, inputFmt, options unsafe.Pointer) int32
	avformatCloseInput     func(ctx *unsafe.Pointer)
	avformatFindStreamInfo func(ctx unsafe.Pointer, options *unsafe.Pointer) int32
	avformatAllocContext   func() unsafe.Pointer
	avformatFreeContext    func(ctx unsafe.Pointer)
	avformatSeekFile       func(ctx unsafe.Pointer, streamIndex int32, minTS, ts, maxTS int64, flags int32) int32
	avReadFrame            func(ctx, pkt unsafe.Pointer) int32
	avFindBestStream       func(ctx unsafe.Pointer, mediaType, wanted, related int32, decoder *unsafe.Pointer, flags int32) int32
	avIndexSearchTimestamp func(stream unsafe.Pointer, timestamp int64, flags int32) int32
	avioAllocContext       func(buffer unsafe.Pointer, bufferSize, writeFlag int32, opaque unsafe.Pointer, read, write, seek uintptr) unsafe.Pointer
	avioContextFree        func(ctx *unsafe.Pointer)

	// avcodec
	avcodecFindDecoder         func(id int32) unsafe.Pointer
	avcodecGetName             func(id int32) string
	avcodecAllocContext3       func(c unsafe.Pointer) unsafe.Pointer
	avcodecFreeContext         func(ctx *unsafe.Pointer)
	avcodecParametersToContext func(ctx, par unsafe.Pointer) int32
	avcodecOpen2               func(ctx, c unsafe.Pointer, options *unsafe.Pointer) int32
	avcodecSendPacket          func(ctx, pkt unsafe.Pointer) int32
	avcodecReceiveFrame        func(ctx, frame unsafe.Pointer) int32
	avcodecFlushBuffers        func(ctx unsafe.Pointer)
	avPacketAlloc              func() unsafe.Pointer
	avPacketFree               func(pkt *unsafe.Pointer)
	avPacketUnref              func(pkt unsafe.Pointer)

	// avutil
	avFrameAlloc func() unsafe.Pointer
	avFrameFree  func(frame *unsafe.Pointer)
	avFrameUnref func(frame unsafe.Pointer)
	avStrerror   func(code int32, buf *byte, bufSize uintptr) int32
	avMalloc     func(size uintptr) unsafe.Pointer
	avFree       func(ptr unsafe.Pointer)
	avOptSetInt  func(obj unsafe.Pointer, name string, value int64, searchFlags int32) int32

	// avfilter
	avfilterGetByName         func(name *byte) uintptr
	avfilterGraphAlloc        func() uintptr
	avfilterGraphFree         func(graph *unsafe.Pointer)
	avfilterGraphCreateFilter func(filtCtx *unsafe.Pointer, filt, name, args, opaque, graph uintptr) int32
	avfilterLink              func(src uintptr, srcPad uint32, dst uintptr, dstPad uint32) int32
	avfilterGraphConfig       func(graph, logCtx uintptr) int32
	avBuffersrcAddFrameFlags  func(ctx, frame uintptr, flags int32) int32
	avBuffersinkGetFrame      func(ctx, frame uintptr) int32

	bindingsRegistered bool
)

func init() {
	if bindings.Load() == nil {
		registerBindings()
	}
}

func registerBindings() {
	if bindingsRegistered {
		return
	}

	libFormat := bindings.LibAVFormat()
	libCodec := bindings.LibAVCodec()
	libUtil := bindings.LibAVUtil()
	libFilter := bindings.LibAVFilter()
	if libFormat == 0 || libCodec == 0 || libUtil == 0 || libFilter == 0 {
		return
	}

	purego.RegisterLibFunc(&avformatOpenInput, libFormat, "avformat_open_input")
	purego.RegisterLibFunc(&avformatCloseInput, libFormat, "avformat_close_input")
	purego.RegisterLibFunc(&avformatFindStreamInfo, libFormat, "avformat_find_stream_info")
	purego.RegisterLibFunc(&avformatAllocContext, libFormat, "avformat_alloc_context")
	purego.RegisterLibFunc(&avformatFreeContext, libFormat, "avformat_free_context")
	purego.RegisterLibFunc(&avformatSeekFile, libFormat, "avformat_seek_file")
	purego.RegisterLibFunc(&avReadFrame, libFormat, "av_read_frame")
	purego.RegisterLibFunc(&avFindBestStream, libFormat, "av_find_best_stream")
	purego.RegisterLibFunc(&avIndexSearchTimestamp, libFormat, "av_index_search_timestamp")
	purego.RegisterLibFunc(&avioAllocContext, libFormat, "avio_alloc_context")
	purego.RegisterLibFunc(&avioContextFree, libFormat, "avio_context_free")

	purego.RegisterLibFunc(&avcodecFindDecoder, libCodec, "avcodec_find_decoder")
	purego.RegisterLibFunc(&avcodecGetName, libCodec, "avcodec_get_name")
	purego.RegisterLibFunc(&avcodecAllocContext3, libCodec, "avcodec_alloc_context3")
	purego.RegisterLibFunc(&avcodecFreeContext, libCodec, "avcodec_free_context")
	purego.RegisterLibFunc(&avcodecParametersToContext, libCodec, "avcodec_parameters_to_context")
	purego.RegisterLibFunc(&avcodecOpen2, libCodec, "avcodec_open2")
	purego.RegisterLibFunc(&avcodecSendPacket, libCodec, "avcodec_send_packet")
	purego.RegisterLibFunc(&avcodecReceiveFrame, libCodec, "avcodec_receive_frame")
	purego.RegisterLibFunc(&avcodecFlushBuffers, libCodec, "avcodec_flush_buffers")
	purego.RegisterLibFunc(&avPacketAlloc, libCodec, "av_packet_alloc")
	purego.RegisterLibFunc(&avPacketFree, libCodec, "av_packet_free")
	purego.RegisterLibFunc(&avPacketUnref, libCodec, "av_packet_unref")

	purego.RegisterLibFunc(&avFrameAlloc, libUtil, "av_frame_alloc")
	purego.RegisterLibFunc(&avFrameFree, libUtil, "av_frame_free")
	purego.RegisterLibFunc(&avFrameUnref, libUtil, "av_frame_unref")
	purego.RegisterLibFunc(&avStrerror, libUtil, "av_strerror")
	purego.RegisterLibFunc(&avMalloc, libUtil, "av_malloc")
	purego.RegisterLibFunc(&avFree, libUtil, "av_free")
	purego.RegisterLibFunc(&avOptSetInt, libUtil, "av_opt_set_int")

	purego.RegisterLibFunc(&avfilterGetByName, libFilter, "avfilter_get_by_name")
	purego.RegisterLibFunc(&avfilterGraphAlloc, libFilter, "avfilter_graph_alloc")
	purego.RegisterLibFunc(&avfilterGraphFree, libFilter, "avfilter_graph_free")
	purego.RegisterLibFunc(&avfilterGraphCreateFilter, libFilter, "avfilter_graph_create_filter")
	purego.RegisterLibFunc(&avfilterLink, libFilter, "avfilter_link")
	purego.RegisterLibFunc(&avfilterGraphConfig, libFilter, "avfilter_graph_config")
	purego.RegisterLibFunc(&avBuffersrcAddFrameFlags, libFilter, "av_buffersrc_add_frame_flags")
	purego.RegisterLibFunc(&avBuffersinkGetFrame, libFilter, "av_buffersink_get_frame")

	bindingsRegistered = true
}

// cString converts a Go string to a null-terminated C string.
func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := append([]byte(s), 0)
	return &b[0]
}
