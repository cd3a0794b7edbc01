//go:build !ios && !android && (amd64 || arm64)

package ffmpeg

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/videodec/codec"
)

// scaler converts decoded frames to packed RGB24 through a small filter
// graph: buffer -> scale -> format -> buffersink.
type scaler struct {
	graph    unsafe.Pointer
	src      unsafe.Pointer
	sink     unsafe.Pointer
	filtered unsafe.Pointer // reused AVFrame for graph output
	width    int
	height   int
}

func newScaler(d *decoder, cfg codec.ScalerConfig) (*scaler, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("ffmpeg: scaler needs positive output dimensions")
	}
	if d.Width() <= 0 || d.Height() <= 0 {
		return nil, errors.New("ffmpeg: codec has no dimensions yet")
	}

	graphPtr := avfilterGraphAlloc()
	if graphPtr == 0 {
		return nil, errors.New("ffmpeg: failed to allocate filter graph")
	}
	s := &scaler{graph: unsafe.Pointer(graphPtr), width: cfg.Width, height: cfg.Height}

	sarNum, sarDen := d.sarNum, d.sarDen
	if sarNum <= 0 || sarDen <= 0 {
		sarNum, sarDen = 0, 1
	}
	srcArgs := fmt.Sprintf(
		"video_size=%dx%d:pix_fmt=%d:time_base=%d/%d:pixel_aspect=%d/%d",
		d.Width(), d.Height(),
		readInt32(d.ctx, offCodecCtxPixFmt),
		d.timeBase.Num, d.timeBase.Den,
		sarNum, sarDen,
	)

	src, err := s.createFilter("buffer", "in", srcArgs)
	if err != nil {
		s.Close()
		return nil, err
	}
	scale, err := s.createFilter("scale", "scale", fmt.Sprintf("%d:%d", cfg.Width, cfg.Height))
	if err != nil {
		s.Close()
		return nil, err
	}
	format, err := s.createFilter("format", "format", "pix_fmts=rgb24")
	if err != nil {
		s.Close()
		return nil, err
	}
	sink, err := s.createFilter("buffersink", "out", "")
	if err != nil {
		s.Close()
		return nil, err
	}

	links := []struct{ from, to unsafe.Pointer }{
		{src, scale}, {scale, format}, {format, sink},
	}
	for _, l := range links {
		if ret := avfilterLink(uintptr(l.from), 0, uintptr(l.to), 0); ret < 0 {
			s.Close()
			return nil, avError(ret, "avfilter_link")
		}
	}
	if ret := avfilterGraphConfig(uintptr(s.graph), 0); ret < 0 {
		s.Close()
		return nil, avError(ret, "avfilter_graph_config")
	}

	s.filtered = avFrameAlloc()
	if s.filtered == nil {
		s.Close()
		return nil, errors.New("ffmpeg: failed to allocate filtered frame")
	}
	s.src = src
	s.sink = sink
	return s, nil
}

func (s *scaler) createFilter(filterName, instanceName, args string) (unsafe.Pointer, error) {
	filt := avfilterGetByName(cString(filterName))
	if filt == 0 {
		return nil, fmt.Errorf("ffmpeg: filter %q not found", filterName)
	}
	var ctx unsafe.Pointer
	ret := avfilterGraphCreateFilter(
		&ctx,
		filt,
		uintptr(unsafe.Pointer(cString(instanceName))),
		uintptr(unsafe.Pointer(cString(args))),
		0,
		uintptr(s.graph),
	)
	if ret < 0 {
		return nil, avError(ret, "avfilter_graph_create_filter")
	}
	return ctx, nil
}

// Scale pushes one decoded frame through the graph and copies the RGB
// output into Go-owned memory.
func (s *scaler) Scale(fr *codec.Frame) (*codec.RGBImage, error) {
	raw, ok := fr.Handle.(unsafe.Pointer)
	if !ok || raw == nil {
		return nil, errors.New("ffmpeg: frame does not belong to this backend")
	}

	if ret := avBuffersrcAddFrameFlags(uintptr(s.src), uintptr(raw), buffersrcFlagKeepRef); ret < 0 {
		return nil, avError(ret, "av_buffersrc_add_frame_flags")
	}
	if ret := avBuffersinkGetFrame(uintptr(s.sink), uintptr(s.filtered)); ret < 0 {
		return nil, avError(ret, "av_buffersink_get_frame")
	}
	defer avFrameUnref(s.filtered)

	if format := readInt32(s.filtered, offFrameFormat); format != pixFmtRGB24 {
		return nil, fmt.Errorf("ffmpeg: filter graph produced pixel format %d, want rgb24", format)
	}
	width := int(readInt32(s.filtered, offFrameWidth))
	height := int(readInt32(s.filtered, offFrameHeight))
	stride := int(readInt32(s.filtered, offFrameLinesize))
	data := readPtr(s.filtered, offFrameData)
	if data == nil || width <= 0 || height <= 0 || stride < width*3 {
		return nil, errors.New("ffmpeg: filter graph produced a malformed frame")
	}

	pix := make([]byte, height*stride)
	copy(pix, unsafe.Slice((*byte)(data), height*stride))
	return &codec.RGBImage{
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    pix,
	}, nil
}

func (s *scaler) Close() error {
	if s.filtered != nil {
		avFrameFree(&s.filtered)
	}
	if s.graph != nil {
		avfilterGraphFree(&s.graph)
	}
	s.src = nil
	s.sink = nil
	return nil
}
