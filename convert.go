//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"github.com/obinnaokechukwu/videodec/codec"
)

// convertFrame scales the decoded frame to RGB and repacks it into a
// tightly packed Image in the stream's configured layout.
func (d *Decoder) convertFrame(op string, st *streamState, fr *codec.Frame) (DecodedOutput, error) {
	img, err := st.scaler.Scale(fr)
	if err != nil {
		return DecodedOutput{}, wrapError(KindIO, op, err)
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) < img.Height*img.Stride {
		return DecodedOutput{}, newError(KindInternal, op,
			"scaler produced a malformed %dx%d image", img.Width, img.Height)
	}

	out := Image{
		Layout: st.options.Layout,
		Height: img.Height,
		Width:  img.Width,
		Pix:    make([]uint8, img.Height*img.Width*3),
	}
	if out.Layout == LayoutNCHW {
		repackCHW(out.Pix, img)
	} else {
		repackHWC(out.Pix, img)
	}

	var seconds float64
	if st.timeBase.Den != 0 {
		seconds = float64(fr.PTS) / float64(st.timeBase.Den)
	}
	return DecodedOutput{
		StreamIndex: st.streamIndex,
		MediaType:   d.meta.Streams[st.streamIndex].MediaType,
		PTS:         fr.PTS,
		PTSSeconds:  seconds,
		Image:       out,
	}, nil
}

// repackHWC strips the row stride, leaving interleaved RGB rows.
func repackHWC(dst []uint8, img *codec.RGBImage) {
	rowBytes := img.Width * 3
	for y := 0; y < img.Height; y++ {
		copy(dst[y*rowBytes:(y+1)*rowBytes], img.Pix[y*img.Stride:y*img.Stride+rowBytes])
	}
}

// repackCHW splits interleaved RGB into three contiguous planes.
func repackCHW(dst []uint8, img *codec.RGBImage) {
	plane := img.Height * img.Width
	for y := 0; y < img.Height; y++ {
		row := img.Pix[y*img.Stride:]
		base := y * img.Width
		for x := 0; x < img.Width; x++ {
			dst[base+x] = row[x*3+0]
			dst[plane+base+x] = row[x*3+1]
			dst[2*plane+base+x] = row[x*3+2]
		}
	}
}
