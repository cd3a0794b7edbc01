//go:build !ios && !android && (amd64 || arm64)

package videodec

// Layout selects the memory order of decoded pixel data.
type Layout int

const (
	// LayoutNHWC stores pixels row by row with interleaved channels:
	// index = y*width*3 + x*3 + c. This is the default.
	LayoutNHWC Layout = iota

	// LayoutNCHW stores three contiguous planes, one per channel:
	// index = c*height*width + y*width + x.
	LayoutNCHW
)

// String returns the conventional name of the layout.
func (l Layout) String() string {
	if l == LayoutNCHW {
		return "NCHW"
	}
	return "NHWC"
}

// Image is one decoded frame as tightly packed 8-bit RGB.
type Image struct {
	Layout Layout
	Height int
	Width  int

	// Pix holds exactly Height*Width*3 bytes in the order given by Layout.
	Pix []uint8
}

// Shape returns the dimensions of the pixel data in storage order:
// [H, W, 3] for NHWC and [3, H, W] for NCHW.
func (im Image) Shape() [3]int {
	if im.Layout == LayoutNCHW {
		return [3]int{3, im.Height, im.Width}
	}
	return [3]int{im.Height, im.Width, 3}
}

// At returns the value of channel c at pixel (x, y) regardless of layout.
func (im Image) At(x, y, c int) uint8 {
	if im.Layout == LayoutNCHW {
		return im.Pix[c*im.Height*im.Width+y*im.Width+x]
	}
	return im.Pix[(y*im.Width+x)*3+c]
}

// Batch is a stack of same-sized images in one contiguous buffer.
type Batch struct {
	Layout Layout
	N      int
	Height int
	Width  int

	// Pix holds N*Height*Width*3 bytes; image i occupies the i-th slot.
	Pix []uint8
}

// Shape returns the batch dimensions in storage order: [N, H, W, 3] for
// NHWC and [N, 3, H, W] for NCHW.
func (b Batch) Shape() [4]int {
	if b.Layout == LayoutNCHW {
		return [4]int{b.N, 3, b.Height, b.Width}
	}
	return [4]int{b.N, b.Height, b.Width, 3}
}

// Image returns a view of slot i sharing the batch's backing array.
func (b Batch) Image(i int) Image {
	size := b.Height * b.Width * 3
	return Image{
		Layout: b.Layout,
		Height: b.Height,
		Width:  b.Width,
		Pix:    b.Pix[i*size : (i+1)*size : (i+1)*size],
	}
}

func newBatch(layout Layout, n, height, width int) Batch {
	return Batch{
		Layout: layout,
		N:      n,
		Height: height,
		Width:  width,
		Pix:    make([]uint8, n*height*width*3),
	}
}
