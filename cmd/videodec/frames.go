//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"

	"github.com/obinnaokechukwu/videodec"
)

func framesCommand() *cli.Command {
	return &cli.Command{
		Name:      "frames",
		Usage:     "extract frames to image files",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "indices",
				Aliases: []string{"i"},
				Usage:   "comma-separated frame indices, e.g. 0,25,50",
			},
			&cli.StringFlag{
				Name:  "pts",
				Usage: "comma-separated timestamps in seconds, e.g. 0.0,1.5",
			},
			&cli.IntFlag{
				Name:  "stream",
				Value: -1,
				Usage: "video stream index (-1 means the best stream)",
			},
			&cli.StringFlag{
				Name:  "options",
				Usage: "stream options, e.g. width=320,height=240,shape=NCHW",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "output directory",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "image format: png or bmp",
			},
		},
		Action: runFrames,
	}
}

func runFrames(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("frames needs exactly one input file", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	format := c.String("format")
	if format == "" {
		format = cfg.Format
	}
	if format != "png" && format != "bmp" {
		return fmt.Errorf("unknown image format %q", format)
	}

	optionString := c.String("options")
	if optionString == "" {
		optionString = cfg.Options
	}
	streamOpts, err := videodec.ParseVideoStreamOptions(optionString)
	if err != nil {
		return err
	}
	streamOpts.StreamIndex = c.Int("stream")

	decOpts := []videodec.Option{videodec.WithLogger(newLogger(c))}
	if cfg.MP4Index {
		decOpts = append(decOpts, videodec.WithMP4Index())
	}
	d, err := videodec.New(c.Args().First(), decOpts...)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.AddVideoStream(streamOpts); err != nil {
		return err
	}

	outputs, err := collectFrames(c, d)
	if err != nil {
		return err
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	// Decoding is sequential; encoding the image files is not.
	var g errgroup.Group
	for _, out := range outputs {
		name := fmt.Sprintf("frame_%06.3fs.%s", out.PTSSeconds, format)
		path := filepath.Join(outDir, name)
		img := toRGBA(out.Image)
		g.Go(func() error {
			return writeImage(path, img, format)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("wrote %d frames to %s\n", len(outputs), outDir)
	return nil
}

func collectFrames(c *cli.Context, d *videodec.Decoder) ([]videodec.DecodedOutput, error) {
	var outputs []videodec.DecodedOutput

	if spec := c.String("indices"); spec != "" {
		indices, err := parseInts(spec)
		if err != nil {
			return nil, err
		}
		stream := activeStreamIndex(c, d)
		for _, idx := range indices {
			out, err := d.FrameAtIndex(stream, idx)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out)
		}
		return outputs, nil
	}

	if spec := c.String("pts"); spec != "" {
		stamps, err := parseFloats(spec)
		if err != nil {
			return nil, err
		}
		for _, ts := range stamps {
			out, err := d.FrameAtPTS(ts)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out)
		}
		return outputs, nil
	}

	out, err := d.NextFrame()
	if err != nil {
		return nil, err
	}
	return []videodec.DecodedOutput{out}, nil
}

// activeStreamIndex resolves the stream the frames come from when indices
// are addressed per stream.
func activeStreamIndex(c *cli.Context, d *videodec.Decoder) int {
	if idx := c.Int("stream"); idx >= 0 {
		return idx
	}
	m := d.Metadata()
	if m.BestVideoStreamIndex != nil {
		return *m.BestVideoStreamIndex
	}
	return 0
}

func writeImage(path string, img *image.RGBA, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch format {
	case "bmp":
		err = bmp.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// toRGBA converts a decoded image, in either layout, to an image.RGBA.
func toRGBA(im videodec.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			o := out.PixOffset(x, y)
			out.Pix[o+0] = im.At(x, y, 0)
			out.Pix[o+1] = im.At(x, y, 1)
			out.Pix[o+2] = im.At(x, y, 2)
			out.Pix[o+3] = 0xFF
		}
	}
	return out
}

func parseInts(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad index %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseFloats(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}
