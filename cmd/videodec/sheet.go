//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/urfave/cli/v2"

	"github.com/obinnaokechukwu/videodec"
)

func sheetCommand() *cli.Command {
	return &cli.Command{
		Name:      "sheet",
		Usage:     "render a contact sheet of evenly spaced frames",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of frames on the sheet",
			},
			&cli.IntFlag{
				Name:  "columns",
				Usage: "grid columns",
			},
			&cli.IntFlag{
				Name:  "cell-width",
				Value: 320,
				Usage: "width of each cell in pixels",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "sheet.png",
				Usage:   "output PNG file",
			},
		},
		Action: runSheet,
	}
}

func runSheet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("sheet needs exactly one input file", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	count := c.Int("count")
	if count <= 0 {
		count = cfg.Count
	}
	columns := c.Int("columns")
	if columns <= 0 {
		columns = cfg.Columns
	}

	decOpts := []videodec.Option{videodec.WithLogger(newLogger(c))}
	if cfg.MP4Index {
		decOpts = append(decOpts, videodec.WithMP4Index())
	}
	d, err := videodec.New(c.Args().First(), decOpts...)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.AddVideoStream(videodec.NewVideoStreamOptions()); err != nil {
		return err
	}

	m := d.Metadata()
	if m.BestVideoStreamIndex == nil {
		return fmt.Errorf("no video stream")
	}
	stream := *m.BestVideoStreamIndex
	total := d.NumFrames(stream)
	if total == 0 {
		return fmt.Errorf("stream %d has no frames", stream)
	}
	if count > total {
		count = total
	}

	// Evenly spaced frame indices across the whole stream.
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i * total / count
	}

	cellW := c.Int("cell-width")
	rows := (count + columns - 1) / columns

	const pad = 8
	const labelH = 16

	var dc *gg.Context
	cellH := 0
	for slot, fi := range indices {
		out, err := d.FrameAtIndex(stream, fi)
		if err != nil {
			return err
		}
		img := toRGBA(out.Image)

		if dc == nil {
			cellH = cellW * out.Image.Height / out.Image.Width
			w := columns*(cellW+pad) + pad
			h := rows*(cellH+labelH+pad) + pad
			dc = gg.NewContext(w, h)
			dc.SetRGB(0.1, 0.1, 0.1)
			dc.Clear()
		}

		col := slot % columns
		row := slot / columns
		x := pad + col*(cellW+pad)
		y := pad + row*(cellH+labelH+pad)

		scaled := gg.NewContext(cellW, cellH)
		scaled.Scale(float64(cellW)/float64(out.Image.Width), float64(cellH)/float64(out.Image.Height))
		scaled.DrawImage(img, 0, 0)
		dc.DrawImage(scaled.Image(), x, y)

		dc.SetRGB(0.9, 0.9, 0.9)
		label := fmt.Sprintf("#%d  %.3fs", fi, out.PTSSeconds)
		dc.DrawString(label, float64(x), float64(y+cellH+labelH-4))
	}

	if err := dc.SavePNG(c.String("out")); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames)\n", c.String("out"), count)
	return nil
}
