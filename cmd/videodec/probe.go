//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/obinnaokechukwu/videodec"
	"github.com/obinnaokechukwu/videodec/ffmpeg"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "print container and stream metadata",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit JSON metadata instead of a table",
			},
			&cli.IntFlag{
				Name:  "stream",
				Value: -1,
				Usage: "print metadata for one stream index",
			},
		},
		Action: runProbe,
	}
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("probe needs exactly one input file", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	opts := []videodec.Option{videodec.WithLogger(newLogger(c))}
	if cfg.MP4Index {
		opts = append(opts, videodec.WithMP4Index())
	}
	d, err := videodec.New(c.Args().First(), opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	if c.Bool("json") {
		if idx := c.Int("stream"); idx >= 0 {
			s, err := d.StreamJSONMetadata(idx)
			if err != nil {
				return err
			}
			fmt.Println(s)
			return nil
		}
		fmt.Println(d.ContainerJSONMetadata())
		fmt.Println(d.JSONMetadata())
		return nil
	}

	printProbeTable(d)
	return nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(22)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func styled(s lipgloss.Style, text string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return text
	}
	return s.Render(text)
}

func printProbeTable(d *videodec.Decoder) {
	m := d.Metadata()

	fmt.Println(styled(titleStyle, "Container"))
	printRow("streams", strconv.Itoa(len(m.Streams)))
	if m.DurationSeconds != nil {
		printRow("duration", fmt.Sprintf("%.3f s", *m.DurationSeconds))
	}
	if m.BitRate != nil {
		printRow("bit rate", fmt.Sprintf("%d b/s", *m.BitRate))
	}
	if m.BestVideoStreamIndex != nil {
		printRow("best video stream", strconv.Itoa(*m.BestVideoStreamIndex))
	}
	if m.BestAudioStreamIndex != nil {
		printRow("best audio stream", strconv.Itoa(*m.BestAudioStreamIndex))
	}

	for _, s := range m.Streams {
		fmt.Println(styled(titleStyle, fmt.Sprintf("Stream %d (%s)", s.StreamIndex, s.MediaType)))
		if s.CodecName != nil {
			printRow("codec", *s.CodecName)
		}
		if s.Width != nil && s.Height != nil {
			printRow("dimensions", fmt.Sprintf("%dx%d", *s.Width, *s.Height))
		}
		if s.AverageFPS != nil {
			printRow("average fps", fmt.Sprintf("%.3f", *s.AverageFPS))
		}
		if s.DurationSeconds != nil {
			printRow("duration", fmt.Sprintf("%.3f s", *s.DurationSeconds))
		}
		if s.NumFramesFromScan != nil {
			printRow("frames (scanned)", strconv.FormatInt(*s.NumFramesFromScan, 10))
		} else if s.NumFrames != nil {
			printRow("frames (header)", strconv.FormatInt(*s.NumFrames, 10))
		}
		if s.MinPTSSecondsFromScan != nil && s.MaxPTSSecondsFromScan != nil {
			printRow("pts range", fmt.Sprintf("%.3f .. %.3f s",
				*s.MinPTSSecondsFromScan, *s.MaxPTSSecondsFromScan))
		}
	}

	v := ffmpeg.Versions()
	fmt.Println(styled(dimStyle, fmt.Sprintf(
		"libavutil %s, libavcodec %s, libavformat %s, libavfilter %s",
		v.AVUtil, v.AVCodec, v.AVFormat, v.AVFilter)))
}

func printRow(key, value string) {
	fmt.Printf("  %s%s\n", styled(keyStyle, key), value)
}
