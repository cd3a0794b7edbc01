//go:build !ios && !android && (amd64 || arm64)

// Command videodec inspects video files and extracts frames using the
// videodec engine.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "videodec",
		Usage: "probe video files and extract exact frames",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			probeCommand(),
			framesCommand(),
			sheetCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "videodec:", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "videodec",
	})
	if lvl, err := log.ParseLevel(c.String("log-level")); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
