//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"errors"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig carries defaults that would otherwise be repeated on every
// invocation. Command-line flags win over config values.
type fileConfig struct {
	// Options is a stream option string, e.g. "width=320,height=240".
	Options string `yaml:"options"`

	// Format is the output image format for extracted frames (png or bmp).
	Format string `yaml:"format"`

	// Columns and Count shape contact sheets.
	Columns int `yaml:"columns"`
	Count   int `yaml:"count"`

	// MP4Index enables sample-table indexing for MP4 inputs.
	MP4Index bool `yaml:"mp4_index"`
}

const defaultConfigFile = "videodec.yaml"

// loadConfig reads the config file named by --config, or videodec.yaml in
// the working directory when present. A missing default file is not an
// error.
func loadConfig(c *cli.Context) (fileConfig, error) {
	cfg := fileConfig{Format: "png", Columns: 4, Count: 16}

	path := c.String("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Format == "" {
		cfg.Format = "png"
	}
	if cfg.Columns <= 0 {
		cfg.Columns = 4
	}
	if cfg.Count <= 0 {
		cfg.Count = 16
	}
	return cfg, nil
}
