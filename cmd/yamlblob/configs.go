// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/bpowers/yamlblob"
)

type MainConfig struct {
	Verbose bool `cli:"name=v aliases=verbose desc='log progress to stderr'"`
	Color   bool `cli:"name=color desc='color output even when not a terminal'"`
	NoColor bool `cli:"name=nocolor desc='never color output'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

func (cfg *MainConfig) logger() *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// useColor reports whether output to w should be colored: when asked
// for, or by default when w is a terminal.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	switch {
	case cfg.NoColor:
		return false
	case cfg.Color:
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette formats the parts of command output.  Without color every
// function is a plain Sprintf.
type palette struct {
	Comment func(string, ...any) string
	Key     func(string, ...any) string
	Label   func(string, ...any) string
	Value   func(string, ...any) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		return palette{
			Comment: fmt.Sprintf,
			Key:     fmt.Sprintf,
			Label:   fmt.Sprintf,
			Value:   fmt.Sprintf,
		}
	}
	mk := func(c *color.Color) func(string, ...any) string {
		// decided here rather than by color's own stdout check
		c.EnableColor()
		return c.SprintfFunc()
	}
	return palette{
		Comment: mk(color.New(color.FgBlue)),
		Key:     mk(color.RGB(128, 168, 196)),
		Label:   mk(color.New(color.FgCyan)),
		Value:   mk(color.RGB(8, 196, 16)),
	}
}

type CompileConfig struct {
	*MainConfig

	Dir      string `cli:"name=d aliases=dir desc='directory to write blobs to (default: next to each input)'"`
	Compress bool   `cli:"name=z aliases=zstd desc='zstd-compress blobs'"`
	NoIndex  bool   `cli:"name=noindex desc='omit the hash index'"`
	Styles   bool   `cli:"name=styles desc='record scalar type guesses in style flags'"`
	Limit    int    `cli:"name=limit desc='max nodes, pairs, elements or strings per document (0: no limit)'"`
	Jobs     int    `cli:"name=j aliases=jobs desc='files to compile at once (0: GOMAXPROCS)'"`

	Compile *cli.Command
}

func (cfg *CompileConfig) builderOptions() []yamlblob.BuilderOption {
	opts := []yamlblob.BuilderOption{
		yamlblob.WithBuilderLogger(cfg.logger()),
		yamlblob.WithTableLimit(cfg.Limit),
	}
	if cfg.Compress {
		opts = append(opts, yamlblob.WithCompression())
	}
	if cfg.NoIndex {
		opts = append(opts, yamlblob.WithoutHashIndex())
	}
	if cfg.Styles {
		opts = append(opts, yamlblob.WithScalarStyles())
	}
	return opts
}

type GetConfig struct {
	*MainConfig

	Get *cli.Command
}

type DumpConfig struct {
	*MainConfig

	Typed bool `cli:"name=typed desc='emit scalars with int, float or bool styles as typed values'"`

	Dump *cli.Command
}

type StatConfig struct {
	*MainConfig

	Stat *cli.Command
}
