// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	"github.com/bpowers/yamlblob"
	"github.com/bpowers/yamlblob/blobfile"
)

func stat(cfg *StatConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Stat.Parse(cc, args)
	if err != nil {
		cfg.Stat.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: stat requires at least one blob", cli.ErrUsage)
	}

	pal := newPalette(cfg.useColor(cc.Out))
	for _, path := range args {
		table, err := yamlblob.Open(path)
		if err != nil {
			return err
		}
		err = statTable(cc.Out, path, table.Reader(), pal)
		_ = table.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func statTable(w io.Writer, path string, r *blobfile.Reader, pal palette) error {
	h := r.Header()
	root := "none"
	if n, ok := r.Root(); ok {
		root = fmt.Sprint(n)
	}
	rows := []struct {
		name string
		sec  blobfile.Section
		unit string
	}{
		{"nodes", h.Nodes, "entries"},
		{"pairs", h.Pairs, "entries"},
		{"indices", h.Indices, "entries"},
		{"hash index", h.HashIndex, "entries"},
		{"strings", h.Strings, "bytes"},
	}

	if _, err := fmt.Fprintf(w, "%s\n", pal.Comment("# %s", path)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s v%d flags=%#x size=%d root=%s\n", pal.Label("%-12s", "format"), h.Version, h.Flags, r.Size(), root); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s offset=%-10d %d %s\n", pal.Label("%-12s", row.name), row.sec.Offset, row.sec.Count, row.unit); err != nil {
			return err
		}
	}
	return nil
}
