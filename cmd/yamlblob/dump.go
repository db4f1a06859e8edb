// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"

	"github.com/bpowers/yamlblob"
	"github.com/bpowers/yamlblob/blobfile"
)

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		cfg.Dump.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: dump requires at least one blob", cli.ErrUsage)
	}

	pal := newPalette(cfg.useColor(cc.Out))
	for i, path := range args {
		if i > 0 {
			if _, err := io.WriteString(cc.Out, "---\n"); err != nil {
				return err
			}
		}
		if err := dumpFile(cc.Out, path, cfg.Typed, pal); err != nil {
			return err
		}
	}
	return nil
}

func dumpFile(w io.Writer, path string, typed bool, pal palette) error {
	table, err := yamlblob.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = table.Close() }()

	if _, err := fmt.Fprintln(w, pal.Comment("# %s", path)); err != nil {
		return err
	}
	return dumpTable(w, table, typed, pal)
}

// dumpTable writes the table's root mapping as a YAML mapping, keeping
// document order and repeated keys.
func dumpTable(w io.Writer, table *yamlblob.Table, typed bool, pal palette) error {
	for k, v := range table.Pairs() {
		value, err := yamlValue(v, typed)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(yaml.MapSlice{{Key: string(k), Value: value}})
		if err != nil {
			return fmt.Errorf("yaml.Marshal: %w", err)
		}
		key, err := yaml.Marshal(string(k))
		if err != nil {
			return fmt.Errorf("yaml.Marshal: %w", err)
		}
		key = bytes.TrimSuffix(key, []byte("\n"))
		if bytes.HasPrefix(out, key) {
			out = append([]byte(pal.Key("%s", key)), out[len(key):]...)
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}

func yamlValue(v yamlblob.Value, typed bool) (any, error) {
	if b, ok := v.Scalar(); ok {
		return scalarValue(b, v.Style(), typed), nil
	}
	if v.Kind() == blobfile.KindSequence {
		items, err := v.Items()
		if err != nil {
			return nil, err
		}
		values := make([]string, len(items))
		for i, item := range items {
			values[i] = string(item)
		}
		return values, nil
	}
	return nil, fmt.Errorf("node %d: can't dump a %s value", v.Node(), v.Kind())
}

// scalarValue converts b according to the style recorded at compile time.
// Everything is a string unless typed output was asked for.
func scalarValue(b []byte, style blobfile.Style, typed bool) any {
	s := string(b)
	if !typed {
		return s
	}
	switch style {
	case blobfile.StyleInt:
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return n
		}
	case blobfile.StyleFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case blobfile.StyleBool:
		if v, err := strconv.ParseBool(s); err == nil {
			return v
		}
	}
	return s
}
