// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	"github.com/bpowers/yamlblob"
)

var errKeyNotFound = errors.New("key not found")

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		cfg.Get.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: get requires a blob and at least one key", cli.ErrUsage)
	}

	table, err := yamlblob.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = table.Close() }()

	pal := newPalette(cfg.useColor(cc.Out))
	for _, key := range args[1:] {
		if err := getKey(cc.Out, table, key, len(args) > 2, pal); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}
	return nil
}

// getKey prints every value stored under key: scalars on their own line,
// sequence items one per line.  With prefix set, lines start with the key.
func getKey(w io.Writer, table *yamlblob.Table, key string, prefix bool, pal palette) error {
	values := table.GetAll([]byte(key))
	if len(values) == 0 {
		return fmt.Errorf("%w: %q", errKeyNotFound, key)
	}
	emit := func(b []byte) error {
		var err error
		if prefix {
			_, err = fmt.Fprintf(w, "%s: %s\n", pal.Key("%s", key), pal.Value("%s", b))
		} else {
			_, err = fmt.Fprintf(w, "%s\n", pal.Value("%s", b))
		}
		return err
	}
	for _, v := range values {
		if b, ok := v.Scalar(); ok {
			if err := emit(b); err != nil {
				return err
			}
			continue
		}
		items, err := v.Items()
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := emit(item); err != nil {
				return err
			}
		}
	}
	return nil
}
