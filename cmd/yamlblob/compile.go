// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/scott-cotton/cli"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/yamlblob"
)

func compile(cfg *CompileConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Compile.Parse(cc, args)
	if err != nil {
		cfg.Compile.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: compile requires at least one input file", cli.ErrUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return compileFiles(ctx, args, cfg.Dir, cfg.Jobs, cfg.builderOptions()...)
}

func blobPath(src, dir string) string {
	dst := src + ".blob"
	if dir != "" {
		dst = filepath.Join(dir, filepath.Base(dst))
	}
	return dst
}

// compileFiles compiles each of srcs, at most jobs at a time.  Builds are
// independent; the first failure stops files that haven't started yet.
func compileFiles(ctx context.Context, srcs []string, dir string, jobs int, opts ...yamlblob.BuilderOption) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for _, src := range srcs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := yamlblob.CompileFile(src, blobPath(src, dir), opts...); err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			return nil
		})
	}
	return eg.Wait()
}
