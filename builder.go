// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package yamlblob

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"

	"github.com/bpowers/yamlblob/blobfile"
	"github.com/bpowers/yamlblob/internal/growable"
	"github.com/bpowers/yamlblob/internal/mmap"
	"github.com/bpowers/yamlblob/internal/parse"
	"github.com/bpowers/yamlblob/internal/serialize"
	"github.com/bpowers/yamlblob/internal/store"
)

var (
	// ErrResourceExhausted is returned when a document has more nodes,
	// pairs, sequence elements or distinct strings than allowed.
	ErrResourceExhausted = growable.ErrExhausted
	// ErrLayoutOverflow is returned when a compiled blob would be larger
	// than allowed.
	ErrLayoutOverflow = blobfile.ErrLayoutOverflow
)

// BuilderOption configures Compile and CompileFile.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger       *slog.Logger
	noHashIndex  bool
	scalarStyles bool
	tableLimit   int
	maxBlobSize  uint64
	compress     bool
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// WithoutHashIndex builds blobs without a hash index.  Lookups on such
// blobs scan every pair.
func WithoutHashIndex() BuilderOption {
	return func(opts *builderOptions) {
		opts.noHashIndex = true
	}
}

// WithScalarStyles records whether each scalar looks like a bool, int,
// float or plain string in its node's style flags.
func WithScalarStyles() BuilderOption {
	return func(opts *builderOptions) {
		opts.scalarStyles = true
	}
}

// WithTableLimit caps the number of nodes, pairs, sequence elements and
// distinct strings a document may have.  Exceeding it fails with
// ErrResourceExhausted.
func WithTableLimit(n int) BuilderOption {
	return func(opts *builderOptions) {
		opts.tableLimit = n
	}
}

// WithMaxBlobSize caps the size in bytes of a compiled blob.  Exceeding
// it fails with ErrLayoutOverflow.
func WithMaxBlobSize(n uint64) BuilderOption {
	return func(opts *builderOptions) {
		opts.maxBlobSize = n
	}
}

// WithCompression makes CompileFile zstd-compress the blob it writes.
// Open decompresses such files transparently.  Compile is unaffected.
func WithCompression() BuilderOption {
	return func(opts *builderOptions) {
		opts.compress = true
	}
}

func newBuilderOptions(opts []BuilderOption) builderOptions {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Compile turns a document in the flat YAML subset into a blob.  The
// output depends only on src and the options: compiling the same input
// twice gives byte-identical blobs.
func Compile(src []byte, opts ...BuilderOption) ([]byte, error) {
	options := newBuilderOptions(opts)
	return compile(src, &options)
}

func compile(src []byte, options *builderOptions) ([]byte, error) {
	st := store.New(store.Options{MaxElements: options.tableLimit})

	var parseOpts []parse.Option
	if options.scalarStyles {
		parseOpts = append(parseOpts, parse.WithScalarStyles())
	}
	if err := parse.Parse(src, st, parseOpts...); err != nil {
		return nil, fmt.Errorf("parse.Parse: %w", err)
	}

	serializeOpts := []serialize.Option{serialize.WithMaxSize(options.maxBlobSize)}
	if options.noHashIndex {
		serializeOpts = append(serializeOpts, serialize.WithoutHashIndex())
	}
	blob, stats, err := serialize.WriteStats(st, serializeOpts...)
	if err != nil {
		return nil, fmt.Errorf("serialize.Write: %w", err)
	}

	h := stats.Header
	options.logger.Debug("compiled blob",
		"input_bytes", len(src),
		"nodes", h.Nodes.Count,
		"pairs", h.Pairs.Count,
		"indices", h.Indices.Count,
		"hash_entries", h.HashIndex.Count,
		"string_bytes", h.Strings.Count,
		"blob_bytes", stats.Size)
	return blob, nil
}

// CompileFile compiles the document at srcPath and writes the blob to
// dstPath.  The source is memory-mapped for the duration of the build.
// The destination is written to a temporary file in the same directory
// and renamed into place, read-only, only once it is complete: on error
// dstPath is left untouched.
func CompileFile(srcPath, dstPath string, opts ...BuilderOption) error {
	options := newBuilderOptions(opts)

	m, err := mmap.Open(srcPath)
	if err != nil {
		return fmt.Errorf("mmap.Open(%s): %w", srcPath, err)
	}
	if err := m.Advise(unix.MADV_SEQUENTIAL); err != nil {
		_ = m.Close()
		return err
	}
	blob, err := compile(m.Data(), &options)
	// the blob doesn't alias the source, so it can go right away
	if closeErr := m.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("munmap(%s): %w", srcPath, closeErr)
	}
	if err != nil {
		return err
	}

	if options.compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
		if err != nil {
			return fmt.Errorf("zstd.NewWriter: %w", err)
		}
		compressed := enc.EncodeAll(blob, nil)
		_ = enc.Close()
		options.logger.Debug("compressed blob", "blob_bytes", len(blob), "compressed_bytes", len(compressed))
		blob = compressed
	}

	if err := writeFileAtomic(dstPath, blob); err != nil {
		return err
	}
	options.logger.Info("wrote blob", "src", srcPath, "dst", dstPath, "bytes", len(blob), "compressed", options.compress)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	// we want to write to a new file and do an atomic rename when we're done on disk
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "yamlblob-builder.*.blob")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir %q containing %q): %w", dir, filepath.Base(path), err)
	}
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if n, err := f.Write(data); err != nil {
		return fmt.Errorf("f.Write: %w", err)
	} else if n != len(data) {
		return fmt.Errorf("f.Write: short write of %d (wanted %d)", n, len(data))
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	// make the file read-only
	if err := os.Chmod(f.Name(), 0444); err != nil {
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	ok = true
	return nil
}
