// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package serialize flattens a store.Store into a single blob in the
// blobfile format.
package serialize

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/bpowers/yamlblob/blobfile"
	"github.com/bpowers/yamlblob/internal/store"
)

// Option configures Write.
type Option func(*options)

type options struct {
	noHashIndex bool
	maxSize     uint64
}

// WithoutHashIndex omits the hash index; its header entry is (0, 0).
func WithoutHashIndex() Option {
	return func(opts *options) {
		opts.noHashIndex = true
	}
}

// WithMaxSize caps the size of the produced blob.  Zero means
// blobfile.DefaultMaxSize.
func WithMaxSize(n uint64) Option {
	return func(opts *options) {
		opts.maxSize = n
	}
}

// Stats describes the sections of a blob produced by Write.
type Stats struct {
	Header blobfile.Header
	Size   uint64
}

// Write serializes st.  It finalizes st's interner, so st can't be added
// to afterwards.  The returned buffer is owned by the caller.
func Write(st *store.Store, opts ...Option) ([]byte, error) {
	buf, _, err := WriteStats(st, opts...)
	return buf, err
}

// WriteStats is Write, additionally returning the blob's layout.
func WriteStats(st *store.Store, opts ...Option) ([]byte, Stats, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := st.Validate(); err != nil {
		return nil, Stats{}, fmt.Errorf("st.Validate: %w", err)
	}

	strs, offsets, err := st.Strings().Finalize()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("Finalize: %w", err)
	}

	nodes := encodeNodes(st.Nodes(), offsets)

	var hashes []blobfile.HashEntry
	if !o.noHashIndex {
		hashes = hashIndex(st.Pairs(), nodes, strs)
	}

	h, size, err := blobfile.Layout(blobfile.Counts{
		Nodes:       uint64(len(nodes)),
		Pairs:       uint64(st.PairCount()),
		Indices:     uint64(len(st.Indices())),
		HashEntries: uint64(len(hashes)),
		StringBytes: uint64(len(strs)),
		HashIndex:   !o.noHashIndex,
	}, o.maxSize)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("blobfile.Layout: %w", err)
	}

	buf := make([]byte, size)
	if err := h.MarshalTo(buf); err != nil {
		return nil, Stats{}, fmt.Errorf("h.MarshalTo: %w", err)
	}

	off := h.Nodes.Offset
	for i := range nodes {
		nodes[i].MarshalTo(buf[off : off+blobfile.NodeEntrySize])
		off += blobfile.NodeEntrySize
	}
	off = h.Pairs.Offset
	for _, p := range st.Pairs() {
		e := blobfile.PairEntry{Key: uint32(p.Key), Value: uint32(p.Value)}
		e.MarshalTo(buf[off : off+blobfile.PairEntrySize])
		off += blobfile.PairEntrySize
	}
	off = h.Indices.Offset
	for _, e := range st.Indices() {
		binary.LittleEndian.PutUint32(buf[off:off+blobfile.IndexEntrySize], e)
		off += blobfile.IndexEntrySize
	}
	off = h.HashIndex.Offset
	for i := range hashes {
		hashes[i].MarshalTo(buf[off : off+blobfile.HashEntrySize])
		off += blobfile.HashEntrySize
	}
	copy(buf[h.Strings.Offset:], strs)

	return buf, Stats{Header: h, Size: size}, nil
}

// encodeNodes converts nodes to their on-disk form, replacing each
// scalar's string handle with its offset into the string table.
func encodeNodes(nodes []store.Node, offsets []uint64) []blobfile.NodeEntry {
	entries := make([]blobfile.NodeEntry, len(nodes))
	for i, n := range nodes {
		e := &entries[i]
		e.Kind = n.Kind()
		switch n := n.(type) {
		case store.Scalar:
			e.Style = n.Style
			e.Tag = n.Tag
			// an unknown string handle degrades to the empty string
			if int(n.Str) < len(offsets) {
				e.A = offsets[n.Str]
				e.B = n.Len
			}
		case store.Sequence:
			e.A, e.B = n.First, n.Count
		case store.Mapping:
			e.A, e.B = n.First, n.Count
		case store.Alias:
			e.A = uint64(n.Target)
		case store.Document:
			// a document without a root points at itself
			e.A = uint64(i)
			if n.HasRoot {
				e.A = uint64(n.Root)
			}
		}
	}
	return entries
}

// hashIndex hashes the key of every pair keyed by a scalar, sorted by
// (hash, pair).
func hashIndex(pairs []store.Pair, nodes []blobfile.NodeEntry, strs []byte) []blobfile.HashEntry {
	size := uint64(len(strs))
	hashes := make([]blobfile.HashEntry, 0, len(pairs))
	for i, p := range pairs {
		if int(p.Key) >= len(nodes) {
			continue
		}
		k := nodes[p.Key]
		if k.Kind != blobfile.KindScalar {
			continue
		}
		if k.A > size || k.B > size-k.A {
			continue
		}
		hashes = append(hashes, blobfile.HashEntry{
			Hash: blobfile.Hash(strs[k.A : k.A+k.B]),
			Pair: uint32(i),
		})
	}
	slices.SortFunc(hashes, func(a, b blobfile.HashEntry) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return hashes
}
