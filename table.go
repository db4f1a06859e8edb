// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package yamlblob

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"

	"github.com/bpowers/yamlblob/blobfile"
	"github.com/bpowers/yamlblob/internal/mmap"
	"github.com/bpowers/yamlblob/internal/unsafestring"
)

// maxAliasDepth bounds how many aliases are followed when resolving a
// value, so that alias cycles in a corrupt blob terminate.
const maxAliasDepth = 64

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var errAliasDepth = errors.New("alias chain too long")

// Table is a read-only view of a compiled blob.  Values returned from a
// Table alias its memory and must not be modified or used after Close.
// A Table is safe for concurrent use.
type Table struct {
	r  *blobfile.Reader
	mm *mmap.ReaderAt

	root    uint32
	hasRoot bool
	first   uint32
	count   uint32

	closeOnce sync.Once
	closeErr  error
}

// Open memory-maps a blob written by CompileFile.  Compressed blobs are
// decompressed onto the heap and the file is unmapped right away.
func Open(path string) (*Table, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}

	data := m.Data()
	if bytes.HasPrefix(data, zstdMagic) {
		blob, err := decompress(data)
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("munmap(%s): %w", path, closeErr)
		}
		if err != nil {
			return nil, err
		}
		return New(blob)
	}

	if err := m.Advise(unix.MADV_RANDOM); err != nil {
		_ = m.Close()
		return nil, err
	}
	t, err := New(data)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.mm = m
	return t, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd.NewReader: %w", err)
	}
	defer dec.Close()
	blob, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("dec.DecodeAll: %w", err)
	}
	return blob, nil
}

// New returns a Table reading from blob, which must not be modified
// while the Table is in use.
func New(blob []byte) (*Table, error) {
	r, err := blobfile.NewReader(blob)
	if err != nil {
		return nil, fmt.Errorf("blobfile.NewReader: %w", err)
	}
	t := &Table{r: r}

	t.root, t.hasRoot = r.Root()
	if t.hasRoot {
		n, err := r.Node(t.root)
		if err != nil {
			return nil, err
		}
		if n.Kind != blobfile.KindMapping {
			return nil, fmt.Errorf("root node %d is a %s, not a mapping", t.root, n.Kind)
		}
		if n.A > r.PairCount() || n.B > r.PairCount()-n.A {
			return nil, fmt.Errorf("%w: root mapping covers pairs [%d, +%d) of %d", blobfile.ErrOutOfRange, n.A, n.B, r.PairCount())
		}
		t.first, t.count = uint32(n.A), uint32(n.B)
	}
	return t, nil
}

// Reader exposes the underlying blob sections.
func (t *Table) Reader() *blobfile.Reader {
	return t.r
}

// Len returns the number of pairs in the document's root mapping.
func (t *Table) Len() int {
	return int(t.count)
}

// Close releases the memory mapping, if any.  It is safe to call more
// than once.
func (t *Table) Close() error {
	t.closeOnce.Do(func() {
		if t.mm != nil {
			t.closeErr = t.mm.Close()
		}
	})
	return t.closeErr
}

// resolve follows aliases from node to the node they ultimately refer to.
func (t *Table) resolve(node uint32) (blobfile.NodeEntry, uint32, error) {
	for depth := 0; depth < maxAliasDepth; depth++ {
		n, err := t.r.Node(node)
		if err != nil {
			return n, node, err
		}
		if n.Kind != blobfile.KindAlias {
			return n, node, nil
		}
		if n.A > uint64(^uint32(0)) {
			return n, node, fmt.Errorf("%w: alias %d targets %d", blobfile.ErrOutOfRange, node, n.A)
		}
		node = uint32(n.A)
	}
	return blobfile.NodeEntry{}, node, fmt.Errorf("%w: from node %d", errAliasDepth, node)
}

// value returns the value node of pair p if it is in the root mapping.
func (t *Table) value(p uint32) (Value, bool) {
	if !t.hasRoot || p < t.first || p-t.first >= t.count {
		return Value{}, false
	}
	pair, err := t.r.Pair(p)
	if err != nil {
		return Value{}, false
	}
	n, node, err := t.resolve(pair.Value)
	if err != nil {
		return Value{}, false
	}
	return Value{t: t, node: node, entry: n}, true
}

// Get returns the value of the first pair in the document keyed by key
// whose value is a scalar.
func (t *Table) Get(key []byte) (value []byte, found bool) {
	t.r.LookupFunc(key, func(p uint32) bool {
		if v, ok := t.value(p); ok {
			value, found = v.Scalar()
		}
		return !found
	})
	return value, found
}

// GetString is Get for a string key.
func (t *Table) GetString(key string) ([]byte, bool) {
	return t.Get(unsafestring.ToBytes(key))
}

// GetAll returns the values of every pair keyed by key, in document
// order.  Keys may repeat, and every bare scalar and anonymous sequence
// in a document is stored under the empty key.
func (t *Table) GetAll(key []byte) []Value {
	var values []Value
	for _, p := range t.r.Lookup(key) {
		if v, ok := t.value(p); ok {
			values = append(values, v)
		}
	}
	return values
}

// Sequence returns the items of the first sequence keyed by key.
func (t *Table) Sequence(key []byte) ([][]byte, bool) {
	for _, p := range t.r.Lookup(key) {
		if v, ok := t.value(p); ok && v.Kind() == blobfile.KindSequence {
			items, err := v.Items()
			if err != nil {
				return nil, false
			}
			return items, true
		}
	}
	return nil, false
}

// Pairs iterates over the root mapping in document order.  Pairs whose
// key isn't a readable scalar are skipped.
func (t *Table) Pairs() iter.Seq2[[]byte, Value] {
	return func(yield func([]byte, Value) bool) {
		for i := uint32(0); i < t.count; i++ {
			p := t.first + i
			pair, err := t.r.Pair(p)
			if err != nil {
				return
			}
			k, err := t.r.ScalarBytes(pair.Key)
			if err != nil {
				continue
			}
			v, ok := t.value(p)
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Value is a node in a Table, with aliases already followed.
type Value struct {
	t     *Table
	node  uint32
	entry blobfile.NodeEntry
}

// Node is the index of the value's node in the blob.
func (v Value) Node() uint32 { return v.node }

func (v Value) Kind() blobfile.Kind { return v.entry.Kind }

// Style returns the scalar style flags recorded at compile time, if any.
func (v Value) Style() blobfile.Style { return v.entry.Style }

// Scalar returns the bytes of a scalar value.
func (v Value) Scalar() ([]byte, bool) {
	if v.entry.Kind != blobfile.KindScalar {
		return nil, false
	}
	b, err := v.t.r.Bytes(v.entry.A, v.entry.B)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Items returns the scalar items of a sequence value.  Nested
// collections are reported as an error; the parser never produces them.
func (v Value) Items() ([][]byte, error) {
	if v.entry.Kind != blobfile.KindSequence {
		return nil, fmt.Errorf("node %d is a %s, not a sequence", v.node, v.entry.Kind)
	}
	if n := v.t.r.IndexCount(); v.entry.A > n || v.entry.B > n-v.entry.A {
		return nil, fmt.Errorf("%w: sequence %d covers slots [%d, +%d) of %d", blobfile.ErrOutOfRange, v.node, v.entry.A, v.entry.B, n)
	}
	items := make([][]byte, 0, v.entry.B)
	for slot := v.entry.A; slot < v.entry.A+v.entry.B; slot++ {
		e, err := v.t.r.Element(slot)
		if err != nil {
			return nil, err
		}
		n, node, err := v.t.resolve(e)
		if err != nil {
			return nil, err
		}
		if n.Kind != blobfile.KindScalar {
			return nil, fmt.Errorf("%w: sequence %d item %d", blobfile.ErrNotScalar, v.node, node)
		}
		b, err := v.t.r.Bytes(n.A, n.B)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}
