// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package store holds the intermediate representation of a document
// while it is being built: nodes, pairs, the raw index table backing
// sequences, and the string interner.  Everything is referenced by
// integer handle; there are no pointers between nodes.
package store

import (
	"errors"
	"fmt"

	"github.com/bpowers/yamlblob/internal/growable"
	"github.com/bpowers/yamlblob/internal/intern"
)

var (
	ErrDanglingHandle = errors.New("dangling handle")
	ErrNotSequence    = errors.New("node is not a sequence")
	ErrNotContiguous  = errors.New("sequence is not at the end of the index table")
	ErrPairRange      = errors.New("pair range out of bounds")
)

// Options bounds how large the tables in a Store may grow.
type Options struct {
	// MaxElements caps each of the node, pair, index and string tables.
	// Zero means the full 32-bit handle space.
	MaxElements int
}

// Store is owned by a single build; it isn't safe for concurrent use.
type Store struct {
	nodes   *growable.Table[Node]
	pairs   *growable.Table[Pair]
	indices *growable.Table[uint32]
	strings *intern.Interner
}

// New returns an empty Store.
func New(opts Options) *Store {
	return &Store{
		nodes:   growable.New[Node](opts.MaxElements),
		pairs:   growable.New[Pair](opts.MaxElements),
		indices: growable.New[uint32](opts.MaxElements),
		strings: intern.New(opts.MaxElements),
	}
}

func (s *Store) pushNode(n Node) (NodeHandle, error) {
	h, err := s.nodes.Push(n)
	if err != nil {
		return 0, fmt.Errorf("nodes: %w", err)
	}
	return NodeHandle(h), nil
}

// AddScalar interns b and adds a Scalar node for it.
func (s *Store) AddScalar(b []byte, style Style, tag uint16) (NodeHandle, error) {
	str, err := s.strings.Intern(b)
	if err != nil {
		return 0, err
	}
	return s.pushNode(Scalar{
		Str:   str,
		Len:   uint64(len(b)),
		Style: style,
		Tag:   tag,
	})
}

// AddSequence appends elems to the raw index table and adds a Sequence
// node covering them.
func (s *Store) AddSequence(elems ...NodeHandle) (NodeHandle, error) {
	first := uint64(s.indices.Len())
	raw := make([]uint32, len(elems))
	for i, e := range elems {
		raw[i] = uint32(e)
	}
	if _, err := s.indices.PushAll(raw...); err != nil {
		return 0, fmt.Errorf("indices: %w", err)
	}
	return s.pushNode(Sequence{First: first, Count: uint64(len(elems))})
}

// ExtendSequence appends elem to an existing sequence.  This is the only
// way a node changes after it was created, and only works for the
// sequence whose slots end the index table, so that the new slot lands
// right after its existing elements.
func (s *Store) ExtendSequence(seq NodeHandle, elem NodeHandle) error {
	if int(seq) >= s.nodes.Len() {
		return fmt.Errorf("%w: node %d", ErrDanglingHandle, seq)
	}
	n, ok := s.nodes.At(uint32(seq)).(Sequence)
	if !ok {
		return fmt.Errorf("%w: node %d is a %s", ErrNotSequence, seq, s.nodes.At(uint32(seq)).Kind())
	}
	if n.First+n.Count != uint64(s.indices.Len()) {
		return fmt.Errorf("%w: node %d", ErrNotContiguous, seq)
	}
	if _, err := s.indices.Push(uint32(elem)); err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	n.Count++
	s.nodes.Set(uint32(seq), n)
	return nil
}

// AppendPair adds a key/value pair.
func (s *Store) AppendPair(key, value NodeHandle) (PairHandle, error) {
	h, err := s.pairs.Push(Pair{Key: key, Value: value})
	if err != nil {
		return 0, fmt.Errorf("pairs: %w", err)
	}
	return PairHandle(h), nil
}

// SetPairValue replaces the value of an existing pair.
func (s *Store) SetPairValue(p PairHandle, value NodeHandle) {
	pair := s.pairs.At(uint32(p))
	pair.Value = value
	s.pairs.Set(uint32(p), pair)
}

// AddMapping adds a Mapping over the pairCount most recently appended
// pairs.  That is only correct if those pairs were appended back to back
// for this mapping; use AddMappingRange when that isn't the case.
func (s *Store) AddMapping(pairCount int) (NodeHandle, error) {
	total := s.pairs.Len()
	if pairCount < 0 || pairCount > total {
		return 0, fmt.Errorf("%w: %d pairs requested, %d exist", ErrPairRange, pairCount, total)
	}
	return s.AddMappingRange(PairHandle(total-pairCount), pairCount)
}

// AddMappingRange adds a Mapping over pairs [first, first+count).
func (s *Store) AddMappingRange(first PairHandle, count int) (NodeHandle, error) {
	if count < 0 || int(first)+count > s.pairs.Len() {
		return 0, fmt.Errorf("%w: [%d, %d) of %d", ErrPairRange, first, int(first)+count, s.pairs.Len())
	}
	return s.pushNode(Mapping{First: uint64(first), Count: uint64(count)})
}

// AddAlias adds an Alias pointing at target.
func (s *Store) AddAlias(target NodeHandle) (NodeHandle, error) {
	return s.pushNode(Alias{Target: target})
}

// AddDocument adds the document wrapper.
func (s *Store) AddDocument(root NodeHandle, hasRoot bool) (NodeHandle, error) {
	return s.pushNode(Document{Root: root, HasRoot: hasRoot})
}

func (s *Store) Node(h NodeHandle) Node { return s.nodes.At(uint32(h)) }
func (s *Store) Pair(h PairHandle) Pair { return s.pairs.At(uint32(h)) }
func (s *Store) NodeCount() int         { return s.nodes.Len() }
func (s *Store) PairCount() int         { return s.pairs.Len() }

// Nodes returns all nodes in handle order; callers must not modify it.
func (s *Store) Nodes() []Node { return s.nodes.Slice() }

// Pairs returns all pairs in handle order; callers must not modify it.
func (s *Store) Pairs() []Pair { return s.pairs.Slice() }

// Indices returns the raw index table backing sequences.
func (s *Store) Indices() []uint32 { return s.indices.Slice() }

// Strings returns the interner backing scalar nodes.
func (s *Store) Strings() *intern.Interner { return s.strings }

// FindPairByKey returns the first pair whose key is the node key.
func (s *Store) FindPairByKey(key NodeHandle) (PairHandle, bool) {
	for i, p := range s.pairs.Slice() {
		if p.Key == key {
			return PairHandle(i), true
		}
	}
	return 0, false
}

// Validate checks that every handle stored anywhere refers to something
// that exists.  A failure here is a bug in whatever built the store.
func (s *Store) Validate() error {
	nodeCount := uint64(s.nodes.Len())
	for i, n := range s.nodes.Slice() {
		switch n := n.(type) {
		case Sequence:
			if n.First+n.Count > uint64(s.indices.Len()) {
				return fmt.Errorf("%w: sequence %d covers index slots [%d, %d) of %d", ErrDanglingHandle, i, n.First, n.First+n.Count, s.indices.Len())
			}
		case Mapping:
			if n.First+n.Count > uint64(s.pairs.Len()) {
				return fmt.Errorf("%w: mapping %d covers pairs [%d, %d) of %d", ErrDanglingHandle, i, n.First, n.First+n.Count, s.pairs.Len())
			}
		case Alias:
			if uint64(n.Target) >= nodeCount {
				return fmt.Errorf("%w: alias %d targets node %d (have %d)", ErrDanglingHandle, i, n.Target, nodeCount)
			}
		case Document:
			if n.HasRoot && uint64(n.Root) >= nodeCount {
				return fmt.Errorf("%w: document %d has root %d (have %d)", ErrDanglingHandle, i, n.Root, nodeCount)
			}
		}
	}
	for i, p := range s.pairs.Slice() {
		if uint64(p.Key) >= nodeCount || uint64(p.Value) >= nodeCount {
			return fmt.Errorf("%w: pair %d is (%d, %d) (have %d nodes)", ErrDanglingHandle, i, p.Key, p.Value, nodeCount)
		}
	}
	for i, e := range s.indices.Slice() {
		if uint64(e) >= nodeCount {
			return fmt.Errorf("%w: index slot %d refers to node %d (have %d)", ErrDanglingHandle, i, e, nodeCount)
		}
	}
	return nil
}
