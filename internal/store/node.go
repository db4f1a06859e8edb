// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package store

import (
	"github.com/bpowers/yamlblob/blobfile"
	"github.com/bpowers/yamlblob/internal/intern"
)

// NodeHandle is the index of a node in a Store.
type NodeHandle uint32

// PairHandle is the index of a key/value pair in a Store.
type PairHandle uint32

// Kind is the on-disk tag for each node variant.
type Kind = blobfile.Kind

const (
	KindScalar   = blobfile.KindScalar
	KindSequence = blobfile.KindSequence
	KindMapping  = blobfile.KindMapping
	KindAlias    = blobfile.KindAlias
	KindDocument = blobfile.KindDocument
)

// Style carries informational scalar subtype flags.  Nothing in the
// compiler interprets them.
type Style = blobfile.Style

const (
	StyleString = blobfile.StyleString
	StyleInt    = blobfile.StyleInt
	StyleFloat  = blobfile.StyleFloat
	StyleBool   = blobfile.StyleBool
)

// Node is one of Scalar, Sequence, Mapping, Alias or Document.
type Node interface {
	Kind() Kind
	isNode()
}

// Scalar is an immutable byte string.  Str is the interned string; its
// byte offset is only known once the interner is flattened.
type Scalar struct {
	Str   intern.Handle
	Len   uint64
	Style Style
	Tag   uint16
}

// Sequence covers Count consecutive slots of the raw index table,
// starting at First.
type Sequence struct {
	First uint64
	Count uint64
}

// Mapping covers Count consecutive pairs starting at First.
type Mapping struct {
	First uint64
	Count uint64
}

// Alias refers to another node.  The parser never produces one.
type Alias struct {
	Target NodeHandle
}

// Document wraps the (optional) root of a compiled document.
type Document struct {
	Root    NodeHandle
	HasRoot bool
}

func (Scalar) Kind() Kind   { return KindScalar }
func (Sequence) Kind() Kind { return KindSequence }
func (Mapping) Kind() Kind  { return KindMapping }
func (Alias) Kind() Kind    { return KindAlias }
func (Document) Kind() Kind { return KindDocument }

func (Scalar) isNode()   {}
func (Sequence) isNode() {}
func (Mapping) isNode()  {}
func (Alias) isNode()    {}
func (Document) isNode() {}

// Pair associates two nodes.  Pairs exist independently of mappings;
// a Mapping refers to a contiguous range of them.
type Pair struct {
	Key   NodeHandle
	Value NodeHandle
}
