// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package blobfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Magic   = 0x59414D4C // "LMAY" little-endian
	Version = 1

	HeaderSize     = 90
	NodeEntrySize  = 20
	PairEntrySize  = 8
	IndexEntrySize = 4
	HashEntrySize  = 16

	// the five (offset, count) pairs start right after magic, version
	// and flags
	sectionsOff = 10
)

var (
	ErrBadMagic       = errors.New("bad magic number: not a yamlblob or corrupted")
	ErrBadVersion     = errors.New("unsupported format version")
	ErrTruncated      = errors.New("blob truncated")
	ErrOutOfRange     = errors.New("index out of range")
	ErrNotScalar      = errors.New("node is not a scalar")
	ErrLayoutOverflow = errors.New("blob layout overflows addressable size")
)

// Kind tags each node entry.
type Kind uint8

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindAlias
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindAlias:
		return "alias"
	case KindDocument:
		return "document"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Style carries informational scalar subtype flags.
type Style uint8

const (
	StyleString Style = 1 << iota
	StyleInt
	StyleFloat
	StyleBool
)

func (s Style) String() string {
	switch s {
	case 0:
		return ""
	case StyleString:
		return "string"
	case StyleInt:
		return "int"
	case StyleFloat:
		return "float"
	case StyleBool:
		return "bool"
	default:
		return fmt.Sprintf("Style(%#x)", uint8(s))
	}
}

// Section locates one table inside a blob.
type Section struct {
	Offset uint64
	Count  uint64
}

type Header struct {
	Magic   uint32
	Version uint16
	Flags   uint32

	Nodes     Section
	Pairs     Section
	Indices   Section
	HashIndex Section
	// Strings.Count is the string table's size in bytes.
	Strings Section
}

func NewHeader() Header {
	return Header{
		Magic:   Magic,
		Version: Version,
	}
}

func (h *Header) sections() [5]*Section {
	return [5]*Section{&h.Nodes, &h.Pairs, &h.Indices, &h.HashIndex, &h.Strings}
}

func (h *Header) MarshalTo(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header buffer %d < %d", ErrTruncated, len(buf), HeaderSize)
	}
	buf = buf[:HeaderSize]
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint32(buf[6:10], h.Flags)
	off := sectionsOff
	for _, s := range h.sections() {
		binary.LittleEndian.PutUint64(buf[off:off+8], s.Offset)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], s.Count)
		off += 16
	}
	return nil
}

func (h *Header) UnmarshalBytes(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: %d byte blob shorter than %d byte header", ErrTruncated, len(buf), HeaderSize)
	}
	buf = buf[:HeaderSize]

	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != Magic {
		return fmt.Errorf("%w (%x)", ErrBadMagic, h.Magic)
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	if h.Version != Version {
		return fmt.Errorf("%w: this version of yamlblob can only read v%d blobs; found v%d", ErrBadVersion, Version, h.Version)
	}
	h.Flags = binary.LittleEndian.Uint32(buf[6:10])
	off := sectionsOff
	for _, s := range h.sections() {
		s.Offset = binary.LittleEndian.Uint64(buf[off : off+8])
		s.Count = binary.LittleEndian.Uint64(buf[off+8 : off+16])
		off += 16
	}
	return nil
}

// NodeEntry is the fixed-size on-disk form of a node.
type NodeEntry struct {
	Kind  Kind
	Style Style
	Tag   uint16
	A     uint64
	B     uint64
}

func (e *NodeEntry) MarshalTo(buf []byte) {
	// bounds check elimination
	_ = buf[NodeEntrySize-1]
	buf[0] = byte(e.Kind)
	buf[1] = byte(e.Style)
	binary.LittleEndian.PutUint16(buf[2:4], e.Tag)
	binary.LittleEndian.PutUint64(buf[4:12], e.A)
	binary.LittleEndian.PutUint64(buf[12:20], e.B)
}

func (e *NodeEntry) UnmarshalBytes(buf []byte) {
	_ = buf[NodeEntrySize-1]
	e.Kind = Kind(buf[0])
	e.Style = Style(buf[1])
	e.Tag = binary.LittleEndian.Uint16(buf[2:4])
	e.A = binary.LittleEndian.Uint64(buf[4:12])
	e.B = binary.LittleEndian.Uint64(buf[12:20])
}

// PairEntry holds the node indices of a key and its value.
type PairEntry struct {
	Key   uint32
	Value uint32
}

func (e *PairEntry) MarshalTo(buf []byte) {
	_ = buf[PairEntrySize-1]
	binary.LittleEndian.PutUint32(buf[0:4], e.Key)
	binary.LittleEndian.PutUint32(buf[4:8], e.Value)
}

func (e *PairEntry) UnmarshalBytes(buf []byte) {
	_ = buf[PairEntrySize-1]
	e.Key = binary.LittleEndian.Uint32(buf[0:4])
	e.Value = binary.LittleEndian.Uint32(buf[4:8])
}

// HashEntry maps the hash of a scalar key to the pair it belongs to.
type HashEntry struct {
	Hash uint64
	Pair uint32
}

func (e *HashEntry) MarshalTo(buf []byte) {
	_ = buf[HashEntrySize-1]
	binary.LittleEndian.PutUint64(buf[0:8], e.Hash)
	binary.LittleEndian.PutUint32(buf[8:12], e.Pair)
	// reserved
	binary.LittleEndian.PutUint32(buf[12:16], 0)
}

func (e *HashEntry) UnmarshalBytes(buf []byte) {
	_ = buf[HashEntrySize-1]
	e.Hash = binary.LittleEndian.Uint64(buf[0:8])
	e.Pair = binary.LittleEndian.Uint32(buf[8:12])
}

// Less orders hash entries by hash, then by pair index.
func (e HashEntry) Less(o HashEntry) bool {
	if e.Hash != o.Hash {
		return e.Hash < o.Hash
	}
	return e.Pair < o.Pair
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// Hash is 64-bit FNV-1a, the key hash stored in the hash index.
func Hash(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}
