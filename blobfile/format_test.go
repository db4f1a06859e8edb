// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package blobfile

import (
	"hash/fnv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_RoundTrip(t *testing.T) {
	origH := NewHeader()
	require.Equal(t, uint32(Magic), origH.Magic)
	require.Equal(t, uint16(Version), origH.Version)
	origH.Nodes = Section{Offset: 90, Count: 7}
	origH.Pairs = Section{Offset: 230, Count: 1}
	origH.Indices = Section{Offset: 238, Count: 3}
	origH.HashIndex = Section{Offset: 250, Count: 1}
	origH.Strings = Section{Offset: 266, Count: 14}

	// this should be an error
	err := origH.MarshalTo(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	var newH Header
	headerBytes := make([]byte, HeaderSize)
	// missing magic number
	assert.ErrorIs(t, newH.UnmarshalBytes(headerBytes), ErrBadMagic)

	require.NoError(t, origH.MarshalTo(headerBytes))
	assert.ErrorIs(t, newH.UnmarshalBytes(nil), ErrTruncated)
	assert.ErrorIs(t, newH.UnmarshalBytes(headerBytes[:HeaderSize-1]), ErrTruncated)

	require.NoError(t, newH.UnmarshalBytes(headerBytes))
	assert.Equal(t, origH, newH)

	// an unknown version is rejected
	origH.Version = 666
	require.NoError(t, origH.MarshalTo(headerBytes))
	assert.ErrorIs(t, newH.UnmarshalBytes(headerBytes), ErrBadVersion)
}

func TestHeader_FieldOffsets(t *testing.T) {
	h := NewHeader()
	h.Flags = 0x01020304
	h.Nodes = Section{Offset: 0x11, Count: 0x12}
	h.Strings = Section{Offset: 0x51, Count: 0x52}
	buf := make([]byte, HeaderSize)
	require.NoError(t, h.MarshalTo(buf))

	assert.Equal(t, []byte{0x4C, 0x4D, 0x41, 0x59}, buf[0:4])
	assert.Equal(t, []byte{1, 0}, buf[4:6])
	assert.Equal(t, []byte{4, 3, 2, 1}, buf[6:10])
	assert.Equal(t, byte(0x11), buf[10])
	assert.Equal(t, byte(0x12), buf[18])
	assert.Equal(t, byte(0x51), buf[74])
	assert.Equal(t, byte(0x52), buf[82])
}

func TestEntries_RoundTrip(t *testing.T) {
	n := NodeEntry{Kind: KindMapping, Style: StyleInt | StyleBool, Tag: 0xBEEF, A: math.MaxUint64, B: 42}
	buf := make([]byte, NodeEntrySize)
	n.MarshalTo(buf)
	assert.Equal(t, byte(KindMapping), buf[0])
	assert.Equal(t, []byte{0xEF, 0xBE}, buf[2:4])
	var n2 NodeEntry
	n2.UnmarshalBytes(buf)
	assert.Equal(t, n, n2)

	p := PairEntry{Key: 1, Value: 0xFFFFFFFF}
	buf = make([]byte, PairEntrySize)
	p.MarshalTo(buf)
	var p2 PairEntry
	p2.UnmarshalBytes(buf)
	assert.Equal(t, p, p2)

	h := HashEntry{Hash: 0x0102030405060708, Pair: 9}
	buf = []byte("0123456789abcdef")
	h.MarshalTo(buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[12:16], "reserved bytes are zeroed")
	var h2 HashEntry
	h2.UnmarshalBytes(buf)
	assert.Equal(t, h, h2)

	assert.Panics(t, func() { n.MarshalTo(make([]byte, NodeEntrySize-1)) })
}

func TestHashEntry_Less(t *testing.T) {
	assert.True(t, HashEntry{Hash: 1, Pair: 9}.Less(HashEntry{Hash: 2, Pair: 0}))
	assert.True(t, HashEntry{Hash: 2, Pair: 0}.Less(HashEntry{Hash: 2, Pair: 1}))
	assert.False(t, HashEntry{Hash: 2, Pair: 1}.Less(HashEntry{Hash: 2, Pair: 1}))
}

func TestHash(t *testing.T) {
	assert.Equal(t, uint64(14695981039346656037), Hash(nil))
	// well-known FNV-1a 64 test vector
	assert.Equal(t, uint64(0xaf63dc4c8601ec8c), Hash([]byte("a")))

	for _, s := range []string{"", "name", "age", "a much longer key with spaces", "\x00\xff"} {
		h := fnv.New64a()
		_, _ = h.Write([]byte(s))
		assert.Equal(t, h.Sum64(), Hash([]byte(s)), "Hash(%q)", s)
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = Hash([]byte("name"))
	})
	assert.Zero(t, allocs)
}

func TestKindStyle_String(t *testing.T) {
	assert.Equal(t, "sequence", KindSequence.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, "float", StyleFloat.String())
	assert.Equal(t, "", Style(0).String())
	assert.Equal(t, "Style(0x3)", (StyleString | StyleInt).String())
}
