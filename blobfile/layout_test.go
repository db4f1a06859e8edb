// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package blobfile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	h, size, err := Layout(Counts{
		Nodes:       7,
		Pairs:       1,
		Indices:     3,
		HashEntries: 1,
		StringBytes: 14,
		HashIndex:   true,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, Section{Offset: 90, Count: 7}, h.Nodes)
	assert.Equal(t, Section{Offset: 230, Count: 1}, h.Pairs)
	assert.Equal(t, Section{Offset: 238, Count: 3}, h.Indices)
	assert.Equal(t, Section{Offset: 250, Count: 1}, h.HashIndex)
	assert.Equal(t, Section{Offset: 266, Count: 14}, h.Strings)
	assert.Equal(t, uint64(280), size)
}

func TestLayout_Empty(t *testing.T) {
	// a document node and nothing else
	h, size, err := Layout(Counts{Nodes: 1, HashIndex: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(HeaderSize+NodeEntrySize), size)
	assert.Equal(t, Section{Offset: 110}, h.HashIndex)
	assert.Equal(t, Section{Offset: 110}, h.Strings)
}

func TestLayout_NoHashIndex(t *testing.T) {
	h, size, err := Layout(Counts{Nodes: 2, Pairs: 1, StringBytes: 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, Section{}, h.HashIndex)
	assert.Equal(t, Section{Offset: 138, Count: 3}, h.Strings)
	assert.Equal(t, uint64(141), size)

	_, _, err = Layout(Counts{HashEntries: 1}, 0)
	assert.Error(t, err)
}

func TestLayout_Overflow(t *testing.T) {
	// the total just fits
	_, size, err := Layout(Counts{Nodes: 1, StringBytes: 10}, 120)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), size)

	_, _, err = Layout(Counts{Nodes: 1, StringBytes: 11}, 120)
	assert.ErrorIs(t, err, ErrLayoutOverflow)

	// the string table alone is past the limit
	_, _, err = Layout(Counts{Nodes: 10}, 100)
	assert.ErrorIs(t, err, ErrLayoutOverflow)

	// section sizes overflowing 64 bits
	_, _, err = Layout(Counts{Nodes: math.MaxUint64 / 2}, math.MaxUint64)
	assert.ErrorIs(t, err, ErrLayoutOverflow)
	_, _, err = Layout(Counts{StringBytes: math.MaxUint64 - 10}, math.MaxUint64)
	assert.ErrorIs(t, err, ErrLayoutOverflow)
	_, _, err = Layout(Counts{Pairs: math.MaxUint64 / 8, Indices: math.MaxUint64 / 8}, math.MaxUint64)
	assert.ErrorIs(t, err, ErrLayoutOverflow)
}
