// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package growable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_PushAt(t *testing.T) {
	var tbl Table[uint32]
	for i := uint32(0); i < 5000; i++ {
		h, err := tbl.Push(i * 3)
		require.NoError(t, err)
		require.Equal(t, i, h)
	}
	require.Equal(t, 5000, tbl.Len())
	for i := uint32(0); i < 5000; i++ {
		require.Equal(t, i*3, tbl.At(i))
	}

	tbl.Set(7, 42)
	assert.Equal(t, uint32(42), tbl.At(7))
	assert.Equal(t, uint32(42), tbl.Slice()[7])
}

func TestNextCap(t *testing.T) {
	assert.Equal(t, 16, nextCap(0))
	assert.Equal(t, 32, nextCap(16))
	assert.Equal(t, 2046, nextCap(1023))
	assert.Equal(t, 1536, nextCap(1024))
	assert.Equal(t, 3072, nextCap(2048))
	assert.Equal(t, 12000, nextCap(10000))
}

func TestTable_Limit(t *testing.T) {
	tbl := New[string](3)
	for i := 0; i < 3; i++ {
		_, err := tbl.Push("x")
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, tbl.Cap(), 3)

	_, err := tbl.Push("y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	// a failed push must not truncate or modify what is already there
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"x", "x", "x"}, tbl.Slice())
}

func TestTable_PushAll(t *testing.T) {
	tbl := New[int](4)
	first, err := tbl.PushAll(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), first)

	first, err = tbl.PushAll(3, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), first)

	// all-or-nothing
	_, err = tbl.PushAll(5, 6)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []int{1, 2, 3, 4}, tbl.Slice())
}
