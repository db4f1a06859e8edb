// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build unix

package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	contents := []byte("name: John Doe\nage: 30\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, len(contents), m.Len())
	assert.Equal(t, contents, m.Data())
	require.NoError(t, m.Advise(unix.MADV_SEQUENTIAL))

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "John", string(buf))

	n, err = m.ReadAt(buf, int64(len(contents)-2))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, n)
	_, err = m.ReadAt(buf, -1)
	assert.Error(t, err)

	require.NoError(t, m.Close())
	// closing twice is fine
	require.NoError(t, m.Close())
	assert.Zero(t, m.Len())
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Data())
	require.NoError(t, m.Advise(unix.MADV_RANDOM))
	require.NoError(t, m.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
