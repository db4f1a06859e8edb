// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/yamlblob"
	"github.com/bpowers/yamlblob/blobfile"
)

const testDoc = `# settings
name: Ann
age: 42
ratio: 0.5
enabled: true
- x
- y
`

func newTable(t *testing.T, src string, opts ...yamlblob.BuilderOption) *yamlblob.Table {
	t.Helper()
	blob, err := yamlblob.Compile([]byte(src), opts...)
	require.NoError(t, err)
	table, err := yamlblob.New(blob)
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })
	return table
}

func TestBlobPath(t *testing.T) {
	assert.Equal(t, "a/b.yaml.blob", blobPath("a/b.yaml", ""))
	assert.Equal(t, filepath.Join("out", "b.yaml.blob"), blobPath("a/b.yaml", "out"))
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()

	var srcs []string
	for i, body := range []string{testDoc, "k: v\n", ""} {
		p := filepath.Join(dir, []string{"one.yaml", "two.yaml", "three.yaml"}[i])
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		srcs = append(srcs, p)
	}

	require.NoError(t, compileFiles(context.Background(), srcs, outDir, 2, yamlblob.WithCompression()))

	table, err := yamlblob.Open(filepath.Join(outDir, "one.yaml.blob"))
	require.NoError(t, err)
	defer func() { _ = table.Close() }()
	v, ok := table.GetString("name")
	require.True(t, ok)
	assert.Equal(t, "Ann", string(v))

	empty, err := yamlblob.Open(filepath.Join(outDir, "three.yaml.blob"))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	require.NoError(t, empty.Close())

	// blobs land next to their inputs by default
	require.NoError(t, compileFiles(context.Background(), srcs[1:2], "", 0))
	_, err = os.Stat(srcs[1] + ".blob")
	assert.NoError(t, err)
}

func TestCompileFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.yaml")

	err := compileFiles(context.Background(), []string{missing}, dir, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), missing)

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("k: v\n"), 0644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = compileFiles(ctx, []string{good}, dir, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = os.Stat(good + ".blob")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetKey(t *testing.T) {
	table := newTable(t, testDoc+"name: Bob\n")
	pal := newPalette(false)

	var buf bytes.Buffer
	require.NoError(t, getKey(&buf, table, "name", false, pal))
	assert.Equal(t, "Ann\nBob\n", buf.String())

	buf.Reset()
	require.NoError(t, getKey(&buf, table, "", true, pal))
	assert.Equal(t, ": x\n: y\n", buf.String())

	buf.Reset()
	require.NoError(t, getKey(&buf, table, "age", true, pal))
	assert.Equal(t, "age: 42\n", buf.String())

	err := getKey(&buf, table, "nope", false, pal)
	assert.ErrorIs(t, err, errKeyNotFound)
}

func TestDumpTable(t *testing.T) {
	table := newTable(t, testDoc, yamlblob.WithScalarStyles())

	var buf bytes.Buffer
	require.NoError(t, dumpTable(&buf, table, false, newPalette(false)))

	var got yaml.MapSlice
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "name", got[0].Key)
	assert.Equal(t, "Ann", got[0].Value)
	// untyped output quotes anything that would read back as a non-string
	assert.Equal(t, "42", got[1].Value)
	assert.Equal(t, "true", got[3].Value)
	assert.Equal(t, "", got[4].Key)
	assert.Equal(t, []any{"x", "y"}, got[4].Value)

	buf.Reset()
	require.NoError(t, dumpTable(&buf, table, true, newPalette(false)))
	got = nil
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 5)
	assert.EqualValues(t, 42, got[1].Value)
	assert.Equal(t, 0.5, got[2].Value)
	assert.Equal(t, true, got[3].Value)
}

func TestDumpTable_RepeatedKeys(t *testing.T) {
	table := newTable(t, "a: 1\na: 2\n")

	var buf bytes.Buffer
	require.NoError(t, dumpTable(&buf, table, false, newPalette(false)))
	assert.Equal(t, 2, strings.Count(buf.String(), "a: "))
}

func TestDumpTable_Color(t *testing.T) {
	table := newTable(t, "name: Ann\n")

	var buf bytes.Buffer
	require.NoError(t, dumpTable(&buf, table, false, newPalette(true)))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "Ann")
}

func TestScalarValue(t *testing.T) {
	for _, tc := range []struct {
		in    string
		style blobfile.Style
		typed bool
		want  any
	}{
		{"42", blobfile.StyleInt, false, "42"},
		{"42", blobfile.StyleInt, true, int64(42)},
		{"0x10", blobfile.StyleInt, true, int64(16)},
		{"1.5", blobfile.StyleFloat, true, 1.5},
		{"TRUE", blobfile.StyleBool, true, true},
		{"hello", blobfile.StyleString, true, "hello"},
		{"42", 0, true, "42"},
	} {
		assert.Equal(t, tc.want, scalarValue([]byte(tc.in), tc.style, tc.typed), "%q %s", tc.in, tc.style)
	}
}

func TestStatTable(t *testing.T) {
	table := newTable(t, "k: v\n")

	var buf bytes.Buffer
	require.NoError(t, statTable(&buf, "k.blob", table.Reader(), newPalette(false)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# k.blob\n"))
	assert.Contains(t, out, "format       v1 flags=0x0 size=")
	assert.Contains(t, out, "root=")
	assert.Contains(t, out, "nodes        offset=90")
	assert.Contains(t, out, "strings")
	assert.Equal(t, 7, strings.Count(out, "\n"))

	noIndex := newTable(t, "k: v\n", yamlblob.WithoutHashIndex())
	buf.Reset()
	require.NoError(t, statTable(&buf, "k.blob", noIndex.Reader(), newPalette(false)))
	assert.Contains(t, buf.String(), "hash index   offset=0          0 entries")

	// labels are padded once, inside the color codes
	buf.Reset()
	require.NoError(t, statTable(&buf, "k.blob", table.Reader(), newPalette(true)))
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n")[1:] {
		assert.Contains(t, line, "\x1b[0m ", "line %q", line)
		assert.NotContains(t, line, "\x1b[0m  ", "line %q", line)
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	cfg := &MainConfig{}
	assert.False(t, cfg.useColor(&buf))
	cfg.Color = true
	assert.True(t, cfg.useColor(&buf))
	cfg.NoColor = true
	assert.False(t, cfg.useColor(&buf))
}
