// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package blobfile describes the compiled document format and provides
// a zero-copy Reader over it.
//
// A blob is a single contiguous, little-endian buffer:
//
//	┌───────────────────┐  0
//	│ header (90 bytes) │
//	├───────────────────┤  node_table_offset
//	│ node table        │  node_count * 20
//	├───────────────────┤  pair_table_offset
//	│ pair table        │  pair_count * 8
//	├───────────────────┤  index_table_offset
//	│ raw index table   │  index_count * 4
//	├───────────────────┤  hash_index_offset
//	│ hash index        │  hash_index_count * 16
//	├───────────────────┤  string_table_offset
//	│ string table      │  string_table_size
//	│                   │
//	└───────────────────┘
//
// Sections follow each other with no padding.  The header looks like:
//
//	 0    1    2    3    4    5    6    7    8    9
//	+----+----+----+----+----+----+----+----+----+----+
//	| magic             | ver     | flags             |
//	+----+----+----+----+----+----+----+----+----+----+
//
// followed by five (offset u64, count u64) pairs for the node, pair,
// raw index, hash index and string sections, in that order.  The string
// section's count is its size in bytes.  When a blob was built without a
// hash index, its (offset, count) pair is (0, 0).
//
// Node entries are 20 bytes:
//
//	 0    1    2    3    4 ... 11   12 ... 19
//	+----+----+----+----+--------+----------+
//	|kind|styl| tag     | a      | b        |
//	+----+----+----+----+--------+----------+
//
// where the meaning of a and b depends on kind:
//
//	scalar     byte offset into the string table, byte length
//	sequence   first raw index slot, element count
//	mapping    first pair, pair count
//	alias      target node, 0
//	document   root node, 0 (a document whose root is itself has none)
//
// Pair entries are (key u32, value u32) node indices, raw index slots are
// u32 node indices, and hash index entries are (hash u64, pair u32,
// reserved u32), sorted ascending by (hash, pair).  The hash is 64-bit
// FNV-1a over the key scalar's bytes.
package blobfile
