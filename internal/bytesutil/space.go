// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bytesutil has byte-slice helpers that deliberately only know
// about ASCII.
package bytesutil

var asciiSpace = [256]bool{' ': true, '\t': true, '\n': true, '\v': true, '\f': true, '\r': true}

// IsSpace reports whether c is one of the six ASCII whitespace bytes.
func IsSpace(c byte) bool {
	return asciiSpace[c]
}

// TrimSpace slices s to exclude leading and trailing ASCII whitespace.
// Unlike bytes.TrimSpace it never decodes UTF-8, so multi-byte
// sequences (including U+0085 and U+00A0) are left alone.
//
// TrimSpace returns a subslice of s, not a copy.
func TrimSpace(s []byte) []byte {
	b, e := 0, len(s)
	for b < e && asciiSpace[s[b]] {
		b++
	}
	for e > b && asciiSpace[s[e-1]] {
		e--
	}
	return s[b:e]
}

// Cut slices s around the first instance of sep, returning the text
// before and after sep.  If sep does not appear in s, Cut returns s, nil,
// false.
func Cut(s []byte, sep byte) (before, after []byte, found bool) {
	for i, c := range s {
		if c == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, nil, false
}
