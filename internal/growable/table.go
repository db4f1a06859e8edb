// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package growable provides an append-only table addressed by dense
// integer handles.
package growable

import (
	"errors"
	"fmt"
	"math"
)

const (
	initialCap = 16

	// below smallCap we double, below midCap we grow by 1.5x, above by 1.2x
	smallCap = 1024
	midCap   = 10000

	// DefaultMaxElements is the largest element count addressable with a
	// 32-bit handle.
	DefaultMaxElements = math.MaxUint32
)

// ErrExhausted is returned when a table can't grow any further.
var ErrExhausted = errors.New("table capacity exhausted")

// Table is an append-only slice whose elements are addressed by the index
// returned from Push.  The zero value is ready to use.
type Table[T any] struct {
	data []T
	max  int
}

// New returns a table that refuses to hold more than maxElements
// elements.  A maxElements <= 0 means DefaultMaxElements.
func New[T any](maxElements int) *Table[T] {
	return &Table[T]{max: maxElements}
}

func (t *Table[T]) limit() int {
	if t.max <= 0 || t.max > DefaultMaxElements {
		return DefaultMaxElements
	}
	return t.max
}

// nextCap mirrors the growth policy: fast growth while small, and
// progressively more conservative growth as the table gets large.
func nextCap(cur int) int {
	switch {
	case cur == 0:
		return initialCap
	case cur < smallCap:
		return cur * 2
	case cur < midCap:
		return cur + cur/2
	default:
		return cur + cur/5
	}
}

func (t *Table[T]) grow(need int) error {
	limit := t.limit()
	if need > limit {
		return fmt.Errorf("%w: %d elements (limit %d)", ErrExhausted, need, limit)
	}
	if need <= cap(t.data) {
		return nil
	}
	newCap := nextCap(cap(t.data))
	for newCap < need {
		newCap = nextCap(newCap)
	}
	if newCap > limit {
		newCap = limit
	}
	data := make([]T, len(t.data), newCap)
	copy(data, t.data)
	t.data = data
	return nil
}

// Push appends v and returns its handle.
func (t *Table[T]) Push(v T) (uint32, error) {
	n := len(t.data)
	if err := t.grow(n + 1); err != nil {
		return 0, err
	}
	t.data = append(t.data, v)
	return uint32(n), nil
}

// PushAll appends vs contiguously and returns the handle of the first one.
// Either all of vs are appended or none are.
func (t *Table[T]) PushAll(vs ...T) (uint32, error) {
	n := len(t.data)
	if err := t.grow(n + len(vs)); err != nil {
		return 0, err
	}
	t.data = append(t.data, vs...)
	return uint32(n), nil
}

// At returns the element with handle i.  It panics if i is out of range.
func (t *Table[T]) At(i uint32) T {
	return t.data[i]
}

// Set overwrites the element with handle i.
func (t *Table[T]) Set(i uint32, v T) {
	t.data[i] = v
}

// Len returns the number of elements pushed so far.
func (t *Table[T]) Len() int {
	return len(t.data)
}

// Cap returns the current backing capacity.
func (t *Table[T]) Cap() int {
	return cap(t.data)
}

// Slice returns the elements in handle order.  The result aliases the
// table and must not be written to.
func (t *Table[T]) Slice() []T {
	return t.data
}
