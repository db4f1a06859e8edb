// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package parse turns the flat, line-oriented YAML subset into nodes and
// pairs in a store.Store.
//
// Every line is one of:
//
//	# comment (or blank)      skipped
//	- item                    sequence item
//	key: value                mapping entry
//	anything else             bare scalar
//
// Input is never rejected: a line that isn't a comment, a sequence item
// or a mapping entry is a bare scalar.  The only errors Parse returns come
// from the store running out of room.
package parse

import (
	"fmt"

	"github.com/bpowers/yamlblob/internal/bytesutil"
	"github.com/bpowers/yamlblob/internal/store"
)

// Option configures Parse.
type Option func(*options)

type options struct {
	scalarStyles bool
}

// WithScalarStyles records a guess at each scalar's type (bool, int,
// float or string) in its style flags.  By default style flags are left
// zero.
func WithScalarStyles() Option {
	return func(opts *options) {
		opts.scalarStyles = true
	}
}

type parser struct {
	st   *store.Store
	opts options

	// lastKey is the key node of the most recent pair, and lastPair that
	// pair.  expectingSeq is set while consecutive `- item` lines should
	// keep growing the sequence stored under lastKey.
	lastKey      store.NodeHandle
	lastPair     store.PairHandle
	hasLast      bool
	expectingSeq bool
}

// Parse reads src line by line, adding nodes and pairs to st, and
// finishes by adding a single Mapping over every pair and the Document
// node.  src isn't retained or modified.
func Parse(src []byte, st *store.Store, opts ...Option) error {
	p := &parser{st: st}
	for _, opt := range opts {
		opt(&p.opts)
	}

	lineNo := 0
	for pos := 0; pos < len(src); {
		end := pos
		for end < len(src) && src[end] != '\n' && src[end] != '\r' {
			end++
		}
		lineNo++
		if err := p.line(src[pos:end]); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		// accept \n, \r\n and a lone \r
		pos = end
		if pos < len(src) && src[pos] == '\r' {
			pos++
		}
		if pos < len(src) && src[pos] == '\n' {
			pos++
		}
	}

	return p.finish()
}

func isSequenceItem(line []byte) bool {
	return line[0] == '-' && (len(line) == 1 || bytesutil.IsSpace(line[1]))
}

func (p *parser) line(raw []byte) error {
	line := bytesutil.TrimSpace(raw)
	if len(line) == 0 || line[0] == '#' {
		return nil
	}

	if isSequenceItem(line) {
		return p.sequenceItem(bytesutil.TrimSpace(line[1:]))
	}
	if key, value, ok := bytesutil.Cut(line, ':'); ok {
		return p.mappingEntry(bytesutil.TrimSpace(key), bytesutil.TrimSpace(value))
	}
	return p.bareScalar(line)
}

func (p *parser) scalar(b []byte) (store.NodeHandle, error) {
	var style store.Style
	if p.opts.scalarStyles {
		style = classify(b)
	}
	return p.st.AddScalar(b, style, 0)
}

func (p *parser) setLast(key store.NodeHandle, pair store.PairHandle, expectingSeq bool) {
	p.lastKey = key
	p.lastPair = pair
	p.hasLast = true
	p.expectingSeq = expectingSeq
}

func (p *parser) mappingEntry(key, value []byte) error {
	k, err := p.scalar(key)
	if err != nil {
		return err
	}
	v, err := p.scalar(value)
	if err != nil {
		return err
	}
	pair, err := p.st.AppendPair(k, v)
	if err != nil {
		return err
	}
	p.setLast(k, pair, false)
	return nil
}

// bareScalar stores a line without a key under the empty-string key, the
// same convention anonymous sequences use.
func (p *parser) bareScalar(line []byte) error {
	v, err := p.scalar(line)
	if err != nil {
		return err
	}
	k, err := p.scalar(nil)
	if err != nil {
		return err
	}
	pair, err := p.st.AppendPair(k, v)
	if err != nil {
		return err
	}
	p.setLast(k, pair, false)
	return nil
}

func (p *parser) sequenceItem(value []byte) error {
	item, err := p.scalar(value)
	if err != nil {
		return err
	}

	if !p.expectingSeq {
		seq, err := p.st.AddSequence(item)
		if err != nil {
			return err
		}
		k, err := p.scalar(nil)
		if err != nil {
			return err
		}
		pair, err := p.st.AppendPair(k, seq)
		if err != nil {
			return err
		}
		p.setLast(k, pair, true)
		return nil
	}

	pair, ok := p.pairForLastKey()
	if !ok {
		// no pair for the key we're continuing: start one
		seq, err := p.st.AddSequence(item)
		if err != nil {
			return err
		}
		pair, err := p.st.AppendPair(p.lastKey, seq)
		if err != nil {
			return err
		}
		p.lastPair = pair
		return nil
	}

	cur := p.st.Pair(pair).Value
	if _, isSeq := p.st.Node(cur).(store.Sequence); isSeq {
		return p.st.ExtendSequence(cur, item)
	}

	// the pair holds something other than a sequence; replace it
	seq, err := p.st.AddSequence(item)
	if err != nil {
		return err
	}
	p.st.SetPairValue(pair, seq)
	return nil
}

// pairForLastKey finds the first pair keyed by lastKey.  Key nodes are
// created fresh for every pair, so that is almost always the pair we
// appended last; only fall back to scanning when it isn't.
func (p *parser) pairForLastKey() (store.PairHandle, bool) {
	if !p.hasLast {
		return 0, false
	}
	if int(p.lastPair) < p.st.PairCount() && p.st.Pair(p.lastPair).Key == p.lastKey {
		return p.lastPair, true
	}
	return p.st.FindPairByKey(p.lastKey)
}

func (p *parser) finish() error {
	if n := p.st.PairCount(); n > 0 {
		m, err := p.st.AddMapping(n)
		if err != nil {
			return err
		}
		_, err = p.st.AddDocument(m, true)
		return err
	}
	_, err := p.st.AddDocument(0, false)
	return err
}
