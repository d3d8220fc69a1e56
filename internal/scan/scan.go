// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package scan splits a buffer of `key;value\n` lines into records.
package scan

import (
	"errors"
	"fmt"

	"github.com/HappyCerberus/1brc/internal/fixedpoint"
)

var (
	// ErrMissingSeparator is a line ending before any ';'.
	ErrMissingSeparator = errors.New("line has no ';' separator")
	// ErrTruncated is returned when the buffer ends in the middle of a record.
	ErrTruncated = fixedpoint.ErrTruncated
)

// Record is a single parsed line.  Key points into the scanned buffer.
type Record struct {
	Key   []byte
	Hash  uint16
	Value int16
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithHash replaces the rolling key hash with h.
func WithHash(h HashFunc) Option {
	return func(s *Scanner) {
		s.hash = h
	}
}

// WithBaseOffset sets the position of the buffer within the whole input, so
// that errors report absolute offsets.
func WithBaseOffset(off int) Option {
	return func(s *Scanner) {
		s.base = off
	}
}

// Scanner walks a buffer one record at a time.  It never reads past the end
// of the buffer it was given.
type Scanner struct {
	buf  []byte
	off  int
	base int
	hash HashFunc
	err  error
}

func New(buf []byte, opts ...Option) *Scanner {
	s := &Scanner{buf: buf}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next record.  It returns false at the end of the buffer or
// on the first malformed record, after which Err reports what went wrong.
func (s *Scanner) Next() (Record, bool) {
	if s.err != nil || s.off >= len(s.buf) {
		return Record{}, false
	}
	rec, n, err := s.parse(s.buf[s.off:])
	if err != nil {
		s.err = fmt.Errorf("record at offset %d: %w", s.base+s.off, err)
		return Record{}, false
	}
	s.off += n
	return rec, true
}

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Offset is the position of the next unread byte, relative to the buffer.
func (s *Scanner) Offset() int {
	return s.off
}

func (s *Scanner) parse(b []byte) (rec Record, n int, err error) {
	var h uint16
	i := 0
	for ; i < len(b); i++ {
		c := b[i]
		if c == ';' {
			break
		}
		if c == '\n' {
			return Record{}, 0, ErrMissingSeparator
		}
		h = h*7 + uint16(c)
	}
	if i == len(b) {
		return Record{}, 0, ErrTruncated
	}

	rec.Key = b[:i:i]
	if s.hash != nil {
		h = s.hash(rec.Key)
	}
	rec.Hash = h

	value, valueLen, err := fixedpoint.Parse(b[i+1:])
	if err != nil {
		return Record{}, 0, err
	}
	rec.Value = value

	return rec, i + 1 + valueLen, nil
}
