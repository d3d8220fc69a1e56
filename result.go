// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package brc

import (
	"io"

	"github.com/HappyCerberus/1brc/internal/fixedpoint"
	"github.com/HappyCerberus/1brc/internal/merge"
	"github.com/HappyCerberus/1brc/internal/table"
)

// Stats summarize every value seen for one key.  Sum, Min and Max are
// scaled by 10: a Min of -15 is -1.5.
type Stats = table.Stats

// Mean returns the mean of s, scaled by 10, rounding halves away from zero.
func Mean(s Stats) int64 {
	n := int64(s.Count)
	if n == 0 {
		return 0
	}
	sum := s.Sum
	if sum > 0 {
		sum += n / 2
	} else {
		sum -= n / 2
	}
	return sum / n
}

// Result is the final, merged aggregate of an input.
type Result struct {
	m *merge.Map
}

// Len returns the number of distinct keys.
func (r *Result) Len() int {
	return r.m.Len()
}

// Keys returns every key in ascending byte order.
func (r *Result) Keys() []string {
	return r.m.Keys()
}

// Get returns the statistics for key.
func (r *Result) Get(key string) (Stats, bool) {
	return r.m.Get(key)
}

// AppendTo appends the summary line, `{key=min/mean/max, ...}\n`, to dst.
func (r *Result) AppendTo(dst []byte) []byte {
	dst = append(dst, '{')
	for i, key := range r.m.Keys() {
		s, _ := r.m.Get(key)
		if i > 0 {
			dst = append(dst, ", "...)
		}
		dst = append(dst, key...)
		dst = append(dst, '=')
		dst = fixedpoint.AppendScaled(dst, int64(s.Min))
		dst = append(dst, '/')
		dst = fixedpoint.AppendScaled(dst, Mean(s))
		dst = append(dst, '/')
		dst = fixedpoint.AppendScaled(dst, int64(s.Max))
	}
	return append(dst, '}', '\n')
}

// String returns the summary line.
func (r *Result) String() string {
	return string(r.AppendTo(nil))
}

// WriteTo writes the summary line to w.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.AppendTo(nil))
	return int64(n), err
}
