// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package merge combines per-worker aggregation tables into a single map
// that owns its keys.
package merge

import (
	"slices"

	"github.com/dolthub/swiss"

	"github.com/HappyCerberus/1brc/internal/table"
	"github.com/HappyCerberus/1brc/internal/unsafestring"
)

const defaultSizeHint = 1024

// Map is keyed by exact key bytes.  Unlike a table.Table it is unbounded and
// its keys are copies, so it stays valid after the input buffer goes away.
type Map struct {
	m *swiss.Map[string, *table.Stats]
}

// New returns an empty Map with room for about sizeHint keys.
func New(sizeHint int) *Map {
	if sizeHint < 1 {
		sizeHint = defaultSizeHint
	}
	return &Map{
		m: swiss.NewMap[string, *table.Stats](uint32(sizeHint)),
	}
}

// Merge builds a Map from the contents of every table.
func Merge(tables ...*table.Table) *Map {
	hint := 0
	for _, t := range tables {
		hint = max(hint, t.Len())
	}
	m := New(hint)
	for _, t := range tables {
		m.AddTable(t)
	}
	return m
}

// Add folds s into the statistics for key.  key is copied only if it is new
// to the map.
func (m *Map) Add(key []byte, s table.Stats) {
	// lookups go through a borrowed view of the key; swiss doesn't retain
	// the string it is handed by Get
	if existing, ok := m.m.Get(unsafestring.FromBytes(key)); ok {
		existing.Merge(s)
		return
	}
	owned := s
	m.m.Put(string(key), &owned)
}

// AddTable folds every entry of t into the map.
func (m *Map) AddTable(t *table.Table) {
	t.Each(func(key []byte, s table.Stats) bool {
		m.Add(key, s)
		return true
	})
}

// Get returns the merged statistics for key.
func (m *Map) Get(key string) (table.Stats, bool) {
	s, ok := m.m.Get(key)
	if !ok {
		return table.Stats{}, false
	}
	return *s, true
}

// Len returns the number of distinct keys.
func (m *Map) Len() int {
	return m.m.Count()
}

// Keys returns every key in ascending byte order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.m.Count())
	m.m.Iter(func(k string, _ *table.Stats) bool {
		keys = append(keys, k)
		return false
	})
	// Go string comparison is bytewise, which for valid UTF-8 matches
	// codepoint order
	slices.Sort(keys)
	return keys
}
