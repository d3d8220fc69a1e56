// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package table implements the per-worker aggregation table: a fixed-size,
// open-addressing hash table from key to running statistics.
package table

import (
	"bytes"
	"errors"

	"github.com/HappyCerberus/1brc/internal/bitset"
)

// Capacity is the number of slots in a Table; slot indexes are exactly the
// range of a uint16 hash.
const Capacity = 1 << 16

var ErrTableFull = errors.New("aggregation table full: too many distinct keys")

// Stats are the running statistics for a single key.  Values are fixed-point,
// scaled by 10.
type Stats struct {
	Count uint64
	Sum   int64
	Min   int16
	Max   int16
}

// Merge folds o into s.
func (s *Stats) Merge(o Stats) {
	s.Count += o.Count
	s.Sum += o.Sum
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
}

// Table never grows, shrinks or deletes: once a key lands in a slot, it stays
// there for the lifetime of the table.  Keys are borrowed, not copied, so the
// memory they point into must outlive the Table.
//
// A Table is not safe for concurrent use.
type Table struct {
	keys     [Capacity][]byte
	stats    [Capacity]Stats
	occupied *bitset.Bitset
	// slots in the order they were first filled, so iteration doesn't
	// have to walk every empty slot
	filled []uint16
}

func New() *Table {
	return &Table{
		occupied: bitset.New(Capacity),
	}
}

// Record adds a single observation of value for key.
func (t *Table) Record(key []byte, hash uint16, value int16) error {
	slot, err := t.LookupSlot(key, hash)
	if err != nil {
		return err
	}

	// miss: claim the slot
	if t.occupied.Set(int(slot)) {
		t.keys[slot] = key
		t.stats[slot] = Stats{Count: 1, Sum: int64(value), Min: value, Max: value}
		t.filled = append(t.filled, slot)
		return nil
	}

	// hit: a new value can only move one of the two bounds
	s := &t.stats[slot]
	if value < s.Min {
		s.Min = value
	} else if value > s.Max {
		s.Max = value
	}
	s.Sum += int64(value)
	s.Count++
	return nil
}

// LookupSlot returns the slot holding key, or the first empty slot at or after
// hash where key would go.  If every slot holds some other key it returns
// ErrTableFull.
func (t *Table) LookupSlot(key []byte, hash uint16) (uint16, error) {
	slot := hash
	for probes := 0; probes < Capacity; probes++ {
		if !t.occupied.IsSet(int(slot)) || bytes.Equal(t.keys[slot], key) {
			return slot, nil
		}
		// collision: uint16 arithmetic wraps back to slot 0 for us
		slot++
	}
	return 0, ErrTableFull
}

// Get returns the statistics recorded for key.
func (t *Table) Get(key []byte, hash uint16) (Stats, bool) {
	slot, err := t.LookupSlot(key, hash)
	if err != nil || !t.occupied.IsSet(int(slot)) {
		return Stats{}, false
	}
	return t.stats[slot], true
}

// Len returns the number of distinct keys in the table.
func (t *Table) Len() int {
	return len(t.filled)
}

// Each calls fn for every key in the table, in insertion order, until fn
// returns false.
func (t *Table) Each(fn func(key []byte, s Stats) bool) {
	for _, slot := range t.filled {
		if !fn(t.keys[slot], t.stats[slot]) {
			return
		}
	}
}
