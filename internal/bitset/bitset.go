// Copyright 2021 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset tracks which slots of a fixed-capacity table are occupied.
package bitset

// Bitset is conceptually similar to []bool, but 8x smaller and it keeps a
// running count of set bits.
type Bitset struct {
	words  []uint64
	length int
	count  int
}

func offsets(off int) (wordOff int, bitOff uint) {
	return off >> 6, uint(off) & 63
}

// Set sets the bit at position `off` to 1, reporting whether it was
// previously clear.  Out-of-range offsets are ignored.
func (b *Bitset) Set(off int) bool {
	if off < 0 || off >= b.length {
		return false
	}
	wordOff, bitOff := offsets(off)
	w := &b.words[wordOff]
	if *w&(1<<bitOff) != 0 {
		return false
	}
	*w |= 1 << bitOff
	b.count++
	return true
}

// IsSet returns true if the bit at position `off` is 1.
func (b *Bitset) IsSet(off int) bool {
	if off < 0 || off >= b.length {
		return false
	}
	wordOff, bitOff := offsets(off)
	return b.words[wordOff]&(1<<bitOff) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	return b.count
}

// Len returns the number of addressable bits.
func (b *Bitset) Len() int {
	return b.length
}

// New returns a bitset of `length` bits, all clear.
func New(length int) *Bitset {
	return &Bitset{
		words:  make([]uint64, (length+63)/64),
		length: length,
	}
}
