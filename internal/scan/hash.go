// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package scan

import (
	"github.com/dgryski/go-farm"
	"github.com/zeebo/xxh3"
)

// HashFunc maps a key to a slot index in a 1<<16 entry table.
type HashFunc func(key []byte) uint16

// RollingHash is the hash the Scanner computes by default while it looks for
// the ';' separator: h = h*7 + b over the key bytes, wrapping at 16 bits.
func RollingHash(key []byte) uint16 {
	var h uint16
	for _, c := range key {
		h = h*7 + uint16(c)
	}
	return h
}

// FarmHash truncates FarmHash64 of the key to 16 bits.
func FarmHash(key []byte) uint16 {
	return uint16(farm.Hash64(key))
}

// XXH3Hash truncates XXH3-64 of the key to 16 bits.
func XXH3Hash(key []byte) uint16 {
	return uint16(xxh3.Hash(key))
}
