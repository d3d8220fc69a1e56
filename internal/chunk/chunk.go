// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package chunk divides an input buffer into line-aligned ranges that can be
// processed independently.
package chunk

import (
	"bytes"
	"sync"
)

// DefaultSize is the target chunk size when none is configured.
const DefaultSize = 64 * 1024 * 1024

// Chunk is the half-open range [Begin, End) of an input buffer.  End is
// always one past a '\n', or the end of the buffer.
type Chunk struct {
	Begin int
	End   int
}

func (c Chunk) Len() int {
	return c.End - c.Begin
}

func (c Chunk) Empty() bool {
	return c.End <= c.Begin
}

// Bytes returns the chunk's view of data.
func (c Chunk) Bytes(data []byte) []byte {
	return data[c.Begin:c.End:c.End]
}

// alignedEnd returns the end of a chunk that starts at begin and is at least
// size bytes long, extended to include the next '\n'.
func alignedEnd(data []byte, begin, size int) int {
	if size >= len(data)-begin {
		return len(data)
	}
	i := bytes.IndexByte(data[begin+size-1:], '\n')
	if i < 0 {
		return len(data)
	}
	return begin + size + i
}

// Allocator hands out consecutive chunks of a buffer to concurrent callers.
type Allocator struct {
	data []byte
	size int

	mu  sync.Mutex
	off int
}

// NewAllocator returns an Allocator over data.  A targetSize below 1 selects
// DefaultSize.
func NewAllocator(data []byte, targetSize int) *Allocator {
	if targetSize < 1 {
		targetSize = DefaultSize
	}
	return &Allocator{
		data: data,
		size: targetSize,
	}
}

// Next claims the next chunk.  Once the buffer is exhausted it returns an
// empty chunk.  Next is safe to call from multiple goroutines; no two calls
// return overlapping chunks.
func (a *Allocator) Next() Chunk {
	a.mu.Lock()
	defer a.mu.Unlock()

	begin := a.off
	end := alignedEnd(a.data, begin, a.size)
	a.off = end
	return Chunk{Begin: begin, End: end}
}

// Split divides data into at most n line-aligned chunks of roughly equal
// size.  It returns no chunks for an empty buffer.
func Split(data []byte, n int) []Chunk {
	if n < 1 {
		n = 1
	}
	size := max(len(data)/n, 1)

	var chunks []Chunk
	begin := 0
	for i := 0; i < n-1 && begin < len(data); i++ {
		end := alignedEnd(data, begin, size)
		chunks = append(chunks, Chunk{Begin: begin, End: end})
		begin = end
	}
	if begin < len(data) {
		chunks = append(chunks, Chunk{Begin: begin, End: len(data)})
	}
	return chunks
}
