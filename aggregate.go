// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package brc

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/HappyCerberus/1brc/internal/baseline"
	"github.com/HappyCerberus/1brc/internal/chunk"
	"github.com/HappyCerberus/1brc/internal/merge"
	"github.com/HappyCerberus/1brc/internal/scan"
	"github.com/HappyCerberus/1brc/internal/table"
)

// source hands out chunks of the input until it runs dry, after which it
// returns empty chunks.
type source interface {
	next() chunk.Chunk
}

type allocatorSource struct {
	a *chunk.Allocator
}

func (s allocatorSource) next() chunk.Chunk {
	return s.a.Next()
}

// channelSource serves chunks computed up front; once filled and closed it
// needs no further synchronization beyond the channel itself.
type channelSource <-chan chunk.Chunk

func (s channelSource) next() chunk.Chunk {
	return <-s
}

func newSource(data []byte, o *options) source {
	if o.schedule == ScheduleStatic {
		chunks := chunk.Split(data, o.workers)
		ch := make(chan chunk.Chunk, len(chunks))
		for _, c := range chunks {
			ch <- c
		}
		close(ch)
		return channelSource(ch)
	}
	return allocatorSource{chunk.NewAllocator(data, o.chunkSize)}
}

// Aggregate computes per-key statistics over data, a buffer of
// `key;value\n` lines.  data is only read, and only for the duration of the
// call; the returned Result doesn't reference it.
//
// Aggregation is all or nothing: the first malformed record, or a worker
// running out of table space, stops every worker and Aggregate returns the
// error and no Result.
func Aggregate(ctx context.Context, data []byte, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	logger := o.logger

	logger.Debug("starting aggregation",
		"bytes", len(data),
		"workers", o.workers,
		"schedule", o.schedule,
		"chunkSize", o.chunkSize,
		"keyHash", o.keyHash)

	src := newSource(data, o)
	tables := make([]*table.Table, o.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := range tables {
		tbl := table.New()
		tables[i] = tbl
		w := worker{
			id:     i,
			data:   data,
			src:    src,
			tbl:    tbl,
			hash:   o.hashFunc(),
			logger: logger,
		}
		g.Go(func() error {
			return w.run(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := merge.Merge(tables...)
	logger.Debug("merged worker tables", "tables", len(tables), "keys", merged.Len())

	return &Result{m: merged}, nil
}

// AggregateBaseline computes the same Result as Aggregate, using a
// single-threaded line reader and a Go map.  It exists as a reference for
// checking Aggregate against.
func AggregateBaseline(r io.Reader) (*Result, error) {
	m, err := baseline.Aggregate(r)
	if err != nil {
		return nil, fmt.Errorf("baseline.Aggregate: %w", err)
	}
	return &Result{m: m}, nil
}

type worker struct {
	id     int
	data   []byte
	src    source
	tbl    *table.Table
	hash   scan.HashFunc
	logger *slog.Logger
}

func (w *worker) run(ctx context.Context) error {
	var chunks, records int
	for {
		// another worker failing cancels ctx
		if err := ctx.Err(); err != nil {
			return err
		}
		c := w.src.next()
		if c.Empty() {
			break
		}
		n, err := w.scanChunk(c)
		if err != nil {
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
		chunks++
		records += n
	}

	w.logger.Debug("worker finished",
		"worker", w.id,
		"chunks", chunks,
		"records", records,
		"keys", w.tbl.Len())
	return nil
}

func (w *worker) scanChunk(c chunk.Chunk) (records int, err error) {
	opts := []scan.Option{scan.WithBaseOffset(c.Begin)}
	if w.hash != nil {
		opts = append(opts, scan.WithHash(w.hash))
	}
	s := scan.New(c.Bytes(w.data), opts...)
	for {
		off := s.Offset()
		rec, ok := s.Next()
		if !ok {
			break
		}
		if err := w.tbl.Record(rec.Key, rec.Hash, rec.Value); err != nil {
			return records, fmt.Errorf("record at offset %d: %w", c.Begin+off, err)
		}
		records++
	}
	return records, s.Err()
}
