// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package brc aggregates large files of `key;value` measurements into
// per-key minimum, mean and maximum.
//
// Input is a single byte buffer, usually a memory-mapped file, of lines like:
//
//	Hamburg;12.0
//	Bulawayo;8.9
//	Palembang;-38.8
//
// Values have at most one fractional digit and are handled as integers
// scaled by 10 throughout, so results are exact and identical no matter how
// the work is split up.
//
// Aggregate divides the buffer into line-aligned chunks, which a pool of
// workers claim one at a time.  Each worker scans its chunks into a private
// fixed-size open-addressing table of 1<<16 slots keyed by a 16-bit hash of
// the key; nothing is shared between workers but the chunk cursor.  Once every
// worker is done the tables are merged by key, and the Result renders as
//
//	{Bulawayo=8.9/8.9/8.9, Hamburg=12.0/12.0/12.0, Palembang=-38.8/-38.8/-38.8}
package brc
