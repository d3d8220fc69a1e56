// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package brc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/HappyCerberus/1brc/internal/chunk"
	"github.com/HappyCerberus/1brc/internal/scan"
)

// DefaultChunkSize is the amount of input a worker claims at a time.
const DefaultChunkSize = chunk.DefaultSize

// KeyHash selects how keys are hashed into a worker's table.
type KeyHash int

const (
	// HashRolling is h = h*7 + b, computed while scanning for the separator.
	HashRolling KeyHash = iota
	// HashFarm is FarmHash64, truncated to 16 bits.
	HashFarm
	// HashXXH3 is XXH3-64, truncated to 16 bits.
	HashXXH3
)

var keyHashNames = map[KeyHash]string{
	HashRolling: "rolling",
	HashFarm:    "farm",
	HashXXH3:    "xxh3",
}

func (h KeyHash) String() string {
	if name, ok := keyHashNames[h]; ok {
		return name
	}
	return fmt.Sprintf("KeyHash(%d)", int(h))
}

// ParseKeyHash is the inverse of KeyHash.String.
func ParseKeyHash(s string) (KeyHash, error) {
	for h, name := range keyHashNames {
		if name == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown key hash %q", ErrInvalidOption, s)
}

// Schedule selects how the input is divided among workers.
type Schedule int

const (
	// ScheduleDynamic has workers repeatedly claim fixed-size chunks until
	// none are left.
	ScheduleDynamic Schedule = iota
	// ScheduleStatic splits the input up front into one chunk per worker.
	ScheduleStatic
)

var scheduleNames = map[Schedule]string{
	ScheduleDynamic: "dynamic",
	ScheduleStatic:  "static",
}

func (s Schedule) String() string {
	if name, ok := scheduleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Schedule(%d)", int(s))
}

// ParseSchedule is the inverse of Schedule.String.
func ParseSchedule(s string) (Schedule, error) {
	for sched, name := range scheduleNames {
		if name == s {
			return sched, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown schedule %q", ErrInvalidOption, s)
}

// Option configures Aggregate.
type Option func(*options)

type options struct {
	workers   int
	chunkSize int
	keyHash   KeyHash
	schedule  Schedule
	logger    *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		workers:   1,
		chunkSize: DefaultChunkSize,
		keyHash:   HashRolling,
		schedule:  ScheduleDynamic,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) validate() error {
	if o.workers < 1 {
		return fmt.Errorf("%w: workers must be positive (got %d)", ErrInvalidOption, o.workers)
	}
	if o.chunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be positive (got %d)", ErrInvalidOption, o.chunkSize)
	}
	if _, ok := keyHashNames[o.keyHash]; !ok {
		return fmt.Errorf("%w: unknown key hash %d", ErrInvalidOption, int(o.keyHash))
	}
	if _, ok := scheduleNames[o.schedule]; !ok {
		return fmt.Errorf("%w: unknown schedule %d", ErrInvalidOption, int(o.schedule))
	}
	if o.logger == nil {
		return fmt.Errorf("%w: nil logger", ErrInvalidOption)
	}
	return nil
}

func (o *options) hashFunc() scan.HashFunc {
	switch o.keyHash {
	case HashFarm:
		return scan.FarmHash
	case HashXXH3:
		return scan.XXH3Hash
	default:
		// nil: the scanner computes the rolling hash inline
		return nil
	}
}

// WithWorkers sets the number of goroutines scanning the input.  The default
// is 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithChunkSize sets the target size in bytes of the chunks workers claim
// under ScheduleDynamic.  Chunks are extended to the end of a line.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithKeyHash sets the hash used to place keys in each worker's table.  The
// choice affects speed, never the result.
func WithKeyHash(h KeyHash) Option {
	return func(o *options) {
		o.keyHash = h
	}
}

// WithSchedule sets how input is divided among workers.
func WithSchedule(s Schedule) Option {
	return func(o *options) {
		o.schedule = s
	}
}

// WithLogger sets an optional logger for progress updates.  If not provided,
// no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
