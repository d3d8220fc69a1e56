// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command brc prints the minimum, mean and maximum value of every station in
// a measurements file.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/profile"

	brc "github.com/HappyCerberus/1brc"
	"github.com/HappyCerberus/1brc/internal/mmapfile"
)

const defaultPath = "measurements.txt"

type config struct {
	path      string
	workers   int
	chunkSize int
	keyHash   brc.KeyHash
	schedule  brc.Schedule
	baseline  bool
	verbose   bool
	profile   string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("brc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := &config{}
	fs.IntVar(&cfg.workers, "workers", 1, "number of worker goroutines")
	fs.IntVar(&cfg.chunkSize, "chunk-size", brc.DefaultChunkSize, "bytes each worker claims at a time")
	hashName := fs.String("hash", brc.HashRolling.String(), "key hash: rolling, farm or xxh3")
	scheduleName := fs.String("schedule", brc.ScheduleDynamic.String(), "work schedule: dynamic or static")
	fs.BoolVar(&cfg.baseline, "baseline", false, "use the single-threaded reference implementation")
	fs.BoolVar(&cfg.verbose, "v", false, "log progress to stderr")
	fs.StringVar(&cfg.profile, "profile", "", "write a `cpu` or `mem` profile to the current directory")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: brc [flags] [path]\n\npath defaults to %s\n\n", defaultPath)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if cfg.keyHash, err = brc.ParseKeyHash(*hashName); err != nil {
		return nil, err
	}
	if cfg.schedule, err = brc.ParseSchedule(*scheduleName); err != nil {
		return nil, err
	}
	switch cfg.profile {
	case "", "cpu", "mem":
	default:
		return nil, fmt.Errorf("unknown profile %q", cfg.profile)
	}

	switch fs.NArg() {
	case 0:
		cfg.path = defaultPath
	case 1:
		cfg.path = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one path, got %d", fs.NArg())
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config, stdout io.Writer, logger *slog.Logger) error {
	start := time.Now()

	f, err := mmapfile.Open(cfg.path)
	if err != nil {
		return err
	}
	defer f.Close()

	var result *brc.Result
	if cfg.baseline {
		result, err = brc.AggregateBaseline(bytes.NewReader(f.Data()))
	} else {
		result, err = brc.Aggregate(ctx, f.Data(),
			brc.WithWorkers(cfg.workers),
			brc.WithChunkSize(cfg.chunkSize),
			brc.WithKeyHash(cfg.keyHash),
			brc.WithSchedule(cfg.schedule),
			brc.WithLogger(logger))
	}
	if err != nil {
		return fmt.Errorf("aggregating %s: %w", cfg.path, err)
	}

	w := bufio.NewWriter(stdout)
	if _, err := result.WriteTo(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logger.Info("done", "path", cfg.path, "bytes", f.Len(), "keys", result.Len(), "elapsed", time.Since(start))
	return nil
}

func main() {
	os.Exit(mainWithCode(os.Args[1:]))
}

// mainWithCode returns instead of exiting so that profile.Stop runs.
func mainWithCode(args []string) int {
	cfg, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "brc: %s\n", err)
		return 2
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	switch cfg.profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	if err := run(context.Background(), cfg, os.Stdout, logger); err != nil {
		logger.Error("failed", "err", err)
		return 1
	}
	return 0
}
