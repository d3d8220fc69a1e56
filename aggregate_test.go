// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package brc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregateString(t testing.TB, input string, opts ...Option) string {
	t.Helper()
	r, err := Aggregate(context.Background(), []byte(input), opts...)
	require.NoError(t, err)
	return r.String()
}

func TestAggregateEndToEnd(t *testing.T) {
	require.Equal(t, "{x=1.0/2.0/3.0, y=2.5/2.5/2.5}\n", aggregateString(t, "x;1.0\ny;2.5\nx;3.0\n"))
}

func TestAggregateRounding(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected string
	}{
		{"A;1.0\nA;2.0\nA;4.0\n", "{A=1.0/2.3/4.0}\n"},
		{"B;-1.0\nB;-2.0\n", "{B=-2.0/-1.5/-1.0}\n"},
		// half rounds away from zero on both sides
		{"C;0.1\nC;0.2\n", "{C=0.1/0.2/0.2}\n"},
		{"D;-0.1\nD;-0.2\n", "{D=-0.2/-0.2/-0.1}\n"},
		{"E;-0.1\nE;0.1\n", "{E=-0.1/0.0/0.1}\n"},
		{"F;-0.4\n", "{F=-0.4/-0.4/-0.4}\n"},
		{"G;3276.7\nG;-3276.8\n", "{G=-3276.8/-0.1/3276.7}\n"},
	} {
		assert.Equal(t, tc.expected, aggregateString(t, tc.input), tc.input)
	}
}

func TestMean(t *testing.T) {
	for _, tc := range []struct {
		s        Stats
		expected int64
	}{
		{Stats{Count: 3, Sum: 70}, 23},
		{Stats{Count: 2, Sum: -30}, -15},
		{Stats{Count: 2, Sum: 3}, 2},
		{Stats{Count: 2, Sum: -3}, -2},
		{Stats{Count: 4, Sum: 0}, 0},
		{Stats{Count: 1, Sum: -7}, -7},
		{Stats{}, 0},
	} {
		assert.Equal(t, tc.expected, Mean(tc.s), "%+v", tc.s)
	}
}

func TestAggregateEmpty(t *testing.T) {
	r, err := Aggregate(context.Background(), nil, WithWorkers(4))
	require.NoError(t, err)
	require.Zero(t, r.Len())
	require.Equal(t, "{}\n", r.String())
}

func TestAggregateSortsBytewise(t *testing.T) {
	out := aggregateString(t, "b;1.0\nZürich;1.0\na;1.0\nİzmir;1.0\nZ;1.0\n")
	require.Equal(t, "{Z=1.0/1.0/1.0, Zürich=1.0/1.0/1.0, a=1.0/1.0/1.0, b=1.0/1.0/1.0, İzmir=1.0/1.0/1.0}\n", out)
}

func TestAggregateResultAccessors(t *testing.T) {
	r, err := Aggregate(context.Background(), []byte("x;1.0\ny;2.5\nx;3.0\n"))
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	require.Equal(t, []string{"x", "y"}, r.Keys())
	s, ok := r.Get("x")
	require.True(t, ok)
	require.Equal(t, Stats{Count: 2, Sum: 40, Min: 10, Max: 30}, s)
	_, ok = r.Get("z")
	require.False(t, ok)

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.Equal(t, r.String(), buf.String())
	require.Equal(t, "prefix "+r.String(), string(r.AppendTo([]byte("prefix "))))
}

var stations = []string{
	"Hamburg", "Bulawayo", "Palembang", "St. John's", "Cracow", "Bridgetown",
	"Istanbul", "Roseau", "Conakry", "Abéché", "São Paulo", "Zürich", "İzmir",
	"Petropavlovsk-Kamchatsky", "Ouagadougou", "Xi'an", "a", "",
}

func generate(rng *rand.Rand, lines int) []byte {
	var buf bytes.Buffer
	for i := 0; i < lines; i++ {
		station := stations[rng.Intn(len(stations))]
		v := rng.Intn(1999) - 999
		sign := ""
		if v < 0 {
			sign = "-"
			v = -v
		}
		if rng.Intn(20) == 0 {
			// the occasional integer-only value
			fmt.Fprintf(&buf, "%s;%s%d\n", station, sign, v/10)
			continue
		}
		fmt.Fprintf(&buf, "%s;%s%d.%d\n", station, sign, v/10, v%10)
	}
	return buf.Bytes()
}

// any number of workers, any chunk size, any schedule and any key hash
// must produce the same output as the baseline
func TestAggregateDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := generate(rng, 20000)

	ref, err := AggregateBaseline(bytes.NewReader(data))
	require.NoError(t, err)
	expected := ref.String()
	require.Equal(t, len(stations), ref.Len())

	for _, workers := range []int{1, 2, 3, 8} {
		for _, chunkSize := range []int{1, 64, 4096, DefaultChunkSize} {
			for _, sched := range []Schedule{ScheduleDynamic, ScheduleStatic} {
				for _, h := range []KeyHash{HashRolling, HashFarm, HashXXH3} {
					name := fmt.Sprintf("workers=%d/chunk=%d/%s/%s", workers, chunkSize, sched, h)
					r, err := Aggregate(context.Background(), data,
						WithWorkers(workers),
						WithChunkSize(chunkSize),
						WithSchedule(sched),
						WithKeyHash(h))
					require.NoError(t, err, name)
					require.Equal(t, expected, r.String(), name)
					for _, key := range ref.Keys() {
						refStats, _ := ref.Get(key)
						s, ok := r.Get(key)
						require.True(t, ok, name)
						require.Equal(t, refStats, s, name)
					}
				}
			}
		}
	}
}

func TestAggregateErrors(t *testing.T) {
	good := string(generate(rand.New(rand.NewSource(1)), 500))
	for _, tc := range []struct {
		name     string
		input    string
		expected error
	}{
		{"bad value", good + "x;1.x\n" + good, ErrSyntax},
		{"out of range", good + "x;3276.8\n" + good, ErrValueOutOfRange},
		{"missing separator", good + "nope\n" + good, ErrMissingSeparator},
		{"truncated", good + "x;1.0", ErrTruncated},
		{"truncated key", good + "x", ErrTruncated},
	} {
		for _, workers := range []int{1, 4} {
			r, err := Aggregate(context.Background(), []byte(tc.input), WithWorkers(workers), WithChunkSize(100))
			require.ErrorIs(t, err, tc.expected, "%s workers=%d", tc.name, workers)
			require.Nil(t, r)
		}
	}
}

// the baseline must reject exactly what Aggregate rejects
func TestBaselineRejectsMalformed(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected error
	}{
		{"x;NaN\n", ErrSyntax},
		{"x;1.25\n", ErrSyntax},
		{"x;1e1\n", ErrSyntax},
		{"x;+1.0\n", ErrSyntax},
		{"x;1.0\r\n", ErrSyntax},
		{"x;3276.8\n", ErrValueOutOfRange},
		{"x;1.0", ErrTruncated},
	} {
		r, err := Aggregate(context.Background(), []byte(tc.input))
		require.ErrorIs(t, err, tc.expected, "%q", tc.input)
		require.Nil(t, r)

		r, err = AggregateBaseline(strings.NewReader(tc.input))
		require.ErrorIs(t, err, tc.expected, "baseline %q", tc.input)
		require.Nil(t, r)
	}
}

func TestAggregateLongKeys(t *testing.T) {
	utf8Key := strings.Repeat("é", 128)
	longKey := strings.Repeat("k", 100000)
	input := []byte(utf8Key + ";1.0\n" + longKey + ";2.0\n" + utf8Key + ";3.0\n")

	expected := "{" + longKey + "=2.0/2.0/2.0, " + utf8Key + "=1.0/2.0/3.0}\n"
	for _, workers := range []int{1, 3} {
		r, err := Aggregate(context.Background(), input, WithWorkers(workers), WithChunkSize(16))
		require.NoError(t, err)
		require.Equal(t, expected, r.String())
	}

	ref, err := AggregateBaseline(bytes.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, expected, ref.String())
}

func TestAggregateErrorOffset(t *testing.T) {
	_, err := Aggregate(context.Background(), []byte("x;1.0\ny;2.0\nz;oops\n"), WithChunkSize(1))
	require.ErrorIs(t, err, ErrSyntax)
	require.Contains(t, err.Error(), "offset 12")
}

func TestAggregateTableFull(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 1<<16+1; i++ {
		fmt.Fprintf(&buf, "%d;1.0\n", i)
	}
	// keys are split across workers by chunk, but a single worker sees them all
	_, err := Aggregate(context.Background(), buf.Bytes(), WithKeyHash(HashXXH3))
	require.ErrorIs(t, err, ErrTableFull)
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := Aggregate(ctx, []byte("x;1.0\n"), WithWorkers(2))
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, r)
}

func TestAggregateInvalidOptions(t *testing.T) {
	for _, opt := range []Option{
		WithWorkers(0),
		WithWorkers(-3),
		WithChunkSize(0),
		WithKeyHash(KeyHash(99)),
		WithSchedule(Schedule(99)),
		WithLogger(nil),
	} {
		_, err := Aggregate(context.Background(), []byte("x;1.0\n"), opt)
		require.ErrorIs(t, err, ErrInvalidOption)
	}
}

func TestParseOptionNames(t *testing.T) {
	for _, h := range []KeyHash{HashRolling, HashFarm, HashXXH3} {
		parsed, err := ParseKeyHash(h.String())
		require.NoError(t, err)
		require.Equal(t, h, parsed)
	}
	_, err := ParseKeyHash("md5")
	require.ErrorIs(t, err, ErrInvalidOption)

	for _, s := range []Schedule{ScheduleDynamic, ScheduleStatic} {
		parsed, err := ParseSchedule(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}
	_, err = ParseSchedule("round-robin")
	require.ErrorIs(t, err, ErrInvalidOption)

	require.Equal(t, "KeyHash(7)", KeyHash(7).String())
	require.Equal(t, "Schedule(7)", Schedule(7).String())
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestAggregateLogs(t *testing.T) {
	var out safeBuffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := Aggregate(context.Background(), []byte("x;1.0\ny;2.0\n"), WithWorkers(3), WithLogger(logger))
	require.NoError(t, err)
	logs := out.String()
	require.Equal(t, 3, strings.Count(logs, "worker finished"))
	require.Contains(t, logs, "merged worker tables")
	require.Contains(t, logs, "keys=2")
}

var (
	benchData     []byte
	benchDataOnce sync.Once
)

func loadBenchData() {
	benchData = generate(rand.New(rand.NewSource(99)), 200000)
}

func BenchmarkAggregate(b *testing.B) {
	benchDataOnce.Do(loadBenchData)
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.SetBytes(int64(len(benchData)))
			for i := 0; i < b.N; i++ {
				if _, err := Aggregate(context.Background(), benchData, WithWorkers(workers), WithChunkSize(64*1024)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// For comparison against BenchmarkAggregate.
func BenchmarkBaseline(b *testing.B) {
	benchDataOnce.Do(loadBenchData)
	b.SetBytes(int64(len(benchData)))
	for i := 0; i < b.N; i++ {
		if _, err := AggregateBaseline(bytes.NewReader(benchData)); err != nil {
			b.Fatal(err)
		}
	}
}
