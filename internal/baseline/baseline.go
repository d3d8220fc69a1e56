// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package baseline is the straightforward way to aggregate measurements: a
// line scanner, strconv and a Go map.  It is slow, but obviously correct,
// which makes it a useful oracle for the fast path.
package baseline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/HappyCerberus/1brc/internal/fixedpoint"
	"github.com/HappyCerberus/1brc/internal/merge"
	"github.com/HappyCerberus/1brc/internal/table"
)

// keys have no length limit
const maxLineLen = math.MaxInt32

var errNoSeparator = errors.New("line has no ';' separator")

// strconv.ParseFloat accepts far more than a measurement: exponents, a
// leading '+', "NaN", "Inf" and extra fractional digits.
var valueRE = regexp.MustCompile(`^-?[0-9]+(\.[0-9])?$`)

// scanTerminatedLines is bufio.ScanLines without the '\r' stripping, and
// with a final line lacking its '\n' reported as an error.
func scanTerminatedLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return 0, nil, fixedpoint.ErrTruncated
	}
	return 0, nil, nil
}

// Aggregate reads every `key;value` line from r.
func Aggregate(r io.Reader) (*merge.Map, error) {
	stats := make(map[string]*table.Stats)

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	s.Split(scanTerminatedLines)
	line := 1
	for ; s.Scan(); line++ {
		key, rawValue, ok := bytes.Cut(s.Bytes(), []byte{';'})
		if !ok {
			return nil, fmt.Errorf("line %d: %w", line, errNoSeparator)
		}
		if !valueRE.Match(rawValue) {
			return nil, fmt.Errorf("line %d: %q: %w", line, rawValue, fixedpoint.ErrSyntax)
		}
		// the only error left for a matching token is strconv.ErrRange
		f, err := strconv.ParseFloat(string(rawValue), 64)
		scaled := math.Round(f * fixedpoint.Scale)
		if err != nil || scaled < math.MinInt16 || scaled > math.MaxInt16 {
			return nil, fmt.Errorf("line %d: %w", line, fixedpoint.ErrValueOutOfRange)
		}
		v := int16(scaled)

		if st, ok := stats[string(key)]; ok {
			st.Count++
			st.Sum += int64(v)
			st.Min = min(st.Min, v)
			st.Max = max(st.Max, v)
		} else {
			stats[string(key)] = &table.Stats{Count: 1, Sum: int64(v), Min: v, Max: v}
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}

	m := merge.New(len(stats))
	for k, st := range stats {
		m.Add([]byte(k), *st)
	}
	return m, nil
}
