// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package fixedpoint parses and formats decimal measurements with a single
// fractional digit, stored as integers scaled by 10.
package fixedpoint

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

// Scale is the factor between a measurement and its stored integer.
const Scale = 10

// maxDigits bounds the number of digits we accumulate so an int64 never
// overflows, including the extra *10 applied to integer-only tokens.
const maxDigits = 17

var (
	ErrSyntax          = errors.New("malformed value")
	ErrValueOutOfRange = errors.New("value out of int16 range after scaling")
	ErrTruncated       = errors.New("record not terminated by newline")
)

// step is what a single input byte contributes to the running result:
// result = result*mult + digit.
type step struct {
	digit int64
	mult  int64
	dot   int
	bad   uint8
}

var steps = buildSteps()

func buildSteps() (t [256]step) {
	for c := range t {
		switch {
		case c >= '0' && c <= '9':
			t[c] = step{digit: int64(c - '0'), mult: 10}
		case c == '.':
			t[c] = step{mult: 1, dot: 1}
		default:
			t[c] = step{mult: 1, bad: 1}
		}
	}
	return t
}

// Parse converts the value token at the start of b into an integer scaled by
// Scale.  The token is an optional '-', one or more digits, and an optional
// '.' followed by exactly one digit, terminated by '\n'.  n is the number of
// bytes consumed, including the newline.
//
// The digit loop has no data-dependent branches: every byte, including the
// '.', is folded in through a lookup table.
func Parse(b []byte) (value int16, n int, err error) {
	end := bytes.IndexByte(b, '\n')
	if end < 0 {
		return 0, 0, ErrTruncated
	}
	digits := b[:end]
	neg := len(digits) > 0 && digits[0] == '-'
	if neg {
		digits = digits[1:]
	}

	var result int64
	var dots int
	var bad uint8
	for _, c := range digits {
		s := &steps[c]
		result = result*s.mult + s.digit
		dots += s.dot
		bad |= s.bad
	}

	if len(digits) == 0 || bad != 0 || dots > 1 {
		return 0, 0, ErrSyntax
	}
	if dots == 1 && (len(digits) < 3 || digits[len(digits)-2] != '.') {
		return 0, 0, ErrSyntax
	}
	v, err := finish(result, len(digits)-dots, dots == 1, neg)
	if err != nil {
		return 0, 0, err
	}
	return v, end + 1, nil
}

// ParseBranch is equivalent to Parse, but tests each byte explicitly.
func ParseBranch(b []byte) (value int16, n int, err error) {
	i := 0
	neg := false
	if i < len(b) && b[i] == '-' {
		neg = true
		i++
	}
	start := i
	dotAt := -1
	ndigits := 0
	var result int64
	for ; i < len(b) && b[i] != '\n'; i++ {
		c := b[i]
		if c == '.' {
			if dotAt >= 0 {
				return 0, 0, ErrSyntax
			}
			dotAt = i
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, ErrSyntax
		}
		result = result*10 + int64(c-'0')
		ndigits++
	}
	if i == len(b) {
		return 0, 0, ErrTruncated
	}
	if ndigits == 0 {
		return 0, 0, ErrSyntax
	}
	if dotAt >= 0 && (dotAt != i-2 || dotAt == start) {
		return 0, 0, ErrSyntax
	}
	v, err := finish(result, ndigits, dotAt >= 0, neg)
	if err != nil {
		return 0, 0, err
	}
	return v, i + 1, nil
}

func finish(result int64, ndigits int, hasFraction, neg bool) (int16, error) {
	if ndigits > maxDigits {
		return 0, ErrValueOutOfRange
	}
	if !hasFraction {
		result *= Scale
	}
	if neg {
		result = -result
	}
	if result < math.MinInt16 || result > math.MaxInt16 {
		return 0, ErrValueOutOfRange
	}
	return int16(result), nil
}

// AppendScaled appends the decimal form of a scaled value, with exactly one
// fractional digit, to dst.
func AppendScaled(dst []byte, v int64) []byte {
	u := uint64(v)
	if v < 0 {
		dst = append(dst, '-')
		u = -u
	}
	dst = strconv.AppendUint(dst, u/Scale, 10)
	return append(dst, '.', byte('0'+u%Scale))
}
