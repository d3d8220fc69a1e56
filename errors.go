// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package brc

import (
	"errors"

	"github.com/HappyCerberus/1brc/internal/fixedpoint"
	"github.com/HappyCerberus/1brc/internal/scan"
	"github.com/HappyCerberus/1brc/internal/table"
)

// Errors returned by Aggregate, matched with errors.Is.  Any of them aborts
// the whole run.
var (
	// ErrSyntax is a value that isn't -?\d+(\.\d)?
	ErrSyntax = fixedpoint.ErrSyntax

	// ErrValueOutOfRange is a value whose magnitude doesn't fit in an
	// int16 once scaled by 10.
	ErrValueOutOfRange = fixedpoint.ErrValueOutOfRange

	// ErrTruncated is a final record without its terminating newline.
	ErrTruncated = fixedpoint.ErrTruncated

	// ErrMissingSeparator is a line with no ';' between key and value.
	ErrMissingSeparator = scan.ErrMissingSeparator

	// ErrTableFull means one worker saw more distinct keys than its
	// table has slots.
	ErrTableFull = table.ErrTableFull

	// ErrInvalidOption is an Option value Aggregate can't run with.
	ErrInvalidOption = errors.New("invalid option")
)
