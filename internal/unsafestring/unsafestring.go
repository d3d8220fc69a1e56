// Copyright 2021 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package unsafestring

import (
	"unsafe"
)

// FromBytes returns a string referring to the contents of the input byte slice.
// SAFETY: b must not be modified while the returned string is reachable, and
// the string must not be retained past the lifetime of b's backing memory.
func FromBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
