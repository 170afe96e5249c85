// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import "fmt"

// PatchBytes ORs the low n bytes of v into buf starting at off.
//
// A container size of zero scatters bytes little-endian, byte i of v
// landing at off+i. A nonzero container size places the value within a
// big-endian container of that many bytes, byte i of v landing at
// off+container-1-i. Instruction words on otherwise big-endian targets
// use a zero container size: they are stored little-endian regardless
// of the data byte order.
//
// Bits already set in buf are preserved; the fixup field is expected
// to be zero in the encoded skeleton. Nothing is written unless the
// whole span fits.
func PatchBytes(buf []byte, off int, v uint64, n, container int) error {
	if off < 0 || off > len(buf)-n {
		return fmt.Errorf("mc: %d-byte patch at offset %d in %d-byte buffer: %w",
			n, off, len(buf), ErrBufferOverflow)
	}
	if container == 0 {
		for i := 0; i < n; i++ {
			buf[off+i] |= byte(v >> (8 * i))
		}
		return nil
	}
	if off > len(buf)-container || n > container {
		return fmt.Errorf("mc: %d-byte patch in %d-byte container at offset %d in %d-byte buffer: %w",
			n, container, off, len(buf), ErrBufferOverflow)
	}
	for i := 0; i < n; i++ {
		buf[off+container-1-i] |= byte(v >> (8 * i))
	}
	return nil
}
