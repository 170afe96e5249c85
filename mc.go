// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mc provides the target-independent pieces of a machine-code
// assembler back end: the fixup model, the generic data fixup kinds,
// and the byte-level patching that folds resolved fixup values into
// emitted code.
//
// A fixup marks a span of bits inside already-encoded output whose
// final value was unknown when the instruction or datum was first
// written, typically because it refers to a label or symbol. Once
// layout assigns addresses, the assembler resolves each fixup to a
// concrete value and asks the target back end to merge that value into
// the output buffer. Fixups that cannot or must not be resolved at
// assembly time are handed to the object writer as relocations
// instead.
package mc

import "io"

// Backend is the interface a target assembler back end presents to the
// generic assembler. A back end reports fixup field geometry, merges
// resolved fixup values into output buffers, decides which fixups must
// survive as relocations, and pads instruction streams.
//
// Back ends hold no mutable state beyond construction-time
// configuration, so their methods are safe for concurrent use.
type Backend interface {
	// Arch reports the architecture the back end targets.
	Arch() *Arch

	// FixupInfo returns the field geometry for k. It covers both the
	// generic data kinds and the target's own kinds, and fails with
	// ErrInvalidKind for anything else.
	FixupInfo(k FixupKind) (FixupInfo, error)

	// Apply merges the resolved value of f into buf. Only bytes covered
	// by the fixup may be touched, and only by ORing bits in; a fixup
	// whose value is zero leaves buf unchanged. Apply reports
	// validation and bounds failures without writing anything.
	Apply(f Fixup, buf []byte) error

	// ForceRelocation reports whether f must be emitted as a relocation
	// even when its value is fully known at assembly time.
	ForceRelocation(f Fixup) bool

	// WriteNops writes count bytes of architecturally valid padding
	// to w.
	WriteNops(w io.Writer, count int) error

	// MayNeedRelaxation reports whether the encoded instruction inst
	// could need rewriting into a longer form once fixup values are
	// known.
	MayNeedRelaxation(inst uint32) bool

	// FixupNeedsRelaxation reports whether the resolved value forces
	// the instruction carrying f into its relaxed form. It is consulted
	// only for instructions admitted by MayNeedRelaxation.
	FixupNeedsRelaxation(f Fixup, value uint64) (bool, error)

	// RelaxInstruction rewrites inst into its relaxed form.
	RelaxInstruction(inst uint32) (uint32, error)
}
