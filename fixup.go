// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

// A FixupKind identifies the species of field a fixup patches. Kinds
// below FirstTargetKind are generic data kinds shared by every target;
// each back end numbers its own kinds from FirstTargetKind up. The
// zero FixupKind is invalid.
type FixupKind int

const (
	// Data1 through Data8 patch raw data of the given byte width. They
	// carry no target-specific semantics.
	Data1 FixupKind = 1 + iota
	Data2
	Data4
	Data8

	// FirstTargetKind is the first kind number available to target
	// back ends.
	FirstTargetKind
)

// A Fixup records one patchable field: the kind of field, the byte
// offset of the patched container within the output buffer, and the
// resolved value to fold in.
//
// For PC-relative kinds the value is the already-computed delta from
// the fixup address (or that address rounded down, for kinds whose
// info sets AlignedDown32) to the target.
type Fixup struct {
	Kind   FixupKind
	Offset int
	Value  uint64
}

// FixupInfo describes the bit field a fixup kind patches.
type FixupInfo struct {
	// Name identifies the kind in diagnostics.
	Name string

	// BitOffset and BitWidth locate the field, counting from bit zero
	// of the byte at the fixup offset.
	BitOffset uint8
	BitWidth  uint8

	// PCRel marks kinds whose value is relative to the fixup address.
	PCRel bool

	// AlignedDown32 marks PC-relative kinds whose base address is the
	// fixup address rounded down to a 32-bit boundary.
	AlignedDown32 bool
}

// The generic data kinds, served by every back end.
var builtinInfos = [FirstTargetKind]FixupInfo{
	Data1: {Name: "Data1", BitWidth: 8},
	Data2: {Name: "Data2", BitWidth: 16},
	Data4: {Name: "Data4", BitWidth: 32},
	Data8: {Name: "Data8", BitWidth: 64},
}

// BuiltinInfo returns the field geometry of the generic data kinds.
// The second result is false for target kinds and unknown values.
func BuiltinInfo(k FixupKind) (FixupInfo, bool) {
	if k >= Data1 && k <= Data8 {
		return builtinInfos[k], true
	}
	return FixupInfo{}, false
}
