// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm64

import (
	"fmt"

	"asmkit.org/mc"
)

// AArch64 fixup kinds. Each patches one immediate field of a 32-bit
// instruction word; the field geometry is in fixupInfos.
const (
	// PCRelADR21 patches the 21-bit split immediate of ADR.
	PCRelADR21 mc.FixupKind = mc.FirstTargetKind + iota

	// PCRelADRP21 patches the 21-bit split page immediate of ADRP.
	PCRelADRP21

	// AddImm12 patches the unsigned 12-bit immediate of ADD/SUB.
	AddImm12

	// LDSTImm12Scale1 through LDSTImm12Scale16 patch the unsigned
	// 12-bit offset of loads and stores, scaled by the access width.
	LDSTImm12Scale1
	LDSTImm12Scale2
	LDSTImm12Scale4
	LDSTImm12Scale8
	LDSTImm12Scale16

	// LDRLiteral19 patches the 19-bit word offset of LDR (literal).
	LDRLiteral19

	// MOVWImm16 stands for the 16-bit immediate of the MOVZ/MOVK
	// family. Resolving one at assembly time is not supported: Apply
	// fails for any nonzero value.
	MOVWImm16

	// PCRelBranch14 patches the 14-bit word offset of TBZ/TBNZ.
	PCRelBranch14

	// PCRelBranch19 patches the 19-bit word offset of conditional
	// branches and CBZ/CBNZ.
	PCRelBranch19

	// PCRelBranch26 patches the 26-bit word offset of B.
	PCRelBranch26

	// PCRelCall26 patches the 26-bit word offset of BL.
	PCRelCall26

	// TLSDescCall marks the BLR of a TLS descriptor call sequence. It
	// patches no bits; it exists to carry a relocation.
	TLSDescCall
)

// Field geometry per kind, indexed by kind relative to
// mc.FirstTargetKind. The order must match the constant block above.
//
// The two ADR forms cover the whole word: their split immediate is
// positioned by adjustValue rather than by a plain shift.
var fixupInfos = [...]mc.FixupInfo{
	{Name: "PCRelADR21", BitOffset: 0, BitWidth: 32, PCRel: true, AlignedDown32: true},
	{Name: "PCRelADRP21", BitOffset: 0, BitWidth: 32, PCRel: true, AlignedDown32: true},
	{Name: "AddImm12", BitOffset: 10, BitWidth: 12},
	{Name: "LDSTImm12Scale1", BitOffset: 10, BitWidth: 12},
	{Name: "LDSTImm12Scale2", BitOffset: 10, BitWidth: 12},
	{Name: "LDSTImm12Scale4", BitOffset: 10, BitWidth: 12},
	{Name: "LDSTImm12Scale8", BitOffset: 10, BitWidth: 12},
	{Name: "LDSTImm12Scale16", BitOffset: 10, BitWidth: 12},
	{Name: "LDRLiteral19", BitOffset: 5, BitWidth: 19, PCRel: true, AlignedDown32: true},
	{Name: "MOVWImm16", BitOffset: 5, BitWidth: 16},
	{Name: "PCRelBranch14", BitOffset: 5, BitWidth: 14, PCRel: true, AlignedDown32: true},
	{Name: "PCRelBranch19", BitOffset: 5, BitWidth: 19, PCRel: true, AlignedDown32: true},
	{Name: "PCRelBranch26", BitOffset: 0, BitWidth: 26, PCRel: true, AlignedDown32: true},
	{Name: "PCRelCall26", BitOffset: 0, BitWidth: 26, PCRel: true, AlignedDown32: true},
	{Name: "TLSDescCall"},
}

// KindInfo returns the field geometry for k, covering the generic data
// kinds as well as the AArch64 kinds.
func KindInfo(k mc.FixupKind) (mc.FixupInfo, error) {
	if info, ok := mc.BuiltinInfo(k); ok {
		return info, nil
	}
	if i := int(k - mc.FirstTargetKind); i >= 0 && i < len(fixupInfos) {
		return fixupInfos[i], nil
	}
	return mc.FixupInfo{}, fmt.Errorf("arm64: fixup kind %d: %w", int(k), mc.ErrInvalidKind)
}

// KindName returns the diagnostic name of k.
func KindName(k mc.FixupKind) string {
	if info, err := KindInfo(k); err == nil {
		return info.Name
	}
	return fmt.Sprintf("FixupKind(%d)", int(k))
}

// NumBytes reports how many bytes of the output buffer the fixup kind
// may change.
func NumBytes(k mc.FixupKind) (int, error) {
	switch k {
	case TLSDescCall:
		return 0, nil

	case mc.Data1:
		return 1, nil

	case mc.Data2, MOVWImm16:
		return 2, nil

	case PCRelBranch14,
		AddImm12,
		LDSTImm12Scale1,
		LDSTImm12Scale2,
		LDSTImm12Scale4,
		LDSTImm12Scale8,
		LDSTImm12Scale16,
		LDRLiteral19,
		PCRelBranch19:
		return 3, nil

	case PCRelADR21, PCRelADRP21, PCRelBranch26, PCRelCall26, mc.Data4:
		return 4, nil

	case mc.Data8:
		return 8, nil
	}
	return 0, fmt.Errorf("arm64: fixup kind %d: %w", int(k), mc.ErrInvalidKind)
}

// Kinds lists every fixup kind the back end understands, generic data
// kinds first.
func Kinds() []mc.FixupKind {
	ks := make([]mc.FixupKind, 0, int(mc.FirstTargetKind)-1+len(fixupInfos))
	for k := mc.Data1; k <= mc.Data8; k++ {
		ks = append(ks, k)
	}
	for i := range fixupInfos {
		ks = append(ks, mc.FirstTargetKind+mc.FixupKind(i))
	}
	return ks
}

var kindByName = make(map[string]mc.FixupKind)

func init() {
	for _, k := range Kinds() {
		info, _ := KindInfo(k)
		kindByName[info.Name] = k
	}
}

// KindByName returns the fixup kind with the given diagnostic name.
func KindByName(name string) (mc.FixupKind, bool) {
	k, ok := kindByName[name]
	return k, ok
}
