// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arm64 implements the AArch64 assembler back end: fixup
// validation and application, nop padding, and the ELF flavor's
// relocation decisions.
//
// AArch64 instructions are 32-bit words stored little-endian even on
// big-endian targets; only data is byte-swapped. Instruction encoders
// leave immediate fields zero, and the back end fills them by ORing
// the encoded fixup value into a caller-owned buffer.
package arm64

import (
	"encoding/binary"
	"fmt"
	"io"

	"asmkit.org/mc"
)

// Backend resolves AArch64 fixups against caller-owned output buffers.
//
// Debugvlog and Logf mirror the assembler driver's verbose logging
// hooks. When Debugvlog is set and Logf is non-nil, deferral and
// padding decisions are reported through Logf.
type Backend struct {
	arch *mc.Arch

	Debugvlog bool
	Logf      func(format string, args ...any)
}

var _ mc.Backend = (*Backend)(nil)

// New returns a back end for the given architecture variant. A nil
// arch selects little-endian AArch64.
func New(arch *mc.Arch) *Backend {
	if arch == nil {
		arch = &mc.ArchARM64
	}
	return &Backend{arch: arch}
}

// Arch reports the architecture the back end targets.
func (b *Backend) Arch() *mc.Arch { return b.arch }

// FixupInfo returns the field geometry for k.
func (b *Backend) FixupInfo(k mc.FixupKind) (mc.FixupInfo, error) {
	return KindInfo(k)
}

// adrImmBits positions a 21-bit ADR-class immediate within the
// instruction word: the low two bits land at bit 29, the remaining
// nineteen at bit 5.
func adrImmBits(v uint64) uint64 {
	lo2 := v & 0x3
	hi19 := (v & 0x1ffffc) >> 2
	return hi19<<5 | lo2<<29
}

// checkValue reports whether v fits the field patched by k,
// distinguishing range violations from alignment violations.
func checkValue(k mc.FixupKind, v uint64) error {
	sv := int64(v)
	switch k {
	case PCRelADR21:
		if sv > 2097151 || sv < -2097152 {
			return fmt.Errorf("arm64: %s value %d: %w", KindName(k), sv, mc.ErrOutOfRange)
		}

	case PCRelADRP21:
		// Any page delta is representable; the value is truncated to
		// the field.

	case LDRLiteral19, PCRelBranch19:
		// Signed 21-bit immediate; the low two bits are not encoded.
		if sv > 2097151 || sv < -2097152 {
			return fmt.Errorf("arm64: %s value %d: %w", KindName(k), sv, mc.ErrOutOfRange)
		}

	case AddImm12, LDSTImm12Scale1:
		if v >= 0x1000 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrOutOfRange)
		}

	case LDSTImm12Scale2:
		if v&1 != 0 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrMisaligned)
		}
		if v >= 0x2000 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrOutOfRange)
		}

	case LDSTImm12Scale4:
		if v&3 != 0 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrMisaligned)
		}
		if v >= 0x4000 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrOutOfRange)
		}

	case LDSTImm12Scale8:
		if v&7 != 0 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrMisaligned)
		}
		if v >= 0x8000 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrOutOfRange)
		}

	case LDSTImm12Scale16:
		if v&15 != 0 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrMisaligned)
		}
		if v >= 0x10000 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrOutOfRange)
		}

	case MOVWImm16:
		return fmt.Errorf("arm64: no resolvable MOVZ/MOVK fixups supported: %w", mc.ErrUnsupported)

	case PCRelBranch14:
		if sv > 32767 || sv < -32768 {
			return fmt.Errorf("arm64: %s value %d: %w", KindName(k), sv, mc.ErrOutOfRange)
		}
		// The low two bits are not encoded; targets must be word
		// aligned.
		if v&3 != 0 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrMisaligned)
		}

	case PCRelBranch26, PCRelCall26:
		if sv > 134217727 || sv < -134217728 {
			return fmt.Errorf("arm64: %s value %d: %w", KindName(k), sv, mc.ErrOutOfRange)
		}
		if v&3 != 0 {
			return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrMisaligned)
		}

	case mc.Data1, mc.Data2, mc.Data4, mc.Data8:
		// Raw data takes any value.

	case TLSDescCall:
		// Zero-width field: any nonzero value overflows it.
		return fmt.Errorf("arm64: %s value %#x: %w", KindName(k), v, mc.ErrOutOfRange)

	default:
		return fmt.Errorf("arm64: fixup kind %d: %w", int(k), mc.ErrInvalidKind)
	}
	return nil
}

// adjustValue encodes a resolved value into its field representation.
// Values must already have passed checkValue.
func adjustValue(k mc.FixupKind, v uint64) (uint64, error) {
	switch k {
	case PCRelADR21:
		return adrImmBits(v & 0x1fffff), nil
	case PCRelADRP21:
		// The page delta: bits 12 through 32 of the value.
		return adrImmBits((v & 0x1fffff000) >> 12), nil
	case LDRLiteral19, PCRelBranch19:
		// The low two bits are not encoded.
		return (v >> 2) & 0x7ffff, nil
	case AddImm12, LDSTImm12Scale1:
		return v, nil
	case LDSTImm12Scale2:
		return v >> 1, nil
	case LDSTImm12Scale4:
		return v >> 2, nil
	case LDSTImm12Scale8:
		return v >> 3, nil
	case LDSTImm12Scale16:
		return v >> 4, nil
	case PCRelBranch14:
		return (v >> 2) & 0x3fff, nil
	case PCRelBranch26, PCRelCall26:
		return (v >> 2) & 0x3ffffff, nil
	case mc.Data1, mc.Data2, mc.Data4, mc.Data8:
		return v, nil
	case MOVWImm16:
		return 0, fmt.Errorf("arm64: no resolvable MOVZ/MOVK fixups supported: %w", mc.ErrUnsupported)
	}
	return 0, fmt.Errorf("arm64: fixup kind %d: %w", int(k), mc.ErrInvalidKind)
}

// containerSize reports the byte-swap container for the kind: zero for
// little-endian placement, the data width when the target is big
// endian. Instruction words are always little endian.
func (b *Backend) containerSize(k mc.FixupKind) int {
	if b.arch.ByteOrder == binary.LittleEndian {
		return 0
	}
	switch k {
	case mc.Data1:
		return 1
	case mc.Data2:
		return 2
	case mc.Data4:
		return 4
	case mc.Data8:
		return 8
	}
	return 0
}

// Apply merges the resolved value of f into buf.
//
// The zero value changes no encoding and returns before validation;
// that is what lets always-deferred kinds such as TLSDescCall pass
// through assembly with value zero.
func (b *Backend) Apply(f mc.Fixup, buf []byte) error {
	info, err := KindInfo(f.Kind)
	if err != nil {
		return err
	}
	if f.Value == 0 {
		return nil
	}
	if err := checkValue(f.Kind, f.Value); err != nil {
		return err
	}
	v, err := adjustValue(f.Kind, f.Value)
	if err != nil {
		return err
	}

	// Shift the encoded field into position.
	v <<= info.BitOffset

	n, _ := NumBytes(f.Kind) // kind vetted by the info lookup
	return mc.PatchBytes(buf, f.Offset, v, n, b.containerSize(f.Kind))
}

// ForceRelocation reports whether f must be emitted as a relocation
// even when resolvable. The base back end defers nothing.
func (b *Backend) ForceRelocation(f mc.Fixup) bool { return false }

// NopWord is the encoding of NOP.
const NopWord = 0xd503201f

// WriteNops writes count bytes of padding to w. A count that is not a
// multiple of the instruction width gets its remainder as zero bytes
// first: misaligned padding can only be data, and zeros keep it inert.
// The rest is NOP words in the target byte order.
func (b *Backend) WriteNops(w io.Writer, count int) error {
	if count < 0 {
		return fmt.Errorf("arm64: negative padding count %d", count)
	}
	if b.Debugvlog && b.Logf != nil {
		b.Logf("arm64: pad %d bytes (%d nops)", count, count/4)
	}
	var zero [4]byte
	if r := count % 4; r != 0 {
		if _, err := w.Write(zero[:r]); err != nil {
			return err
		}
	}
	var nop [4]byte
	b.arch.ByteOrder.PutUint32(nop[:], NopWord)
	for n := count / 4; n > 0; n-- {
		if _, err := w.Write(nop[:]); err != nil {
			return err
		}
	}
	return nil
}

// MayNeedRelaxation reports whether inst could require relaxation.
// AArch64 instructions are fixed width and never relax.
func (b *Backend) MayNeedRelaxation(inst uint32) bool { return false }

// FixupNeedsRelaxation carries the generic back end's signed 8-bit
// policy. It is never consulted, because MayNeedRelaxation admits no
// instruction.
func (b *Backend) FixupNeedsRelaxation(f mc.Fixup, value uint64) (bool, error) {
	return int64(value) != int64(int8(value)), nil
}

// RelaxInstruction is unimplemented for AArch64.
func (b *Backend) RelaxInstruction(inst uint32) (uint32, error) {
	return 0, fmt.Errorf("arm64: cannot relax %#08x: %w", inst, mc.ErrUnsupported)
}
