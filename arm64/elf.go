// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm64

import (
	"debug/elf"
	"fmt"

	"asmkit.org/mc"
)

// ELFBackend is the ELF flavor of the AArch64 back end. It pins
// page-relative fixups for the relocation writer and maps fixup kinds
// to the ELF relocation types an object writer should emit.
type ELFBackend struct {
	*Backend
	OSABI uint8
}

var _ mc.Backend = (*ELFBackend)(nil)

// NewELF returns an ELF back end for the architecture variant with the
// given OSABI byte.
func NewELF(arch *mc.Arch, osabi uint8) *ELFBackend {
	return &ELFBackend{Backend: New(arch), OSABI: osabi}
}

// OSABI returns the ELF OSABI byte for a target operating system,
// named GOOS style.
func OSABI(goos string) uint8 {
	if goos == "freebsd" {
		return byte(elf.ELFOSABI_FREEBSD)
	}
	return byte(elf.ELFOSABI_NONE)
}

// ForceRelocation reports whether f must be emitted as a relocation.
//
// ADRP adds some multiple of 0x1000 to PC&^0xfff, so the immediate
// needed to reach a symbol shifts by one page depending on where the
// instruction itself lands. Unless the section's final address is
// known, that decision belongs to the linker: page-relative fixups are
// always deferred.
func (b *ELFBackend) ForceRelocation(f mc.Fixup) bool {
	if f.Kind != PCRelADRP21 {
		return false
	}
	if b.Debugvlog && b.Logf != nil {
		b.Logf("arm64: deferring %s at %#x to the linker", KindName(f.Kind), f.Offset)
	}
	return true
}

// RelocType maps a fixup kind to the ELF relocation type an object
// writer should emit for it. The pcrel argument selects between the
// absolute and PC-relative data relocations; for instruction fixups it
// must match the kind's own addressing.
func (b *ELFBackend) RelocType(k mc.FixupKind, pcrel bool) (elf.R_AARCH64, error) {
	switch k {
	case mc.Data1:
		return 0, fmt.Errorf("arm64: no 1-byte ELF relocation: %w", mc.ErrUnsupported)
	case mc.Data2:
		if pcrel {
			return elf.R_AARCH64_PREL16, nil
		}
		return elf.R_AARCH64_ABS16, nil
	case mc.Data4:
		if pcrel {
			return elf.R_AARCH64_PREL32, nil
		}
		return elf.R_AARCH64_ABS32, nil
	case mc.Data8:
		if pcrel {
			return elf.R_AARCH64_PREL64, nil
		}
		return elf.R_AARCH64_ABS64, nil
	}

	info, err := KindInfo(k)
	if err != nil {
		return 0, err
	}
	if pcrel != info.PCRel {
		return 0, fmt.Errorf("arm64: %s with pcrel=%v: %w", info.Name, pcrel, mc.ErrUnsupported)
	}
	switch k {
	case PCRelADR21:
		return elf.R_AARCH64_ADR_PREL_LO21, nil
	case PCRelADRP21:
		return elf.R_AARCH64_ADR_PREL_PG_HI21, nil
	case AddImm12:
		return elf.R_AARCH64_ADD_ABS_LO12_NC, nil
	case LDSTImm12Scale1:
		return elf.R_AARCH64_LDST8_ABS_LO12_NC, nil
	case LDSTImm12Scale2:
		return elf.R_AARCH64_LDST16_ABS_LO12_NC, nil
	case LDSTImm12Scale4:
		return elf.R_AARCH64_LDST32_ABS_LO12_NC, nil
	case LDSTImm12Scale8:
		return elf.R_AARCH64_LDST64_ABS_LO12_NC, nil
	case LDSTImm12Scale16:
		return elf.R_AARCH64_LDST128_ABS_LO12_NC, nil
	case LDRLiteral19:
		return elf.R_AARCH64_LD_PREL_LO19, nil
	case PCRelBranch14:
		return elf.R_AARCH64_TSTBR14, nil
	case PCRelBranch19:
		return elf.R_AARCH64_CONDBR19, nil
	case PCRelBranch26:
		return elf.R_AARCH64_JUMP26, nil
	case PCRelCall26:
		return elf.R_AARCH64_CALL26, nil
	case MOVWImm16:
		return 0, fmt.Errorf("arm64: %s has no fixed relocation type: %w", info.Name, mc.ErrUnsupported)
	case TLSDescCall:
		return elf.R_AARCH64_TLSDESC_CALL, nil
	}
	return 0, fmt.Errorf("arm64: fixup kind %d: %w", int(k), mc.ErrInvalidKind)
}
