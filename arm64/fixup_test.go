// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asmkit.org/mc"
)

func TestKindInfoGeometry(t *testing.T) {
	tests := []struct {
		kind      mc.FixupKind
		name      string
		bitOffset uint8
		bitWidth  uint8
		pcrel     bool
	}{
		{mc.Data1, "Data1", 0, 8, false},
		{mc.Data2, "Data2", 0, 16, false},
		{mc.Data4, "Data4", 0, 32, false},
		{mc.Data8, "Data8", 0, 64, false},
		{PCRelADR21, "PCRelADR21", 0, 32, true},
		{PCRelADRP21, "PCRelADRP21", 0, 32, true},
		{AddImm12, "AddImm12", 10, 12, false},
		{LDSTImm12Scale1, "LDSTImm12Scale1", 10, 12, false},
		{LDSTImm12Scale2, "LDSTImm12Scale2", 10, 12, false},
		{LDSTImm12Scale4, "LDSTImm12Scale4", 10, 12, false},
		{LDSTImm12Scale8, "LDSTImm12Scale8", 10, 12, false},
		{LDSTImm12Scale16, "LDSTImm12Scale16", 10, 12, false},
		{LDRLiteral19, "LDRLiteral19", 5, 19, true},
		{MOVWImm16, "MOVWImm16", 5, 16, false},
		{PCRelBranch14, "PCRelBranch14", 5, 14, true},
		{PCRelBranch19, "PCRelBranch19", 5, 19, true},
		{PCRelBranch26, "PCRelBranch26", 0, 26, true},
		{PCRelCall26, "PCRelCall26", 0, 26, true},
		{TLSDescCall, "TLSDescCall", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := KindInfo(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.name, info.Name)
			assert.Equal(t, tt.bitOffset, info.BitOffset, "bit offset")
			assert.Equal(t, tt.bitWidth, info.BitWidth, "bit width")
			assert.Equal(t, tt.pcrel, info.PCRel, "pcrel")
			// Every PC-relative kind measures from the aligned word.
			assert.Equal(t, tt.pcrel, info.AlignedDown32, "aligned-down flag")
		})
	}
}

func TestKindInfoUnknown(t *testing.T) {
	for _, k := range []mc.FixupKind{0, TLSDescCall + 1, 999} {
		_, err := KindInfo(k)
		assert.ErrorIs(t, err, mc.ErrInvalidKind, "kind %d", int(k))
	}
}

func TestNumBytes(t *testing.T) {
	tests := []struct {
		kind mc.FixupKind
		want int
	}{
		{TLSDescCall, 0},
		{mc.Data1, 1},
		{mc.Data2, 2},
		{MOVWImm16, 2},
		{PCRelBranch14, 3},
		{AddImm12, 3},
		{LDSTImm12Scale1, 3},
		{LDSTImm12Scale2, 3},
		{LDSTImm12Scale4, 3},
		{LDSTImm12Scale8, 3},
		{LDSTImm12Scale16, 3},
		{LDRLiteral19, 3},
		{PCRelBranch19, 3},
		{PCRelADR21, 4},
		{PCRelADRP21, 4},
		{PCRelBranch26, 4},
		{PCRelCall26, 4},
		{mc.Data4, 4},
		{mc.Data8, 8},
	}

	for _, tt := range tests {
		t.Run(KindName(tt.kind), func(t *testing.T) {
			n, err := NumBytes(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := NumBytes(mc.FixupKind(999))
	assert.ErrorIs(t, err, mc.ErrInvalidKind)
}

func TestKindsRoundTrip(t *testing.T) {
	ks := Kinds()
	require.Len(t, ks, 19, "4 data kinds plus 15 target kinds")

	seen := make(map[string]bool)
	for _, k := range ks {
		name := KindName(k)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true

		got, ok := KindByName(name)
		require.True(t, ok, "KindByName(%s)", name)
		assert.Equal(t, k, got)
	}

	_, ok := KindByName("PCRelBranch62")
	assert.False(t, ok)
}

func TestKindNameUnknown(t *testing.T) {
	assert.Equal(t, "FixupKind(999)", KindName(mc.FixupKind(999)))
}

func TestAdrImmBits(t *testing.T) {
	tests := []struct {
		value uint64
		want  uint64
	}{
		{0, 0},
		{1, 0x20000000},          // low bits land at bit 29
		{2, 0x40000000},
		{3, 0x60000000},
		{4, 0x00000020},          // high bits land at bit 5
		{0x12345, 0x20091a20},    // 0x12345 = hi19 0x48d1, lo2 1
		{0x1ffffc, 0x00ffffe0},   // max high part
		{0x1fffff, 0x60ffffe0},   // all 21 bits set
	}

	for _, tt := range tests {
		got := adrImmBits(tt.value)
		assert.Equal(t, tt.want, got, "adrImmBits(%#x)", tt.value)
	}
}

func TestAdrImmBitsRoundTrip(t *testing.T) {
	// Undoing the split-field packing recovers the low 21 bits of any
	// delta in the addressable range.
	for d := int64(-2097152); d <= 2097151; d += 257 {
		enc := adrImmBits(uint64(d) & 0x1fffff)
		lo2 := (enc >> 29) & 0x3
		hi19 := (enc >> 5) & 0x7ffff
		if got, want := hi19<<2|lo2, uint64(d)&0x1fffff; got != want {
			t.Fatalf("delta %d: unpacked %#x, want %#x", d, got, want)
		}
	}
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		name    string
		kind    mc.FixupKind
		value   uint64
		wantErr error
	}{
		{"adr at positive limit", PCRelADR21, 2097151, nil},
		{"adr beyond positive limit", PCRelADR21, 2097152, mc.ErrOutOfRange},
		{"adr at negative limit", PCRelADR21, neg(2097152), nil},
		{"adr beyond negative limit", PCRelADR21, neg(2097153), mc.ErrOutOfRange},

		{"adrp takes any page delta", PCRelADRP21, 1 << 40, nil},
		{"adrp negative", PCRelADRP21, neg(1 << 30), nil},

		{"ldr literal at limit", LDRLiteral19, 2097151, nil},
		{"ldr literal beyond limit", LDRLiteral19, 2097152, mc.ErrOutOfRange},
		{"branch19 negative limit", PCRelBranch19, neg(2097152), nil},
		{"branch19 beyond negative limit", PCRelBranch19, neg(2097156), mc.ErrOutOfRange},
		{"branch19 odd value allowed", PCRelBranch19, 2, nil}, // low bits dropped, not checked

		{"add imm12 max", AddImm12, 0xfff, nil},
		{"add imm12 overflow", AddImm12, 0x1000, mc.ErrOutOfRange},
		{"ldst8 max", LDSTImm12Scale1, 0xfff, nil},
		{"ldst8 overflow", LDSTImm12Scale1, 0x1000, mc.ErrOutOfRange},

		{"ldst16 aligned max", LDSTImm12Scale2, 0x1ffe, nil},
		{"ldst16 misaligned", LDSTImm12Scale2, 3, mc.ErrMisaligned},
		{"ldst16 overflow", LDSTImm12Scale2, 0x2000, mc.ErrOutOfRange},
		{"ldst32 aligned max", LDSTImm12Scale4, 0x3ffc, nil},
		{"ldst32 misaligned", LDSTImm12Scale4, 6, mc.ErrMisaligned},
		{"ldst32 overflow", LDSTImm12Scale4, 0x4000, mc.ErrOutOfRange},
		{"ldst64 aligned max", LDSTImm12Scale8, 0x7ff8, nil},
		{"ldst64 misaligned", LDSTImm12Scale8, 12, mc.ErrMisaligned},
		{"ldst64 overflow", LDSTImm12Scale8, 0x8000, mc.ErrOutOfRange},
		{"ldst128 aligned max", LDSTImm12Scale16, 0xfff0, nil},
		{"ldst128 misaligned", LDSTImm12Scale16, 24, mc.ErrMisaligned},
		{"ldst128 overflow", LDSTImm12Scale16, 0x10000, mc.ErrOutOfRange},

		{"movw never resolves", MOVWImm16, 1, mc.ErrUnsupported},
		{"movw rejected at zero", MOVWImm16, 0, mc.ErrUnsupported},
		{"movw rejected at max", MOVWImm16, ^uint64(0), mc.ErrUnsupported},

		{"branch14 at limit", PCRelBranch14, 32764, nil},
		{"branch14 beyond limit", PCRelBranch14, 32768, mc.ErrOutOfRange},
		{"branch14 misaligned", PCRelBranch14, 6, mc.ErrMisaligned},
		{"branch14 negative", PCRelBranch14, neg(32768), nil},

		{"branch26 at limit", PCRelBranch26, 134217724, nil},
		{"branch26 beyond limit", PCRelBranch26, 134217728, mc.ErrOutOfRange},
		{"branch26 misaligned", PCRelBranch26, 2, mc.ErrMisaligned},
		{"call26 negative limit", PCRelCall26, neg(134217728), nil},
		{"call26 beyond negative limit", PCRelCall26, neg(134217732), mc.ErrOutOfRange},

		{"data1 any value", mc.Data1, 0xff, nil},
		{"data8 any value", mc.Data8, ^uint64(0), nil},

		{"tlsdesc carries no value", TLSDescCall, 4, mc.ErrOutOfRange},

		{"unknown kind", mc.FixupKind(999), 4, mc.ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkValue(tt.kind, tt.value)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// neg returns the two's-complement bit pattern of -v as carried in a
// resolved fixup value.
func neg(v int64) uint64 {
	return uint64(-v)
}

func TestAdjustValue(t *testing.T) {
	tests := []struct {
		name  string
		kind  mc.FixupKind
		value uint64
		want  uint64
	}{
		{"adr +4", PCRelADR21, 4, 0x20},
		{"adr +1", PCRelADR21, 1, 0x20000000},
		{"adr -4", PCRelADR21, neg(4), 0xffffe0},
		{"adrp one page", PCRelADRP21, 0x1000, 0x20000000},
		{"adrp two pages", PCRelADRP21, 0x2000, 0x40000000},
		{"adrp four pages", PCRelADRP21, 0x4000, 0x20},
		{"adrp sub-page bits dropped", PCRelADRP21, 0xfff, 0},
		{"adrp beyond field truncated", PCRelADRP21, 1 << 33, 0},
		{"ldr literal +8", LDRLiteral19, 8, 2},
		{"branch19 -4", PCRelBranch19, neg(4), 0x7ffff},
		{"branch19 drops low bits", PCRelBranch19, 2, 0},
		{"add imm12", AddImm12, 0x123, 0x123},
		{"ldst scale1", LDSTImm12Scale1, 0xfff, 0xfff},
		{"ldst scale2", LDSTImm12Scale2, 2, 1},
		{"ldst scale4", LDSTImm12Scale4, 4, 1},
		{"ldst scale8", LDSTImm12Scale8, 8, 1},
		{"ldst scale16", LDSTImm12Scale16, 16, 1},
		{"branch14 +8", PCRelBranch14, 8, 2},
		{"branch26 +8", PCRelBranch26, 8, 2},
		{"branch26 -8", PCRelBranch26, neg(8), 0x3fffffe},
		{"call26 +8", PCRelCall26, 8, 2},
		{"data4 identity", mc.Data4, 0xdeadbeef, 0xdeadbeef},
		{"data8 identity", mc.Data8, ^uint64(0), ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adjustValue(tt.kind, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "adjustValue(%s, %#x)", KindName(tt.kind), tt.value)
		})
	}

	_, err := adjustValue(MOVWImm16, 1)
	assert.ErrorIs(t, err, mc.ErrUnsupported)
	_, err = adjustValue(mc.FixupKind(999), 1)
	assert.ErrorIs(t, err, mc.ErrInvalidKind)
}

// TestEncodedValuesFitTheirFields checks, for values the validator
// accepts, that the encoded result fits the declared bit width and that
// shifting it into position stays inside the bytes the kind touches.
func TestEncodedValuesFitTheirFields(t *testing.T) {
	samples := []struct {
		kind   mc.FixupKind
		values []uint64
	}{
		{PCRelADR21, []uint64{neg(2097152), neg(4), 4, 2097151}},
		{PCRelADRP21, []uint64{neg(1 << 30), neg(0x1000), 0x1000, 1 << 40}},
		{AddImm12, []uint64{1, 0x123, 0xfff}},
		{LDSTImm12Scale1, []uint64{1, 0xfff}},
		{LDSTImm12Scale2, []uint64{2, 0x1ffe}},
		{LDSTImm12Scale4, []uint64{4, 0x3ffc}},
		{LDSTImm12Scale8, []uint64{8, 0x7ff8}},
		{LDSTImm12Scale16, []uint64{16, 0xfff0}},
		{LDRLiteral19, []uint64{neg(2097152), 4, 2097151}},
		{PCRelBranch14, []uint64{neg(32768), 4, 32764}},
		{PCRelBranch19, []uint64{neg(2097152), 4, 2097151}},
		{PCRelBranch26, []uint64{neg(134217728), 8, 134217724}},
		{PCRelCall26, []uint64{neg(134217728), 8, 134217724}},
		{mc.Data1, []uint64{1, 0xff}},
		{mc.Data2, []uint64{0xffff}},
		{mc.Data4, []uint64{0xffffffff}},
		{mc.Data8, []uint64{^uint64(0)}},
		// MOVWImm16 never validates; TLSDescCall only ever carries zero.
	}

	for _, s := range samples {
		info, err := KindInfo(s.kind)
		require.NoError(t, err)
		n, err := NumBytes(s.kind)
		require.NoError(t, err)

		for _, v := range s.values {
			require.NoError(t, checkValue(s.kind, v), "%s value %#x", info.Name, v)
			enc, err := adjustValue(s.kind, v)
			require.NoError(t, err)

			if info.BitWidth < 64 && enc>>info.BitWidth != 0 {
				t.Errorf("%s value %#x: encoding %#x wider than %d bits",
					info.Name, v, enc, info.BitWidth)
			}
			if shifted := enc << info.BitOffset; n < 8 && shifted>>(8*n) != 0 {
				t.Errorf("%s value %#x: shifted encoding %#x spills past %d bytes",
					info.Name, v, shifted, n)
			}
		}
	}
}
