// Copyright 2025 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Mcdump prints AArch64 instruction words together with their fixup
// field breakdown, optionally applying one fixup first.
//
// Usage:
//
//	mcdump [-arch variant] [-goos os] [-kind name -value v -offset n] word ...
//	mcdump -kinds
//
// Each word is a 32-bit instruction encoding in hexadecimal, stored
// little endian in the dump buffer. With -kind, the named fixup is
// applied to the buffer before printing, so the effect of a resolved
// value on a skeleton encoding can be inspected directly:
//
//	$ mcdump -kind PCRelBranch26 -value 0x1000 14000000
//	0x0000	14000400	JMP 0x1000
//
// The -kinds form prints the fixup registry instead: field geometry,
// bytes touched, and the ELF relocation type each kind maps to.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/arch/arm64/arm64asm"

	"asmkit.org/mc"
	"asmkit.org/mc/arm64"
)

var (
	archName  = flag.String("arch", "arm64", "architecture variant (arm64, arm64be)")
	goos      = flag.String("goos", "linux", "target operating system, for the ELF OSABI")
	listKinds = flag.Bool("kinds", false, "print the fixup registry and exit")
	kindName  = flag.String("kind", "", "fixup kind to apply (see -kinds)")
	value     = flag.Int64("value", 0, "resolved fixup value")
	offset    = flag.Int("offset", 0, "byte offset of the fixup")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: mcdump [-arch variant] [-goos os] [-kind name -value v -offset n] word ...\n")
	fmt.Fprintf(os.Stderr, "       mcdump -kinds\n\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("mcdump: ")

	flag.Usage = usage
	flag.Parse()

	arch, err := mc.ArchByName(*archName)
	if err != nil {
		log.Fatal(err)
	}
	backend := arm64.NewELF(arch, arm64.OSABI(*goos))

	if *listKinds {
		printKinds(os.Stdout, backend)
		return
	}
	if flag.NArg() == 0 {
		usage()
	}

	buf := make([]byte, 4*flag.NArg())
	for i, arg := range flag.Args() {
		w, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 32)
		if err != nil {
			log.Fatalf("bad instruction word %q: %v", arg, err)
		}
		// Instruction words are little endian on every variant.
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(w))
	}

	if *kindName != "" {
		k, ok := arm64.KindByName(*kindName)
		if !ok {
			log.Fatalf("unknown fixup kind %q (try -kinds)", *kindName)
		}
		apply(backend, k, buf)
	}

	dump(os.Stdout, buf)
}

func apply(b *arm64.ELFBackend, k mc.FixupKind, buf []byte) {
	f := mc.Fixup{Kind: k, Offset: *offset, Value: uint64(*value)}
	info, err := arm64.KindInfo(k)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("fixup %s value %#x offset %#x\n", info.Name, *value, *offset)
	if b.ForceRelocation(f) {
		fmt.Printf("\talways deferred to the linker\n")
	}
	if rt, err := b.RelocType(k, info.PCRel); err == nil {
		fmt.Printf("\trelocation type %s\n", rt)
	}
	if err := b.Apply(f, buf); err != nil {
		log.Fatal(err)
	}
}

func dump(out io.Writer, buf []byte) {
	w := tabwriter.NewWriter(out, 1, 8, 1, '\t', 0)
	for off := 0; off+4 <= len(buf); off += 4 {
		word := binary.LittleEndian.Uint32(buf[off:])
		text := "?"
		if inst, err := arm64asm.Decode(buf[off:]); err == nil {
			text = arm64asm.GoSyntax(inst, uint64(off), nil, nil)
		}
		fmt.Fprintf(w, "%#06x\t%08x\t%s\n", off, word, text)
	}
	w.Flush()
}

func printKinds(out io.Writer, b *arm64.ELFBackend) {
	w := tabwriter.NewWriter(out, 1, 8, 1, '\t', 0)
	fmt.Fprintf(w, "NAME\tKIND\tOFFSET\tBITS\tPCREL\tBYTES\tRELOC\n")
	for _, k := range arm64.Kinds() {
		info, err := arm64.KindInfo(k)
		if err != nil {
			continue
		}
		n, _ := arm64.NumBytes(k)
		reloc := "-"
		if rt, err := b.RelocType(k, info.PCRel); err == nil {
			reloc = rt.String()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%d\t%s\n",
			info.Name, int(k), info.BitOffset, info.BitWidth, info.PCRel, n, reloc)
	}
	w.Flush()
}
