// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import (
	"encoding/binary"
	"fmt"
)

// Arch represents an individual architecture variant.
type Arch struct {
	Name string

	ByteOrder binary.ByteOrder

	PtrSize int
	RegSize int

	// MinLC is the minimum length of an instruction code.
	MinLC int
}

var ArchARM64 = Arch{
	Name:      "arm64",
	ByteOrder: binary.LittleEndian,
	PtrSize:   8,
	RegSize:   8,
	MinLC:     4,
}

var ArchARM64BE = Arch{
	Name:      "arm64be",
	ByteOrder: binary.BigEndian,
	PtrSize:   8,
	RegSize:   8,
	MinLC:     4,
}

// ArchByName returns the descriptor for the named architecture
// variant.
func ArchByName(name string) (*Arch, error) {
	switch name {
	case "arm64":
		return &ArchARM64, nil
	case "arm64be":
		return &ArchARM64BE, nil
	}
	return nil, fmt.Errorf("mc: unknown architecture %q", name)
}
