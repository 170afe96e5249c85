// Copyright 2024 The AsmKit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import "errors"

// Errors reported by back ends. Implementations wrap these with
// context; callers test with errors.Is.
var (
	// ErrInvalidKind reports a fixup kind no table describes.
	ErrInvalidKind = errors.New("invalid fixup kind")

	// ErrOutOfRange reports a resolved value outside the numeric domain
	// of the fixup's field.
	ErrOutOfRange = errors.New("fixup value out of range")

	// ErrMisaligned reports a resolved value that violates the field's
	// alignment requirement.
	ErrMisaligned = errors.New("fixup value not sufficiently aligned")

	// ErrUnsupported reports an operation the target declines to
	// perform, such as a fixup kind it cannot resolve at assembly time.
	ErrUnsupported = errors.New("unsupported fixup")

	// ErrBufferOverflow reports a fixup whose byte span does not fit
	// the output buffer.
	ErrBufferOverflow = errors.New("fixup outside buffer bounds")
)
