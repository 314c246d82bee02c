// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is returned (wrapped in a [*LoadError])
// when a string in a chunk is not valid UTF-8.
var ErrInvalidEncoding = errors.New("string is not valid UTF-8")

// LoadError records the position of a failure to load a chunk.
// Err is one of [io.ErrUnexpectedEOF], [ErrInvalidEncoding],
// [*HeaderMismatchError], [*CorruptConstantError],
// or [*DebugInfoMismatchError].
type LoadError struct {
	// Offset is the byte offset into the chunk
	// where the failing read started.
	Offset int64
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// HeaderField names a field of a chunk [Header].
type HeaderField int

// Header fields in the order they appear in a chunk.
const (
	FieldSignature HeaderField = 1 + iota
	FieldVersion
	FieldFormat
	FieldData
	FieldCIntSize
	FieldSizeTSize
	FieldInstructionSize
	FieldIntegerSize
	FieldNumberSize
	FieldEndianness
	FieldFloatFormat
)

var headerFieldNames = [...]string{
	FieldSignature:       "signature",
	FieldVersion:         "version",
	FieldFormat:          "format",
	FieldData:            "data",
	FieldCIntSize:        "cint size",
	FieldSizeTSize:       "size_t size",
	FieldInstructionSize: "instruction size",
	FieldIntegerSize:     "integer size",
	FieldNumberSize:      "number size",
	FieldEndianness:      "endianness",
	FieldFloatFormat:     "float format",
}

func (field HeaderField) String() string {
	if field <= 0 || int(field) >= len(headerFieldNames) {
		return fmt.Sprintf("HeaderField(%d)", int(field))
	}
	return headerFieldNames[field]
}

// HeaderMismatchError is returned when a field of the chunk header
// does not match the value this package expects.
type HeaderMismatchError struct {
	Field HeaderField
}

func (e *HeaderMismatchError) Error() string {
	switch e.Field {
	case FieldSignature:
		return "not a precompiled chunk"
	default:
		return e.Field.String() + " mismatch"
	}
}

// CorruptConstantError is returned when a constant has an unknown type tag.
type CorruptConstantError struct {
	// Tag is the unrecognized type tag.
	Tag byte
	// Index is the position of the constant in its function's constant table.
	Index int
}

func (e *CorruptConstantError) Error() string {
	return fmt.Sprintf("unknown constant type %#02x", e.Tag)
}

// DebugInfoMismatchError is returned when a debug information table
// is neither empty nor the same length as the table it annotates.
type DebugInfoMismatchError struct {
	// Table is "line info" or "upvalue names".
	Table string
	Got   int
	Want  int
}

func (e *DebugInfoMismatchError) Error() string {
	return fmt.Sprintf("%s: length (%d) does not match table (%d)", e.Table, e.Got, e.Want)
}
