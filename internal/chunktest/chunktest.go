// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

// Package chunktest builds binary Lua 5.3 chunks for tests.
// It writes bytes directly so that tests can also produce
// truncated, corrupted, or otherwise malformed chunks.
package chunktest

import (
	"encoding/binary"
	"math"
)

// Header field values.
const (
	Signature = "\x1bLua"
	Version   = 0x53
	Format    = 0
	Data      = "\x19\x93\r\n\x1a\n"
	TestInt   = 0x5678
	TestNum   = 370.5
)

// HeaderSize is the number of bytes written by [AppendHeader].
const HeaderSize = len(Signature) + 2 + len(Data) + 5 + 8 + 8

// Constant type tags.
const (
	TagNil         byte = 0x00
	TagBoolean     byte = 0x01
	TagInteger     byte = 0x03
	TagNumber      byte = 0x13
	TagShortString byte = 0x04
	TagLongString  byte = 0x14
)

// Function is the content of a function prototype.
type Function struct {
	// Source is written as an absent string if empty.
	Source          string
	LineDefined     uint32
	LastLineDefined uint32
	NumParams       byte
	IsVararg        byte
	MaxStackSize    byte

	Code           []uint32
	Constants      []Constant
	Upvalues       []Upvalue
	Functions      []*Function
	LineInfo       []uint32
	LocalVariables []LocalVariable
	UpvalueNames   []string
}

// Constant is an entry in a function's constant table.
type Constant struct {
	// Tag is the type tag written before the payload.
	Tag byte
	// Payload is written verbatim after the tag.
	Payload []byte
}

// Nil returns a nil constant.
func Nil() Constant {
	return Constant{Tag: TagNil}
}

// Bool returns a boolean constant.
func Bool(b bool) Constant {
	if b {
		return Constant{Tag: TagBoolean, Payload: []byte{1}}
	}
	return Constant{Tag: TagBoolean, Payload: []byte{0}}
}

// Integer returns an integer constant.
func Integer(i int64) Constant {
	return Constant{
		Tag:     TagInteger,
		Payload: binary.NativeEndian.AppendUint64(nil, uint64(i)),
	}
}

// Number returns a float constant.
func Number(f float64) Constant {
	return Constant{
		Tag:     TagNumber,
		Payload: binary.NativeEndian.AppendUint64(nil, math.Float64bits(f)),
	}
}

// ShortString returns a short string constant.
func ShortString(s string) Constant {
	return Constant{Tag: TagShortString, Payload: AppendString(nil, s)}
}

// LongString returns a long string constant.
func LongString(s string) Constant {
	return Constant{Tag: TagLongString, Payload: AppendString(nil, s)}
}

// Upvalue is an upvalue descriptor.
type Upvalue struct {
	InStack byte
	Index   byte
}

// LocalVariable is a local variable debug record.
type LocalVariable struct {
	Name    string
	StartPC uint32
	EndPC   uint32
}

// AppendHeader appends the chunk header for the running machine.
func AppendHeader(buf []byte) []byte {
	buf = append(buf, Signature...)
	buf = append(buf, Version, Format)
	buf = append(buf, Data...)
	// Size of int, size_t, Instruction, lua_Integer, and lua_Number in bytes.
	buf = append(buf, 4, 8, 4, 8, 8)
	buf = binary.NativeEndian.AppendUint64(buf, TestInt)
	buf = binary.NativeEndian.AppendUint64(buf, math.Float64bits(TestNum))
	return buf
}

// Chunk returns a complete chunk with main as its main function.
func Chunk(main *Function) []byte {
	buf := AppendHeader(nil)
	buf = append(buf, byte(len(main.Upvalues)))
	return AppendFunction(buf, main)
}

// AppendFunction appends a function prototype.
func AppendFunction(buf []byte, f *Function) []byte {
	if f.Source == "" {
		buf = append(buf, 0)
	} else {
		buf = AppendString(buf, f.Source)
	}
	buf = binary.NativeEndian.AppendUint32(buf, f.LineDefined)
	buf = binary.NativeEndian.AppendUint32(buf, f.LastLineDefined)
	buf = append(buf, f.NumParams, f.IsVararg, f.MaxStackSize)

	buf = appendCount(buf, len(f.Code))
	for _, code := range f.Code {
		buf = binary.NativeEndian.AppendUint32(buf, code)
	}

	buf = appendCount(buf, len(f.Constants))
	for _, k := range f.Constants {
		buf = append(buf, k.Tag)
		buf = append(buf, k.Payload...)
	}

	buf = appendCount(buf, len(f.Upvalues))
	for _, upval := range f.Upvalues {
		buf = append(buf, upval.InStack, upval.Index)
	}

	buf = appendCount(buf, len(f.Functions))
	for _, p := range f.Functions {
		buf = AppendFunction(buf, p)
	}

	buf = appendCount(buf, len(f.LineInfo))
	for _, line := range f.LineInfo {
		buf = binary.NativeEndian.AppendUint32(buf, line)
	}
	buf = appendCount(buf, len(f.LocalVariables))
	for _, v := range f.LocalVariables {
		buf = AppendString(buf, v.Name)
		buf = binary.NativeEndian.AppendUint32(buf, v.StartPC)
		buf = binary.NativeEndian.AppendUint32(buf, v.EndPC)
	}
	buf = appendCount(buf, len(f.UpvalueNames))
	for _, name := range f.UpvalueNames {
		buf = AppendString(buf, name)
	}
	return buf
}

// AppendString appends a string in the dump format,
// using the long size form if the string needs it.
func AppendString(buf []byte, s string) []byte {
	size := uint64(len(s)) + 1
	if size < 0xff {
		buf = append(buf, byte(size))
	} else {
		buf = append(buf, 0xff)
		buf = binary.NativeEndian.AppendUint64(buf, size)
	}
	return append(buf, s...)
}

func appendCount(buf []byte, n int) []byte {
	return binary.NativeEndian.AppendUint32(buf, uint32(n))
}

// ABC returns an instruction word in the iABC format.
func ABC(op, a, b, c uint32) uint32 {
	return op | a<<6 | b<<14 | c<<23
}

// ABx returns an instruction word in the iABx format.
func ABx(op, a, bx uint32) uint32 {
	return op | a<<6 | bx<<14
}

// AsBx returns an instruction word in the iAsBx format.
func AsBx(op, a uint32, sbx int32) uint32 {
	return op | a<<6 | uint32(sbx+131071)<<14
}

// Hello returns the main function of a chunk compiled from:
//
//	local function greet(name)
//	  print("Hello, " .. name)
//	end
//	greet("world")
func Hello() *Function {
	greet := &Function{
		LineDefined:     1,
		LastLineDefined: 3,
		NumParams:       1,
		MaxStackSize:    4,
		Code: []uint32{
			ABC(6, 1, 0, 256), // GETTABUP
			ABx(1, 2, 1),      // LOADK
			ABC(0, 3, 0, 0),   // MOVE
			ABC(29, 2, 2, 3),  // CONCAT
			ABC(36, 1, 2, 1),  // CALL
			ABC(38, 0, 1, 0),  // RETURN
		},
		Constants: []Constant{
			ShortString("print"),
			ShortString("Hello, "),
		},
		Upvalues:       []Upvalue{{InStack: 0, Index: 0}},
		LineInfo:       []uint32{2, 2, 2, 2, 2, 3},
		LocalVariables: []LocalVariable{{Name: "name", StartPC: 0, EndPC: 6}},
		UpvalueNames:   []string{"_ENV"},
	}
	return &Function{
		Source:       "@hello.lua",
		IsVararg:     1,
		MaxStackSize: 3,
		Code: []uint32{
			ABx(44, 0, 0),    // CLOSURE
			ABC(0, 1, 0, 0),  // MOVE
			ABx(1, 2, 0),     // LOADK
			ABC(36, 1, 2, 1), // CALL
			ABC(38, 0, 1, 0), // RETURN
		},
		Constants:      []Constant{ShortString("world")},
		Upvalues:       []Upvalue{{InStack: 1, Index: 0}},
		Functions:      []*Function{greet},
		LineInfo:       []uint32{3, 4, 4, 4, 4},
		LocalVariables: []LocalVariable{{Name: "greet", StartPC: 1, EndPC: 5}},
		UpvalueNames:   []string{"_ENV"},
	}
}
