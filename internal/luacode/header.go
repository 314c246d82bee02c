// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

// Signature is the magic header for a binary (pre-compiled) Lua chunk.
const Signature = "\x1bLua"

const (
	luacVersion byte    = 5*16 + 3
	luacFormat  byte    = 0
	luacData            = "\x19\x93\r\n\x1a\n"
	luacInt     int64   = 0x5678
	luacNum     float64 = 370.5

	cIntSize        byte = 4
	sizeTSize       byte = 8
	instructionSize byte = 4
	integerSize     byte = 8
	numberSize      byte = 8
)

// Header is the fixed prefix of a chunk.
// A successfully loaded chunk always has the same header
// (the one returned by [ExpectedHeader]),
// since any deviation is a load error.
type Header struct {
	Signature       [4]byte
	Version         byte
	Format          byte
	Data            [6]byte
	CIntSize        byte
	SizeTSize       byte
	InstructionSize byte
	IntegerSize     byte
	NumberSize      byte
	TestInteger     int64
	TestNumber      float64
}

// ExpectedHeader returns the only [Header] this package accepts.
func ExpectedHeader() Header {
	h := Header{
		Version:         luacVersion,
		Format:          luacFormat,
		CIntSize:        cIntSize,
		SizeTSize:       sizeTSize,
		InstructionSize: instructionSize,
		IntegerSize:     integerSize,
		NumberSize:      numberSize,
		TestInteger:     luacInt,
		TestNumber:      luacNum,
	}
	copy(h.Signature[:], Signature)
	copy(h.Data[:], luacData)
	return h
}

// HeaderSize is the number of bytes in a chunk [Header].
const HeaderSize = len(Signature) + 2 + len(luacData) + 5 + 8 + 8

// readHeader reads and validates the chunk header.
// Validation stops at the first field that does not match.
func readHeader(r *chunkReader) (Header, error) {
	var h Header

	mismatch := func(field HeaderField, start chunkReader) error {
		return &LoadError{Offset: start.off, Err: &HeaderMismatchError{Field: field}}
	}
	start := *r
	sig, err := r.readBytes(uint64(len(Signature)))
	if err != nil {
		return Header{}, err
	}
	if string(sig) != Signature {
		return Header{}, mismatch(FieldSignature, start)
	}
	copy(h.Signature[:], sig)

	byteFields := []struct {
		field HeaderField
		dst   *byte
		want  byte
	}{
		{FieldVersion, &h.Version, luacVersion},
		{FieldFormat, &h.Format, luacFormat},
	}
	for _, f := range byteFields {
		start := *r
		if *f.dst, err = r.readByte(); err != nil {
			return Header{}, err
		}
		if *f.dst != f.want {
			return Header{}, mismatch(f.field, start)
		}
	}

	start = *r
	data, err := r.readBytes(uint64(len(luacData)))
	if err != nil {
		return Header{}, err
	}
	if string(data) != luacData {
		return Header{}, mismatch(FieldData, start)
	}
	copy(h.Data[:], data)

	byteFields = []struct {
		field HeaderField
		dst   *byte
		want  byte
	}{
		{FieldCIntSize, &h.CIntSize, cIntSize},
		{FieldSizeTSize, &h.SizeTSize, sizeTSize},
		{FieldInstructionSize, &h.InstructionSize, instructionSize},
		{FieldIntegerSize, &h.IntegerSize, integerSize},
		{FieldNumberSize, &h.NumberSize, numberSize},
	}
	for _, f := range byteFields {
		start := *r
		if *f.dst, err = r.readByte(); err != nil {
			return Header{}, err
		}
		if *f.dst != f.want {
			return Header{}, mismatch(f.field, start)
		}
	}

	start = *r
	if h.TestInteger, err = r.readInteger(); err != nil {
		return Header{}, err
	}
	if h.TestInteger != luacInt {
		return Header{}, mismatch(FieldEndianness, start)
	}
	start = *r
	if h.TestNumber, err = r.readNumber(); err != nil {
		return Header{}, err
	}
	if h.TestNumber != luacNum {
		return Header{}, mismatch(FieldFloatFormat, start)
	}

	return h, nil
}
