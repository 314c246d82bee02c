// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"bytes"
	"fmt"
)

// Load parses a precompiled chunk like those produced by luac 5.3.
// The chunk must have been produced on a machine
// with the same byte order and primitive sizes as the one running Load.
//
// Load returns either a fully populated [Chunk] or an error.
// Errors wrap a [*LoadError] that identifies the failing offset.
// Load does not retain data.
func Load(data []byte) (*Chunk, error) {
	c := new(Chunk)
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return c, nil
}

// UnmarshalBinary loads a precompiled chunk into c.
// See [Load] for details.
// On error, c is left unchanged.
func (c *Chunk) UnmarshalBinary(data []byte) error {
	r := &chunkReader{s: bytes.Clone(data)}
	header, err := readHeader(r)
	if err != nil {
		return fmt.Errorf("load lua chunk: header: %w", err)
	}
	upvalueCount, err := r.readByte()
	if err != nil {
		return fmt.Errorf("load lua chunk: upvalue count: %w", err)
	}
	main := new(Prototype)
	if err := loadFunction(main, r, ""); err != nil {
		return fmt.Errorf("load lua chunk: %w", err)
	}

	*c = Chunk{
		Header:       header,
		UpvalueCount: upvalueCount,
		Main:         main,
	}
	return nil
}

// Minimum encoded sizes of sequence elements.
const (
	minInstructionSize   = 4
	minConstantSize      = 1
	minUpvalueSize       = 2
	minFunctionSize      = 1
	minLineInfoSize      = 4
	minLocalVariableSize = 1 + 4 + 4
	minStringSize        = 1
)

// loadFunction reads a function prototype into f.
// parentSource is used as f's source if the chunk omits it.
func loadFunction(f *Prototype, r *chunkReader, parentSource Source) error {
	source, err := r.readString()
	if err != nil {
		return fmt.Errorf("load function: source: %w", err)
	}
	if source == "" {
		f.Source = parentSource
	} else {
		f.Source = Source(source)
	}

	f.LineDefined, err = r.readUint32()
	if err != nil {
		return fmt.Errorf("load function: line defined: %w", err)
	}
	f.LastLineDefined, err = r.readUint32()
	if err != nil {
		return fmt.Errorf("load function: last line defined: %w", err)
	}
	f.NumParams, err = r.readByte()
	if err != nil {
		return fmt.Errorf("load function: number of parameters: %w", err)
	}
	f.IsVararg, err = r.readByte()
	if err != nil {
		return fmt.Errorf("load function: is vararg: %w", err)
	}
	f.MaxStackSize, err = r.readByte()
	if err != nil {
		return fmt.Errorf("load function: max stack size: %w", err)
	}

	// Code
	n, err := r.readCount(minInstructionSize)
	if err != nil {
		return fmt.Errorf("load function: instruction length: %w", err)
	}
	f.Code = make([]Instruction, n)
	for i := range f.Code {
		code, err := r.readUint32()
		if err != nil {
			return fmt.Errorf("load function: instructions [%d]: %w", i, err)
		}
		f.Code[i] = Instruction(code)
	}

	// Constants
	n, err = r.readCount(minConstantSize)
	if err != nil {
		return fmt.Errorf("load function: constant table size: %w", err)
	}
	f.Constants = make([]Value, n)
	for i := range f.Constants {
		f.Constants[i], err = loadConstant(r, i)
		if err != nil {
			return fmt.Errorf("load function: constant table [%d]: %w", i, err)
		}
	}

	// Upvalues
	n, err = r.readCount(minUpvalueSize)
	if err != nil {
		return fmt.Errorf("load function: upvalues: %w", err)
	}
	f.Upvalues = make([]UpvalueDescriptor, n)
	for i := range f.Upvalues {
		f.Upvalues[i].InStack, err = r.readByte()
		if err != nil {
			return fmt.Errorf("load function: upvalues [%d]: %w", i, err)
		}
		f.Upvalues[i].Index, err = r.readByte()
		if err != nil {
			return fmt.Errorf("load function: upvalues [%d]: %w", i, err)
		}
	}

	// Protos
	n, err = r.readCount(minFunctionSize)
	if err != nil {
		return fmt.Errorf("load function: prototypes: %w", err)
	}
	f.Functions = make([]*Prototype, n)
	for i := range f.Functions {
		fi := new(Prototype)
		if err := loadFunction(fi, r, f.Source); err != nil {
			return err
		}
		f.Functions[i] = fi
	}

	// Debug
	countOffset := r.off
	n, err = r.readCount(minLineInfoSize)
	if err != nil {
		return fmt.Errorf("load function: line info: %w", err)
	}
	if n != 0 && n != len(f.Code) {
		return fmt.Errorf("load function: %w", &LoadError{
			Offset: countOffset,
			Err:    &DebugInfoMismatchError{Table: "line info", Got: n, Want: len(f.Code)},
		})
	}
	f.LineInfo = make([]uint32, n)
	for i := range f.LineInfo {
		f.LineInfo[i], err = r.readUint32()
		if err != nil {
			return fmt.Errorf("load function: line info [%d]: %w", i, err)
		}
	}

	n, err = r.readCount(minLocalVariableSize)
	if err != nil {
		return fmt.Errorf("load function: local variables: %w", err)
	}
	f.LocalVariables = make([]LocalVariable, n)
	for i := range f.LocalVariables {
		v := &f.LocalVariables[i]
		v.Name, err = r.readString()
		if err != nil {
			return fmt.Errorf("load function: local variables [%d]: name: %w", i, err)
		}
		v.StartPC, err = r.readUint32()
		if err != nil {
			return fmt.Errorf("load function: local variables [%d]: start pc: %w", i, err)
		}
		v.EndPC, err = r.readUint32()
		if err != nil {
			return fmt.Errorf("load function: local variables [%d]: end pc: %w", i, err)
		}
	}

	countOffset = r.off
	n, err = r.readCount(minStringSize)
	if err != nil {
		return fmt.Errorf("load function: upvalue names: %w", err)
	}
	if n != 0 && n != len(f.Upvalues) {
		return fmt.Errorf("load function: %w", &LoadError{
			Offset: countOffset,
			Err:    &DebugInfoMismatchError{Table: "upvalue names", Got: n, Want: len(f.Upvalues)},
		})
	}
	f.UpvalueNames = make([]string, n)
	for i := range f.UpvalueNames {
		f.UpvalueNames[i], err = r.readString()
		if err != nil {
			return fmt.Errorf("load function: upvalue names [%d]: %w", i, err)
		}
	}

	return nil
}

// loadConstant reads the i'th entry of a constant table.
// Unknown type tags are an error.
func loadConstant(r *chunkReader, i int) (Value, error) {
	tagOffset := r.off
	tag, err := r.readByte()
	if err != nil {
		return Value{}, err
	}
	switch kind := ValueKind(tag); kind {
	case KindNil:
		return Value{}, nil
	case KindBoolean:
		b, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b != 0), nil
	case KindInteger:
		n, err := r.readInteger()
		if err != nil {
			return Value{}, err
		}
		return IntegerValue(n), nil
	case KindNumber:
		n, err := r.readNumber()
		if err != nil {
			return Value{}, err
		}
		return FloatValue(n), nil
	case KindShortString:
		s, err := r.readString()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case KindLongString:
		s, err := r.readString()
		if err != nil {
			return Value{}, err
		}
		return LongStringValue(s), nil
	default:
		return Value{}, &LoadError{
			Offset: tagOffset,
			Err:    &CorruptConstantError{Tag: tag, Index: i},
		}
	}
}
