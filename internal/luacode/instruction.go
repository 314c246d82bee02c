// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"fmt"
	"strconv"
	"strings"
)

// Instruction is a single virtual machine instruction.
//
// The low 6 bits select the [OpCode].
// The remaining bits are split into arguments
// according to the opcode's [OpMode]:
//
//	OpModeABC:  A = bits [6,14)  B = bits [14,23)  C = bits [23,32)
//	OpModeABx:  A = bits [6,14)  Bx = bits [14,32)
//	OpModeAsBx: A = bits [6,14)  sBx = bits [14,32) - 131071
//	OpModeAx:   Ax = bits [6,32)
type Instruction uint32

const (
	sizeOpCode = 6
	sizeA      = 8
	sizeB      = 9
	sizeC      = 9
	sizeBx     = sizeB + sizeC
	sizeAx     = sizeA + sizeBx

	posA  = sizeOpCode
	posB  = posA + sizeA
	posC  = posB + sizeB
	posBx = posB
	posAx = posA

	maxArgA  = 1<<sizeA - 1
	maxArgB  = 1<<sizeB - 1
	maxArgC  = 1<<sizeC - 1
	maxArgBx = 1<<sizeBx - 1
	maxArgAx = 1<<sizeAx - 1

	// offsetSBx is the bias subtracted from Bx in [OpModeAsBx] instructions.
	offsetSBx = maxArgBx >> 1

	// bitRK is set in a B or C argument of kind [ArgConstant]
	// that refers to the constant table instead of a register.
	bitRK = 1 << (sizeB - 1)
	// maxIndexRK is the largest constant index that fits in a B or C argument.
	maxIndexRK = bitRK - 1
)

// ABCInstruction returns a new [OpModeABC] [Instruction]
// with the given arguments.
// ABCInstruction panics if the [OpCode] given
// does not return [OpModeABC] from [OpCode.OpMode]
// or if b or c do not fit in 9 bits.
func ABCInstruction(op OpCode, a uint8, b, c uint16) Instruction {
	if op.OpMode() != OpModeABC {
		panic("ABCInstruction with invalid OpCode")
	}
	if b > maxArgB || c > maxArgC {
		panic("ABCInstruction argument out of range")
	}
	return Instruction(op) |
		Instruction(a)<<posA |
		Instruction(b)<<posB |
		Instruction(c)<<posC
}

// ABxInstruction returns a new [OpModeABx] [Instruction]
// with the given arguments.
// ABxInstruction panics if the [OpCode] given
// does not return [OpModeABx] from [OpCode.OpMode]
// or if bx does not fit in 18 bits.
func ABxInstruction(op OpCode, a uint8, bx uint32) Instruction {
	if op.OpMode() != OpModeABx {
		panic("ABxInstruction with invalid OpCode")
	}
	if bx > maxArgBx {
		panic("Bx argument out of range")
	}
	return Instruction(op) |
		Instruction(a)<<posA |
		Instruction(bx)<<posBx
}

// AsBxInstruction returns a new [OpModeAsBx] [Instruction]
// with the given arguments.
// AsBxInstruction panics if the [OpCode] given
// does not return [OpModeAsBx] from [OpCode.OpMode]
// or if sbx is out of range.
func AsBxInstruction(op OpCode, a uint8, sbx int32) Instruction {
	if op.OpMode() != OpModeAsBx {
		panic("AsBxInstruction with invalid OpCode")
	}
	if !fitsSignedBx(int64(sbx)) {
		panic("sBx argument out of range")
	}
	return Instruction(op) |
		Instruction(a)<<posA |
		Instruction(sbx+offsetSBx)<<posBx
}

// ExtraArgument returns an [OpExtraArg] [Instruction].
// ExtraArgument panics if given an argument that is too large.
func ExtraArgument(ax uint32) Instruction {
	if ax > maxArgAx {
		panic("ExtraArgument argument out of range")
	}
	return Instruction(OpExtraArg) | Instruction(ax)<<posAx
}

// fitsSignedBx reports whether i can be stored in a signed Bx argument.
func fitsSignedBx(i int64) bool {
	return -offsetSBx <= i && i <= maxArgBx-offsetSBx
}

// OpCode returns the instruction's type.
// Every 6-bit value is an [OpCode],
// but some of them are reserved (see [OpCode.IsValid]).
func (i Instruction) OpCode() OpCode {
	return OpCode(i & (1<<sizeOpCode - 1))
}

// ArgA returns the first (A) argument
// of an [OpModeABC], [OpModeABx], or [OpModeAsBx] instruction.
func (i Instruction) ArgA() uint8 {
	switch i.OpCode().OpMode() {
	case OpModeABC, OpModeABx, OpModeAsBx:
		return uint8(i >> posA & maxArgA)
	default:
		return 0
	}
}

// ArgB returns the second (B) argument of an [OpModeABC] instruction.
func (i Instruction) ArgB() uint16 {
	if i.OpCode().OpMode() != OpModeABC {
		return 0
	}
	return uint16(i >> posB & maxArgB)
}

// ArgC returns the third (C) argument of an [OpModeABC] instruction.
func (i Instruction) ArgC() uint16 {
	if i.OpCode().OpMode() != OpModeABC {
		return 0
	}
	return uint16(i >> posC & maxArgC)
}

// ArgBx returns the unsigned second (Bx) argument
// of an [OpModeABx] or [OpModeAsBx] instruction.
// For [OpModeAsBx], this is the raw field before bias correction.
func (i Instruction) ArgBx() uint32 {
	switch i.OpCode().OpMode() {
	case OpModeABx, OpModeAsBx:
		return uint32(i >> posBx & maxArgBx)
	default:
		return 0
	}
}

// ArgSBx returns the signed second (sBx) argument
// of an [OpModeAsBx] instruction.
func (i Instruction) ArgSBx() int32 {
	if i.OpCode().OpMode() != OpModeAsBx {
		return 0
	}
	return int32(i>>posBx&maxArgBx) - offsetSBx
}

// ArgAx returns the argument of an [OpModeAx] instruction.
func (i Instruction) ArgAx() uint32 {
	if i.OpCode().OpMode() != OpModeAx {
		return 0
	}
	return uint32(i >> posAx & maxArgAx)
}

// Operand is an argument of an [Instruction]
// in the form shown by a disassembler.
type Operand struct {
	// Kind is the argument's interpretation.
	// The A argument is always [ArgRegister].
	Kind ArgKind
	// Raw is the argument's bit field.
	Raw uint32
	// Value is the argument as displayed.
	// References to the constant table are shown as negative numbers:
	// constant index k is displayed as -1-k.
	Value int32
}

// IsConstant reports whether the operand refers to the constant table.
func (op Operand) IsConstant() bool {
	return op.Kind == ArgConstant && op.Value < 0
}

// ConstantIndex returns the 0-based index into the constant table
// that the operand refers to.
func (op Operand) ConstantIndex() (_ int, ok bool) {
	if !op.IsConstant() {
		return 0, false
	}
	return int(-1 - op.Value), true
}

// Operands returns the instruction's arguments
// in the form shown by a disassembler.
// Arguments of kind [ArgUnused] are omitted.
func (i Instruction) Operands() []Operand {
	op := i.OpCode()
	info := op.Info()
	switch info.Mode {
	case OpModeABC:
		a := i.ArgA()
		ops := []Operand{{Kind: ArgRegister, Raw: uint32(a), Value: int32(a)}}
		if info.B != ArgUnused {
			ops = append(ops, rkOperand(info.B, i.ArgB()))
		}
		if info.C != ArgUnused {
			ops = append(ops, rkOperand(info.C, i.ArgC()))
		}
		return ops
	case OpModeABx:
		a := i.ArgA()
		ops := []Operand{{Kind: ArgRegister, Raw: uint32(a), Value: int32(a)}}
		bx := i.ArgBx()
		switch info.B {
		case ArgConstant:
			ops = append(ops, Operand{Kind: ArgConstant, Raw: bx, Value: -1 - int32(bx)})
		case ArgRawValue:
			ops = append(ops, Operand{Kind: ArgRawValue, Raw: bx, Value: int32(bx)})
		}
		return ops
	case OpModeAsBx:
		a := i.ArgA()
		return []Operand{
			{Kind: ArgRegister, Raw: uint32(a), Value: int32(a)},
			{Kind: info.B, Raw: i.ArgBx(), Value: i.ArgSBx()},
		}
	case OpModeAx:
		ax := i.ArgAx()
		return []Operand{{Kind: ArgConstant, Raw: ax, Value: -1 - int32(ax)}}
	default:
		panic("unreachable")
	}
}

// rkOperand returns the display form of a B or C argument.
func rkOperand(kind ArgKind, field uint16) Operand {
	op := Operand{Kind: kind, Raw: uint32(field), Value: int32(field)}
	if kind == ArgConstant && field&bitRK != 0 {
		op.Value = -1 - int32(field&maxIndexRK)
	}
	return op
}

// String decodes the instruction
// and formats it in a manner similar to luac -l.
func (i Instruction) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "%-9s\t", i.OpCode())
	for j, op := range i.Operands() {
		if j > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatInt(int64(op.Value), 10))
	}
	return sb.String()
}
