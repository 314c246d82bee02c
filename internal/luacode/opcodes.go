// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import "fmt"

// OpCode is an enumeration of [Instruction] types.
type OpCode uint8

// Defined [OpCode] values.
const (
	// A B R(A) := R(B)
	OpMove OpCode = 0 // MOVE
	// A Bx R(A) := Kst(Bx)
	OpLoadK OpCode = 1 // LOADK
	// A R(A) := Kst(extra arg)
	OpLoadKX OpCode = 2 // LOADKX
	// A B C R(A) := (Bool)B; if (C) pc++
	OpLoadBool OpCode = 3 // LOADBOOL
	// A B R(A), R(A+1), ..., R(A+B) := nil
	OpLoadNil OpCode = 4 // LOADNIL
	// A B R(A) := UpValue[B]
	OpGetUpval OpCode = 5 // GETUPVAL

	// A B C R(A) := UpValue[B][RK(C)]
	OpGetTabUp OpCode = 6 // GETTABUP
	// A B C R(A) := R(B)[RK(C)]
	OpGetTable OpCode = 7 // GETTABLE

	// A B C UpValue[A][RK(B)] := RK(C)
	OpSetTabUp OpCode = 8 // SETTABUP
	// A B UpValue[B] := R(A)
	OpSetUpval OpCode = 9 // SETUPVAL
	// A B C R(A)[RK(B)] := RK(C)
	OpSetTable OpCode = 10 // SETTABLE

	// A B C R(A) := {} (size = B,C)
	OpNewTable OpCode = 11 // NEWTABLE

	// A B C R(A+1) := R(B); R(A) := R(B)[RK(C)]
	OpSelf OpCode = 12 // SELF

	// A B C R(A) := RK(B) + RK(C)
	OpAdd OpCode = 13 // ADD
	// A B C R(A) := RK(B) - RK(C)
	OpSub OpCode = 14 // SUB
	// A B C R(A) := RK(B) * RK(C)
	OpMul OpCode = 15 // MUL
	// A B C R(A) := RK(B) % RK(C)
	OpMod OpCode = 16 // MOD
	// A B C R(A) := RK(B) ^ RK(C)
	OpPow OpCode = 17 // POW
	// A B C R(A) := RK(B) / RK(C)
	OpDiv OpCode = 18 // DIV
	// A B C R(A) := RK(B) // RK(C)
	OpIDiv OpCode = 19 // IDIV
	// A B C R(A) := RK(B) & RK(C)
	OpBAnd OpCode = 20 // BAND
	// A B C R(A) := RK(B) | RK(C)
	OpBOr OpCode = 21 // BOR
	// A B C R(A) := RK(B) ~ RK(C)
	OpBXOR OpCode = 22 // BXOR
	// A B C R(A) := RK(B) << RK(C)
	OpSHL OpCode = 23 // SHL
	// A B C R(A) := RK(B) >> RK(C)
	OpSHR OpCode = 24 // SHR
	// A B R(A) := -R(B)
	OpUNM OpCode = 25 // UNM
	// A B R(A) := ~R(B)
	OpBNot OpCode = 26 // BNOT
	// A B R(A) := not R(B)
	OpNot OpCode = 27 // NOT
	// A B R(A) := length of R(B)
	OpLen OpCode = 28 // LEN

	// A B C R(A) := R(B).. ... ..R(C)
	OpConcat OpCode = 29 // CONCAT

	// A sBx pc+=sBx; if (A) close all upvalues >= R(A - 1)
	OpJMP OpCode = 30 // JMP
	// A B C if ((RK(B) == RK(C)) ~= A) then pc++
	OpEQ OpCode = 31 // EQ
	// A B C if ((RK(B) <  RK(C)) ~= A) then pc++
	OpLT OpCode = 32 // LT
	// A B C if ((RK(B) <= RK(C)) ~= A) then pc++
	OpLE OpCode = 33 // LE

	// A C if not (R(A) <=> C) then pc++
	OpTest OpCode = 34 // TEST
	// A B C if (R(B) <=> C) then R(A) := R(B) else pc++
	OpTestSet OpCode = 35 // TESTSET

	// A B C R(A), ... ,R(A+C-2) := R(A)(R(A+1), ... ,R(A+B-1))
	OpCall OpCode = 36 // CALL
	// A B C return R(A)(R(A+1), ... ,R(A+B-1))
	OpTailCall OpCode = 37 // TAILCALL
	// A B return R(A), ... ,R(A+B-2)
	OpReturn OpCode = 38 // RETURN

	// A sBx R(A)+=R(A+2); if R(A) <?= R(A+1) then { pc+=sBx; R(A+3)=R(A) }
	OpForLoop OpCode = 39 // FORLOOP
	// A sBx R(A)-=R(A+2); pc+=sBx
	OpForPrep OpCode = 40 // FORPREP

	// A C R(A+3), ... ,R(A+2+C) := R(A)(R(A+1), R(A+2));
	OpTForCall OpCode = 41 // TFORCALL
	// A sBx if R(A+1) ~= nil then { R(A)=R(A+1); pc += sBx }
	OpTForLoop OpCode = 42 // TFORLOOP

	// OpSetList sets the elements [(C-1)*50+1, (C-1)*50+B]
	// of the table in R(A) to the registers [A+1,A+B].
	// If B is 0, the registers up to the stack top are used.
	// If C is 0, the block number is in the following [OpExtraArg] instruction.
	//
	//	A B C R(A)[(C-1)*FPF+i] := R(A+i), 1 <= i <= B
	OpSetList OpCode = 43 // SETLIST

	// A Bx R(A) := closure(KPROTO[Bx])
	OpClosure OpCode = 44 // CLOSURE

	// A B R(A), R(A+1), ..., R(A+B-2) = vararg
	OpVararg OpCode = 45 // VARARG

	// Ax extra (larger) argument for previous opcode
	OpExtraArg OpCode = 46 // EXTRAARG

	maxOpCode = OpExtraArg

	// NumOpCodes is the number of distinct 6-bit opcode values,
	// including reserved ones.
	NumOpCodes = 1 << sizeOpCode
)

// OpMode is an enumeration of [Instruction] formats.
type OpMode uint8

// Instruction formats.
const (
	OpModeABC OpMode = 1 + iota
	OpModeABx
	OpModeAsBx
	OpModeAx
)

func (mode OpMode) String() string {
	switch mode {
	case OpModeABC:
		return "iABC"
	case OpModeABx:
		return "iABx"
	case OpModeAsBx:
		return "iAsBx"
	case OpModeAx:
		return "iAx"
	default:
		return fmt.Sprintf("OpMode(%d)", uint8(mode))
	}
}

// ArgKind describes how an [Instruction] argument is used.
type ArgKind uint8

// Argument kinds.
const (
	// ArgUnused is an argument that is not used.
	ArgUnused ArgKind = iota
	// ArgRawValue is an argument used as a plain number.
	ArgRawValue
	// ArgRegister is a register index or a jump offset.
	ArgRegister
	// ArgConstant is a constant index or, for B and C arguments,
	// a register index or a constant index (see [Operand]).
	ArgConstant
)

func (kind ArgKind) String() string {
	switch kind {
	case ArgUnused:
		return "OpArgN"
	case ArgRawValue:
		return "OpArgU"
	case ArgRegister:
		return "OpArgR"
	case ArgConstant:
		return "OpArgK"
	default:
		return fmt.Sprintf("ArgKind(%d)", uint8(kind))
	}
}

// OpcodeInfo is the static description of an [OpCode].
type OpcodeInfo struct {
	// Name is the opcode's mnemonic.
	// It is empty for reserved opcodes.
	Name string
	Mode OpMode
	B    ArgKind
	C    ArgKind
	// Test is true if the instruction is a test.
	// In a valid program, the next instruction will be a jump.
	Test bool
	// SetsA is true if the instruction changes the register in A.
	SetsA bool
}

// opcodeTable is indexed by [OpCode].
// Slots after maxOpCode are reserved.
var opcodeTable = [NumOpCodes]OpcodeInfo{
	OpMove:     {"MOVE", OpModeABC, ArgRegister, ArgUnused, false, true},
	OpLoadK:    {"LOADK", OpModeABx, ArgConstant, ArgUnused, false, true},
	OpLoadKX:   {"LOADKX", OpModeABx, ArgUnused, ArgUnused, false, true},
	OpLoadBool: {"LOADBOOL", OpModeABC, ArgRawValue, ArgRawValue, false, true},
	OpLoadNil:  {"LOADNIL", OpModeABC, ArgRawValue, ArgUnused, false, true},
	OpGetUpval: {"GETUPVAL", OpModeABC, ArgRawValue, ArgUnused, false, true},
	OpGetTabUp: {"GETTABUP", OpModeABC, ArgRawValue, ArgConstant, false, true},
	OpGetTable: {"GETTABLE", OpModeABC, ArgRegister, ArgConstant, false, true},
	OpSetTabUp: {"SETTABUP", OpModeABC, ArgConstant, ArgConstant, false, false},
	OpSetUpval: {"SETUPVAL", OpModeABC, ArgRawValue, ArgUnused, false, false},
	OpSetTable: {"SETTABLE", OpModeABC, ArgConstant, ArgConstant, false, false},
	OpNewTable: {"NEWTABLE", OpModeABC, ArgRawValue, ArgRawValue, false, true},
	OpSelf:     {"SELF", OpModeABC, ArgRegister, ArgConstant, false, true},
	OpAdd:      {"ADD", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpSub:      {"SUB", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpMul:      {"MUL", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpMod:      {"MOD", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpPow:      {"POW", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpDiv:      {"DIV", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpIDiv:     {"IDIV", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpBAnd:     {"BAND", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpBOr:      {"BOR", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpBXOR:     {"BXOR", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpSHL:      {"SHL", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpSHR:      {"SHR", OpModeABC, ArgConstant, ArgConstant, false, true},
	OpUNM:      {"UNM", OpModeABC, ArgRegister, ArgUnused, false, true},
	OpBNot:     {"BNOT", OpModeABC, ArgRegister, ArgUnused, false, true},
	OpNot:      {"NOT", OpModeABC, ArgRegister, ArgUnused, false, true},
	OpLen:      {"LEN", OpModeABC, ArgRegister, ArgUnused, false, true},
	OpConcat:   {"CONCAT", OpModeABC, ArgRegister, ArgRegister, false, true},
	OpJMP:      {"JMP", OpModeAsBx, ArgRegister, ArgUnused, false, false},
	OpEQ:       {"EQ", OpModeABC, ArgConstant, ArgConstant, true, false},
	OpLT:       {"LT", OpModeABC, ArgConstant, ArgConstant, true, false},
	OpLE:       {"LE", OpModeABC, ArgConstant, ArgConstant, true, false},
	OpTest:     {"TEST", OpModeABC, ArgUnused, ArgRawValue, true, false},
	OpTestSet:  {"TESTSET", OpModeABC, ArgRegister, ArgRawValue, true, true},
	OpCall:     {"CALL", OpModeABC, ArgRawValue, ArgRawValue, false, true},
	OpTailCall: {"TAILCALL", OpModeABC, ArgRawValue, ArgRawValue, false, true},
	OpReturn:   {"RETURN", OpModeABC, ArgRawValue, ArgUnused, false, false},
	OpForLoop:  {"FORLOOP", OpModeAsBx, ArgRegister, ArgUnused, false, true},
	OpForPrep:  {"FORPREP", OpModeAsBx, ArgRegister, ArgUnused, false, true},
	OpTForCall: {"TFORCALL", OpModeABC, ArgUnused, ArgRawValue, false, false},
	OpTForLoop: {"TFORLOOP", OpModeAsBx, ArgRegister, ArgUnused, false, true},
	OpSetList:  {"SETLIST", OpModeABC, ArgRawValue, ArgRawValue, false, false},
	OpClosure:  {"CLOSURE", OpModeABx, ArgRawValue, ArgUnused, false, true},
	OpVararg:   {"VARARG", OpModeABC, ArgRawValue, ArgUnused, false, true},
	OpExtraArg: {"EXTRAARG", OpModeAx, ArgRawValue, ArgRawValue, false, false},
}

func init() {
	for op := maxOpCode + 1; op < NumOpCodes; op++ {
		opcodeTable[op] = OpcodeInfo{
			Mode: OpModeABC,
			B:    ArgRawValue,
			C:    ArgRawValue,
		}
	}
}

// IsValid reports whether the opcode is one of the known instructions.
func (op OpCode) IsValid() bool {
	return op <= maxOpCode
}

// Info returns the opcode's entry in the opcode table.
// Reserved opcodes (and values that do not fit in 6 bits)
// are described as [OpModeABC] instructions with an empty name.
func (op OpCode) Info() OpcodeInfo {
	if op >= NumOpCodes {
		return opcodeTable[maxOpCode+1]
	}
	return opcodeTable[op]
}

// OpMode returns the format of an [Instruction] that uses the opcode.
func (op OpCode) OpMode() OpMode {
	return op.Info().Mode
}

// String returns the opcode's mnemonic
// or "OP_" followed by its number for a reserved opcode.
func (op OpCode) String() string {
	if name := op.Info().Name; name != "" {
		return name
	}
	return fmt.Sprintf("OP_%d", uint8(op))
}

// OpcodeTable returns a copy of the full opcode table,
// indexed by [OpCode].
func OpcodeTable() [NumOpCodes]OpcodeInfo {
	return opcodeTable
}
