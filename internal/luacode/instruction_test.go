// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"zb.256lights.llc/luadump/internal/chunktest"
)

func TestInstructionFields(t *testing.T) {
	t.Run("ABC", func(t *testing.T) {
		i := Instruction(chunktest.ABC(uint32(OpSetTable), 200, 511, 300))
		if got, want := i.OpCode(), OpSetTable; got != want {
			t.Errorf("OpCode() = %v; want %v", got, want)
		}
		if got := i.ArgA(); got != 200 {
			t.Errorf("ArgA() = %d; want 200", got)
		}
		if got := i.ArgB(); got != 511 {
			t.Errorf("ArgB() = %d; want 511", got)
		}
		if got := i.ArgC(); got != 300 {
			t.Errorf("ArgC() = %d; want 300", got)
		}
		if i != ABCInstruction(OpSetTable, 200, 511, 300) {
			t.Errorf("ABCInstruction(...) = %#08x; want %#08x", uint32(ABCInstruction(OpSetTable, 200, 511, 300)), uint32(i))
		}
	})

	t.Run("ABx", func(t *testing.T) {
		i := Instruction(chunktest.ABx(uint32(OpLoadK), 7, 262143))
		if got := i.ArgA(); got != 7 {
			t.Errorf("ArgA() = %d; want 7", got)
		}
		if got := i.ArgBx(); got != 262143 {
			t.Errorf("ArgBx() = %d; want 262143", got)
		}
		if got := i.ArgB(); got != 0 {
			t.Errorf("ArgB() = %d; want 0", got)
		}
	})

	t.Run("AsBx", func(t *testing.T) {
		tests := []struct {
			bx   uint32
			want int32
		}{
			{131071, 0},
			{0, -131071},
			{262143, 131072},
			{131072, 1},
		}
		for _, test := range tests {
			i := Instruction(chunktest.ABx(uint32(OpJMP), 0, test.bx))
			if got := i.ArgSBx(); got != test.want {
				t.Errorf("Bx = %d: ArgSBx() = %d; want %d", test.bx, got, test.want)
			}
			if got := AsBxInstruction(OpJMP, 0, test.want); got != i {
				t.Errorf("AsBxInstruction(OpJMP, 0, %d) = %#08x; want %#08x", test.want, uint32(got), uint32(i))
			}
		}
	})

	t.Run("Ax", func(t *testing.T) {
		i := ExtraArgument(1<<26 - 1)
		if got := i.ArgAx(); got != 1<<26-1 {
			t.Errorf("ArgAx() = %d; want %d", got, 1<<26-1)
		}
		if got := i.ArgA(); got != 0 {
			t.Errorf("ArgA() = %d; want 0", got)
		}
	})
}

func TestInstructionOperands(t *testing.T) {
	tests := []struct {
		name string
		i    Instruction
		want []int32
	}{
		{"Move", ABCInstruction(OpMove, 1, 0, 0), []int32{1, 0}},
		{"LoadKFirst", ABxInstruction(OpLoadK, 2, 0), []int32{2, -1}},
		{"LoadKSecond", ABxInstruction(OpLoadK, 2, 1), []int32{2, -2}},
		{"Call", ABCInstruction(OpCall, 1, 2, 1), []int32{1, 2, 1}},
		{"Return", ABCInstruction(OpReturn, 0, 1, 0), []int32{0, 1}},
		{"GetTabUpConstant", ABCInstruction(OpGetTabUp, 1, 0, 256), []int32{1, 0, -1}},
		{"GetTabUpRegister", ABCInstruction(OpGetTabUp, 1, 0, 3), []int32{1, 0, 3}},
		{"AddConstants", ABCInstruction(OpAdd, 0, 257, 511), []int32{0, -2, -256}},
		{"Concat", ABCInstruction(OpConcat, 2, 2, 3), []int32{2, 2, 3}},
		{"Closure", ABxInstruction(OpClosure, 0, 0), []int32{0, 0}},
		{"JumpBack", AsBxInstruction(OpJMP, 0, -3), []int32{0, -3}},
		{"ForPrep", AsBxInstruction(OpForPrep, 4, 2), []int32{4, 2}},
		{"ExtraArg", ExtraArgument(5), []int32{-6}},
		{"Reserved", Instruction(chunktest.ABC(50, 3, 4, 5)), []int32{3, 4, 5}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var got []int32
			for _, op := range test.i.Operands() {
				got = append(got, op.Value)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Operands() values (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOperandConstantIndex(t *testing.T) {
	ops := ABCInstruction(OpGetTabUp, 1, 0, 257).Operands()
	if len(ops) != 3 {
		t.Fatalf("len(Operands()) = %d; want 3", len(ops))
	}
	if _, ok := ops[1].ConstantIndex(); ok {
		t.Error("register operand reported a constant index")
	}
	if k, ok := ops[2].ConstantIndex(); !ok || k != 1 {
		t.Errorf("ConstantIndex() = %d, %t; want 1, true", k, ok)
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		i    Instruction
		want string
	}{
		{ABCInstruction(OpMove, 1, 0, 0), "MOVE     \t1 0"},
		{ABxInstruction(OpLoadK, 2, 0), "LOADK    \t2 -1"},
		{ABCInstruction(OpGetTabUp, 1, 0, 256), "GETTABUP \t1 0 -1"},
		{AsBxInstruction(OpJMP, 0, 1), "JMP      \t0 1"},
		{Instruction(63), "OP_63    \t0 0 0"},
	}
	for _, test := range tests {
		if got := test.i.String(); got != test.want {
			t.Errorf("Instruction(%#08x).String() = %q; want %q", uint32(test.i), got, test.want)
		}
	}
}

func TestOpcodeTable(t *testing.T) {
	table := OpcodeTable()
	if len(table) != 64 {
		t.Fatalf("len(OpcodeTable()) = %d; want 64", len(table))
	}
	for op := range OpCode(NumOpCodes) {
		info := table[op]
		if op.IsValid() != (info.Name != "") {
			t.Errorf("%v.IsValid() = %t; name = %q", op, op.IsValid(), info.Name)
		}
		if info.Mode < OpModeABC || info.Mode > OpModeAx {
			t.Errorf("%v has invalid mode %v", op, info.Mode)
		}
		if !op.IsValid() && (info.Mode != OpModeABC || info.B != ArgRawValue || info.C != ArgRawValue) {
			t.Errorf("reserved %v = %+v; want ABC with raw arguments", op, info)
		}
	}

	tests := []struct {
		op   OpCode
		want OpcodeInfo
	}{
		{OpMove, OpcodeInfo{Name: "MOVE", Mode: OpModeABC, B: ArgRegister, C: ArgUnused, SetsA: true}},
		{OpLoadK, OpcodeInfo{Name: "LOADK", Mode: OpModeABx, B: ArgConstant, C: ArgUnused, SetsA: true}},
		{OpJMP, OpcodeInfo{Name: "JMP", Mode: OpModeAsBx, B: ArgRegister, C: ArgUnused}},
		{OpEQ, OpcodeInfo{Name: "EQ", Mode: OpModeABC, B: ArgConstant, C: ArgConstant, Test: true}},
		{OpExtraArg, OpcodeInfo{Name: "EXTRAARG", Mode: OpModeAx, B: ArgRawValue, C: ArgRawValue}},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.want, table[test.op]); diff != "" {
			t.Errorf("OpcodeTable()[%v] (-want +got):\n%s", test.op, diff)
		}
	}

	if got := OpCode(47).String(); got != "OP_47" {
		t.Errorf("OpCode(47).String() = %q; want %q", got, "OP_47")
	}
}

func FuzzInstruction(f *testing.F) {
	f.Add(uint32(ABxInstruction(OpLoadK, 0, 0)))
	f.Add(uint32(ABxInstruction(OpLoadK, 255, 1<<18-1)))
	f.Add(uint32(AsBxInstruction(OpJMP, 0, -131071)))
	f.Add(uint32(AsBxInstruction(OpForLoop, 3, 131072)))
	f.Add(uint32(ExtraArgument(1<<26 - 1)))
	f.Add(uint32(ABCInstruction(OpSetTable, 200, 511, 300)))
	f.Add(uint32(0xffffffff))

	f.Fuzz(func(t *testing.T, w uint32) {
		i := Instruction(w)
		op := i.OpCode()
		var got Instruction
		switch mode := op.OpMode(); mode {
		case OpModeABC:
			got = ABCInstruction(op, i.ArgA(), i.ArgB(), i.ArgC())
		case OpModeABx:
			got = ABxInstruction(op, i.ArgA(), i.ArgBx())
		case OpModeAsBx:
			got = AsBxInstruction(op, i.ArgA(), i.ArgSBx())
		case OpModeAx:
			if op != OpExtraArg {
				t.Fatalf("%v has mode %v", op, mode)
			}
			got = ExtraArgument(i.ArgAx())
		default:
			t.Fatalf("%v has unknown mode %v", op, mode)
		}
		if got != i {
			t.Errorf("re-encoding %#08x (%v) = %#08x", w, i, uint32(got))
		}
		if len(i.Operands()) == 0 {
			t.Errorf("Instruction(%#08x).Operands() is empty", w)
		}
	})
}
