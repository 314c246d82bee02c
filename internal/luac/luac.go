// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

// Package luac prints listings of loaded Lua chunks.
// The output format is roughly the same as [luac(1)] -l.
//
// [luac(1)]: https://www.lua.org/manual/5.3/luac.html
package luac

import (
	"bytes"
	"fmt"
	"io"

	"zb.256lights.llc/luadump/internal/luacode"
)

// Options is the set of parameters for [Print].
// The zero value prints a listing like luac -l.
type Options struct {
	// Full adds constant, local variable, and upvalue tables
	// for each function, like luac -l -l.
	Full bool
	// RawPC shows 0-based program counters
	// instead of the 1-based values luac shows.
	RawPC bool
	// RawWords prints each instruction as a hexadecimal word
	// instead of decoding it.
	RawWords bool
}

// Print writes a listing of f and all its nested functions to w.
func Print(w io.Writer, f *luacode.Prototype, opts *Options) error {
	if opts == nil {
		opts = new(Options)
	}
	p := &printer{
		w:             w,
		functionNames: FunctionNames(f),
		pcBase:        1,
		full:          opts.Full,
		rawWords:      opts.RawWords,
	}
	if opts.RawPC {
		p.pcBase = 0
	}
	return p.printFunction(f)
}

type printer struct {
	w             io.Writer
	functionNames map[*luacode.Prototype]string
	pcBase        int
	full          bool
	rawWords      bool

	lineBuf bytes.Buffer
}

func (p *printer) printFunction(f *luacode.Prototype) error {
	source := f.Source.String()
	if f.Source == "" {
		// Stripped chunks have no source.
		source = "?"
	}
	_, err := fmt.Fprintf(p.w,
		"\n%s <%s:%d,%d> (%s for %s)\n",
		ifElse(f.IsMainChunk(), "main", "function"),
		source,
		f.LineDefined,
		f.LastLineDefined,
		plural(len(f.Code), "instruction", "instructions"),
		p.functionNames[f],
	)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(p.w,
		"%d%s %s, %s, %s, %s, %s, %s\n",
		f.NumParams,
		ifElse(f.HasVarargs(), "+", ""),
		pluralUnit(int(f.NumParams), "param", "params"),
		plural(int(f.MaxStackSize), "slot", "slots"),
		plural(len(f.Upvalues), "upvalue", "upvalues"),
		plural(len(f.LocalVariables), "local", "locals"),
		plural(len(f.Constants), "constant", "constants"),
		plural(len(f.Functions), "function", "functions"),
	)
	if err != nil {
		return err
	}

	for pc, i := range f.Code {
		p.lineBuf.Reset()
		fmt.Fprintf(&p.lineBuf, "\t%d\t", p.pcBase+pc)
		if pc < len(f.LineInfo) {
			fmt.Fprintf(&p.lineBuf, "[%d]\t", f.LineInfo[pc])
		} else {
			p.lineBuf.WriteString("[-]\t")
		}
		if p.rawWords {
			fmt.Fprintf(&p.lineBuf, "0x%08X", uint32(i))
		} else {
			p.lineBuf.WriteString(i.String())
			p.comment(f, pc, i)
		}
		p.lineBuf.WriteByte('\n')
		if _, err := p.w.Write(p.lineBuf.Bytes()); err != nil {
			return err
		}
	}

	if p.full {
		if err := p.printDetails(f); err != nil {
			return err
		}
	}

	for _, f := range f.Functions {
		if err := p.printFunction(f); err != nil {
			return err
		}
	}

	return nil
}

// comment appends a contextual comment for the instruction at pc
// to the line buffer.
func (p *printer) comment(f *luacode.Prototype, pc int, i luacode.Instruction) {
	constant := func(k int) string {
		if k < 0 || k >= len(f.Constants) {
			return "?"
		}
		return f.Constants[k].String()
	}
	rk := func(op luacode.Operand) string {
		if k, ok := op.ConstantIndex(); ok {
			return constant(k)
		}
		return "-"
	}
	upvalueName := func(idx int) string {
		if name := f.UpvalueName(idx); name != "" {
			return name
		}
		return "-"
	}

	ops := i.Operands()
	switch i.OpCode() {
	case luacode.OpLoadK:
		fmt.Fprintf(&p.lineBuf, "\t; %s", constant(int(i.ArgBx())))
	case luacode.OpGetUpval, luacode.OpSetUpval:
		fmt.Fprintf(&p.lineBuf, "\t; %s", upvalueName(int(i.ArgB())))
	case luacode.OpGetTabUp:
		fmt.Fprintf(&p.lineBuf, "\t; %s", upvalueName(int(i.ArgB())))
		if ops[2].IsConstant() {
			fmt.Fprintf(&p.lineBuf, " %s", rk(ops[2]))
		}
	case luacode.OpSetTabUp:
		fmt.Fprintf(&p.lineBuf, "\t; %s", upvalueName(int(i.ArgA())))
		if ops[1].IsConstant() {
			fmt.Fprintf(&p.lineBuf, " %s", rk(ops[1]))
		}
		if ops[2].IsConstant() {
			fmt.Fprintf(&p.lineBuf, " %s", rk(ops[2]))
		}
	case luacode.OpGetTable, luacode.OpSelf:
		if ops[2].IsConstant() {
			fmt.Fprintf(&p.lineBuf, "\t; %s", rk(ops[2]))
		}
	case luacode.OpSetTable,
		luacode.OpAdd, luacode.OpSub, luacode.OpMul, luacode.OpMod,
		luacode.OpPow, luacode.OpDiv, luacode.OpIDiv,
		luacode.OpBAnd, luacode.OpBOr, luacode.OpBXOR, luacode.OpSHL, luacode.OpSHR,
		luacode.OpEQ, luacode.OpLT, luacode.OpLE:
		if ops[1].IsConstant() || ops[2].IsConstant() {
			fmt.Fprintf(&p.lineBuf, "\t; %s %s", rk(ops[1]), rk(ops[2]))
		}
	case luacode.OpJMP, luacode.OpForLoop, luacode.OpForPrep, luacode.OpTForLoop:
		fmt.Fprintf(&p.lineBuf, "\t; to %d", p.pcBase+pc+1+int(i.ArgSBx()))
	case luacode.OpClosure:
		if bx := i.ArgBx(); int(bx) < len(f.Functions) {
			fmt.Fprintf(&p.lineBuf, "\t; %s", p.functionNames[f.Functions[bx]])
		}
	case luacode.OpSetList:
		if c := i.ArgC(); c != 0 {
			fmt.Fprintf(&p.lineBuf, "\t; %d", c)
		} else if pc+1 < len(f.Code) {
			fmt.Fprintf(&p.lineBuf, "\t; %d", f.Code[pc+1].ArgAx())
		}
	case luacode.OpExtraArg:
		fmt.Fprintf(&p.lineBuf, "\t; %s", constant(int(i.ArgAx())))
	}
}

func (p *printer) printDetails(f *luacode.Prototype) error {
	if _, err := fmt.Fprintf(p.w, "constants (%d) for %s\n", len(f.Constants), p.functionNames[f]); err != nil {
		return err
	}
	for i, k := range f.Constants {
		p.lineBuf.Reset()
		fmt.Fprintf(&p.lineBuf, "\t%d\t", i+1)
		switch {
		case k.IsNil():
			p.lineBuf.WriteString("N")
		case k.IsBoolean():
			p.lineBuf.WriteString("B")
		case k.IsInteger():
			p.lineBuf.WriteString("I")
		case k.IsNumber():
			p.lineBuf.WriteString("F")
		case k.IsString():
			p.lineBuf.WriteString("S")
		default:
			p.lineBuf.WriteString("?")
		}
		p.lineBuf.WriteString("\t")
		p.lineBuf.WriteString(k.String())
		p.lineBuf.WriteByte('\n')
		if _, err := p.w.Write(p.lineBuf.Bytes()); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(p.w, "locals (%d) for %s\n", len(f.LocalVariables), p.functionNames[f]); err != nil {
		return err
	}
	for i, v := range f.LocalVariables {
		_, err := fmt.Fprintf(p.w,
			"\t%d\t%s\t%d\t%d\n",
			i,
			v.Name,
			p.pcBase+int(v.StartPC),
			p.pcBase+int(v.EndPC),
		)
		if err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(p.w, "upvalues (%d) for %s\n", len(f.Upvalues), p.functionNames[f]); err != nil {
		return err
	}
	for i, uv := range f.Upvalues {
		name := f.UpvalueName(i)
		if name == "" {
			name = "-"
		}
		_, err := fmt.Fprintf(p.w,
			"\t%d\t%s\t%d\t%d\n",
			i,
			name,
			uv.InStack,
			uv.Index,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FunctionNames returns the names that [Print] uses
// for f and each of its nested functions.
// The top function is "main" (or "top" if it is not a main chunk),
// and nested functions are named by their position, like "F[0]" or "F[0][1]".
func FunctionNames(f *luacode.Prototype) map[*luacode.Prototype]string {
	names := make(map[*luacode.Prototype]string)
	nameFunctions(names, f)
	return names
}

func nameFunctions(names map[*luacode.Prototype]string, f *luacode.Prototype) {
	base := names[f]
	isTop := base == ""
	if isTop {
		if f.IsMainChunk() {
			base = "main"
		} else {
			base = "top"
		}
		names[f] = base
	}

	for i, f := range f.Functions {
		var name string
		if isTop {
			name = fmt.Sprintf("F[%d]", i)
		} else {
			name = fmt.Sprintf("%s[%d]", base, i)
		}
		names[f] = name
		nameFunctions(names, f)
	}
}

func ifElse(b bool, t, f string) string {
	if b {
		return t
	}
	return f
}

func plural(n int, unit string, unitPlural string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %s", n, unitPlural)
}

func pluralUnit(n int, unit string, unitPlural string) string {
	if n == 1 {
		return unit
	}
	return unitPlural
}
