// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

// Package chunkdoc converts loaded Lua chunks into plain documents
// that can be encoded as JSON, YAML, or CBOR.
package chunkdoc

import (
	"encoding/hex"

	"zb.256lights.llc/luadump/internal/luac"
	"zb.256lights.llc/luadump/internal/luacode"
)

// Chunk is the document form of a [luacode.Chunk].
type Chunk struct {
	Header       Header    `json:"header" yaml:"header" cbor:"header"`
	UpvalueCount int       `json:"upvalueCount" yaml:"upvalueCount" cbor:"upvalueCount"`
	Main         *Function `json:"main" yaml:"main" cbor:"main"`
}

// Header is the document form of a [luacode.Header].
// Byte strings are hex-encoded.
type Header struct {
	Signature       string  `json:"signature" yaml:"signature" cbor:"signature"`
	Version         int     `json:"version" yaml:"version" cbor:"version"`
	Format          int     `json:"format" yaml:"format" cbor:"format"`
	Data            string  `json:"data" yaml:"data" cbor:"data"`
	CIntSize        int     `json:"cintSize" yaml:"cintSize" cbor:"cintSize"`
	SizeTSize       int     `json:"sizetSize" yaml:"sizetSize" cbor:"sizetSize"`
	InstructionSize int     `json:"instructionSize" yaml:"instructionSize" cbor:"instructionSize"`
	IntegerSize     int     `json:"integerSize" yaml:"integerSize" cbor:"integerSize"`
	NumberSize      int     `json:"numberSize" yaml:"numberSize" cbor:"numberSize"`
	TestInteger     int64   `json:"testInteger" yaml:"testInteger" cbor:"testInteger"`
	TestNumber      float64 `json:"testNumber" yaml:"testNumber" cbor:"testNumber"`
}

// Function is the document form of a [luacode.Prototype].
type Function struct {
	// Name is the function's position in the tree,
	// like "main" or "F[0][1]".
	// See [luac.FunctionNames].
	Name            string        `json:"name" yaml:"name" cbor:"name"`
	Source          string        `json:"source,omitempty" yaml:"source,omitempty" cbor:"source,omitempty"`
	LineDefined     uint32        `json:"lineDefined" yaml:"lineDefined" cbor:"lineDefined"`
	LastLineDefined uint32        `json:"lastLineDefined" yaml:"lastLineDefined" cbor:"lastLineDefined"`
	NumParams       int           `json:"numParams" yaml:"numParams" cbor:"numParams"`
	IsVararg        bool          `json:"isVararg" yaml:"isVararg" cbor:"isVararg"`
	MaxStackSize    int           `json:"maxStackSize" yaml:"maxStackSize" cbor:"maxStackSize"`
	Instructions    []Instruction `json:"instructions" yaml:"instructions" cbor:"instructions"`
	Constants       []Constant    `json:"constants" yaml:"constants" cbor:"constants"`
	Upvalues        []Upvalue     `json:"upvalues" yaml:"upvalues" cbor:"upvalues"`
	Locals          []Local       `json:"locals,omitempty" yaml:"locals,omitempty" cbor:"locals,omitempty"`
	Functions       []*Function   `json:"functions,omitempty" yaml:"functions,omitempty" cbor:"functions,omitempty"`
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Word uint32 `json:"word" yaml:"word" cbor:"word"`
	// Line is zero if the chunk has no line information.
	Line     uint32  `json:"line,omitzero" yaml:"line,omitempty" cbor:"line,omitempty"`
	Op       string  `json:"op" yaml:"op" cbor:"op"`
	Mode     string  `json:"mode" yaml:"mode" cbor:"mode"`
	Operands []Operand `json:"operands" yaml:"operands" cbor:"operands"`
}

// Operand is an instruction argument.
type Operand struct {
	// Kind is the argument kind from the opcode table, like "OpArgK".
	Kind string `json:"kind" yaml:"kind" cbor:"kind"`
	// Field is the argument's bit field.
	Field uint32 `json:"field" yaml:"field" cbor:"field"`
	// Value is the argument as shown in a listing.
	// Constant references are negative.
	Value int32 `json:"value" yaml:"value" cbor:"value"`
	// Local is the name of the local variable held in the register,
	// if the argument is a register and the chunk has debug information.
	Local string `json:"local,omitempty" yaml:"local,omitempty" cbor:"local,omitempty"`
}

// Constant is an entry in a function's constant table.
// Exactly one of the value fields is set, according to Kind,
// except for nil constants, which set none.
type Constant struct {
	Kind    string   `json:"kind" yaml:"kind" cbor:"kind"`
	Boolean *bool    `json:"boolean,omitempty" yaml:"boolean,omitempty" cbor:"boolean,omitempty"`
	Integer *int64   `json:"integer,omitempty" yaml:"integer,omitempty" cbor:"integer,omitempty"`
	Number  *float64 `json:"number,omitempty,format:nonfinite" yaml:"number,omitempty" cbor:"number,omitempty"`
	String  *string  `json:"string,omitempty" yaml:"string,omitempty" cbor:"string,omitempty"`
}

// Upvalue is an upvalue descriptor with its debug name.
type Upvalue struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty" cbor:"name,omitempty"`
	InStack bool   `json:"inStack" yaml:"inStack" cbor:"inStack"`
	Index   int    `json:"index" yaml:"index" cbor:"index"`
}

// Local is a local variable debug record.
type Local struct {
	Name    string `json:"name" yaml:"name" cbor:"name"`
	StartPC uint32 `json:"startPC" yaml:"startPC" cbor:"startPC"`
	EndPC   uint32 `json:"endPC" yaml:"endPC" cbor:"endPC"`
}

// New returns the document form of c.
func New(c *luacode.Chunk) *Chunk {
	h := c.Header
	return &Chunk{
		Header: Header{
			Signature:       hex.EncodeToString(h.Signature[:]),
			Version:         int(h.Version),
			Format:          int(h.Format),
			Data:            hex.EncodeToString(h.Data[:]),
			CIntSize:        int(h.CIntSize),
			SizeTSize:       int(h.SizeTSize),
			InstructionSize: int(h.InstructionSize),
			IntegerSize:     int(h.IntegerSize),
			NumberSize:      int(h.NumberSize),
			TestInteger:     h.TestInteger,
			TestNumber:      h.TestNumber,
		},
		UpvalueCount: int(c.UpvalueCount),
		Main:         newFunction(luac.FunctionNames(c.Main), c.Main),
	}
}

func newFunction(names map[*luacode.Prototype]string, f *luacode.Prototype) *Function {
	doc := &Function{
		Name:            names[f],
		Source:          string(f.Source),
		LineDefined:     f.LineDefined,
		LastLineDefined: f.LastLineDefined,
		NumParams:       int(f.NumParams),
		IsVararg:        f.HasVarargs(),
		MaxStackSize:    int(f.MaxStackSize),
		Instructions:    make([]Instruction, 0, len(f.Code)),
		Constants:       make([]Constant, 0, len(f.Constants)),
		Upvalues:        make([]Upvalue, 0, len(f.Upvalues)),
	}
	for pc, i := range f.Code {
		doc.Instructions = append(doc.Instructions, Instruction{
			Word:     uint32(i),
			Line:     f.Line(pc),
			Op:       i.OpCode().String(),
			Mode:     i.OpCode().OpMode().String(),
			Operands: newOperands(f, pc, i),
		})
	}
	for _, k := range f.Constants {
		doc.Constants = append(doc.Constants, newConstant(k))
	}
	for i, uv := range f.Upvalues {
		doc.Upvalues = append(doc.Upvalues, Upvalue{
			Name:    f.UpvalueName(i),
			InStack: uv.InStack != 0,
			Index:   int(uv.Index),
		})
	}
	for _, v := range f.LocalVariables {
		doc.Locals = append(doc.Locals, Local{
			Name:    v.Name,
			StartPC: v.StartPC,
			EndPC:   v.EndPC,
		})
	}
	for _, p := range f.Functions {
		doc.Functions = append(doc.Functions, newFunction(names, p))
	}
	return doc
}

func newOperands(f *luacode.Prototype, pc int, i luacode.Instruction) []Operand {
	info := i.OpCode().Info()
	ops := i.Operands()
	doc := make([]Operand, 0, len(ops))
	for j, op := range ops {
		d := Operand{
			Kind:  op.Kind.String(),
			Field: op.Raw,
			Value: op.Value,
		}
		var isRegister bool
		switch {
		case info.Mode == luacode.OpModeAx:
		case j == 0:
			isRegister = info.SetsA
		case info.Mode == luacode.OpModeABC:
			isRegister = op.Kind == luacode.ArgRegister ||
				op.Kind == luacode.ArgConstant && !op.IsConstant()
		}
		if isRegister && 0 <= op.Value && op.Value <= 0xff {
			d.Local = f.LocalName(uint8(op.Value), pc)
		}
		doc = append(doc, d)
	}
	return doc
}

func newConstant(k luacode.Value) Constant {
	c := Constant{Kind: k.Kind().String()}
	switch {
	case k.IsBoolean():
		b, _ := k.Bool()
		c.Boolean = &b
	case k.IsInteger():
		i, _ := k.Int64()
		c.Integer = &i
	case k.IsNumber():
		f, _ := k.Float64()
		c.Number = &f
	case k.IsString():
		s, _ := k.Unquoted()
		c.String = &s
	}
	return c
}
