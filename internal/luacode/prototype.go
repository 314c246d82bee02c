// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"strings"
)

// Chunk is a loaded binary chunk.
type Chunk struct {
	Header Header
	// UpvalueCount is the byte that follows the header,
	// which the compiler sets to the number of upvalues in Main.
	UpvalueCount byte
	Main         *Prototype
}

// Prototype represents a compiled function.
type Prototype struct {
	// NumParams is the number of fixed (named) parameters.
	NumParams uint8
	// IsVararg is non-zero if the function accepts a variable number of arguments.
	IsVararg uint8
	// MaxStackSize is the number of registers needed by this function.
	MaxStackSize uint8

	Code      []Instruction
	Constants []Value
	Upvalues  []UpvalueDescriptor
	Functions []*Prototype

	// Debug information:

	Source Source
	// LineInfo is either empty or the source line for each instruction in Code.
	LineInfo []uint32
	// LocalVariables is a list of the function's local variables in declaration order.
	LocalVariables []LocalVariable
	// UpvalueNames is either empty or the name of each upvalue in Upvalues.
	UpvalueNames    []string
	LineDefined     uint32
	LastLineDefined uint32
}

// IsMainChunk reports whether the prototype represents a compiled source file
// (as opposed to a function inside a file).
func (f *Prototype) IsMainChunk() bool {
	return f.LineDefined == 0
}

// HasVarargs reports whether the function accepts a variable number of arguments.
func (f *Prototype) HasVarargs() bool {
	return f.IsVararg != 0
}

// Line returns the source line of the instruction at pc
// or 0 if the line information has been stripped.
func (f *Prototype) Line(pc int) uint32 {
	if pc < 0 || pc >= len(f.LineInfo) {
		return 0
	}
	return f.LineInfo[pc]
}

// UpvalueName returns the name of the i'th upvalue
// or the empty string if the debug information has been stripped.
func (f *Prototype) UpvalueName(i int) string {
	if i < 0 || i >= len(f.UpvalueNames) {
		return ""
	}
	return f.UpvalueNames[i]
}

// LocalName returns the name of the local variable the given register represents
// during the execution of the given instruction,
// or the empty string if the register does not represent a local variable
// (or the debug information has been stripped).
func (f *Prototype) LocalName(register uint8, pc int) string {
	for _, v := range f.LocalVariables {
		if int64(v.StartPC) > int64(pc) {
			// Local variables are ordered by StartPC,
			// so this variable and any subsequent ones will be out of scope.
			break
		}
		if int64(pc) < int64(v.EndPC) {
			if register == 0 {
				return v.Name
			}
			register--
		}
	}
	return ""
}

// Walk calls yield for f and each of its nested functions in pre-order,
// stopping early if yield returns false.
// Walk reports whether the traversal visited every function.
func (f *Prototype) Walk(yield func(*Prototype) bool) bool {
	if !yield(f) {
		return false
	}
	for _, p := range f.Functions {
		if !p.Walk(yield) {
			return false
		}
	}
	return true
}

// UpvalueDescriptor describes an upvalue in a [Prototype].
type UpvalueDescriptor struct {
	// InStack is non-zero if the upvalue refers to a local variable
	// in the containing function.
	// Otherwise, the upvalue refers to an upvalue in the containing function.
	InStack uint8
	// Index is the index of the local variable or upvalue
	// to initialize the upvalue to.
	// Its interpretation depends on the value of InStack.
	Index uint8
}

// LocalVariable is a description of a local variable in [Prototype]
// used for debug information.
type LocalVariable struct {
	Name string
	// StartPC is the first instruction in the [Prototype.Code] slice
	// where the variable is active.
	StartPC uint32
	// EndPC is the first instruction in the [Prototype.Code] slice
	// where the variable is dead.
	EndPC uint32
}

// Source is a description of a chunk that created a [Prototype].
type Source string

// Filename returns the file name of the chunk
// if the source starts with "@".
func (source Source) Filename() (_ string, isFilename bool) {
	if !strings.HasPrefix(string(source), "@") {
		return "", false
	}
	return string(source[1:]), true
}

// Abstract returns the user-dependent description of the source
// if the source starts with "=".
func (source Source) Abstract() (_ string, isAbstract bool) {
	if !strings.HasPrefix(string(source), "=") {
		return "", false
	}
	return string(source[1:]), true
}

// Literal returns the source as a literal string
// if it is neither a filename nor an abstract source.
func (source Source) Literal() (_ string, isLiteral bool) {
	if len(source) != 0 && (source[0] == '@' || source[0] == '=') {
		return "", false
	}
	return string(source), true
}

const (
	// maxSourceSize is the maximum length of a string returned by [Source.String].
	maxSourceSize = 60

	sourceTruncationSignifier = "..."
)

// String formats the source in a concise manner
// suitable for debugging.
func (source Source) String() string {
	if s, ok := source.Abstract(); ok {
		if len(s) > maxSourceSize {
			return s[:maxSourceSize]
		}
		return s
	}
	if fname, ok := source.Filename(); ok {
		if len(source) > maxSourceSize {
			const n = maxSourceSize - len(sourceTruncationSignifier)
			return sourceTruncationSignifier + fname[len(fname)-n:]
		}
		return fname
	}
	s, _ := source.Literal()
	return describeLiteralSource(s)
}

func describeLiteralSource(s string) string {
	const prefix = `[string "`
	const suffix = `"]`
	const stringSize = maxSourceSize - (len(prefix) - len(suffix))
	line, _, multipleLines := strings.Cut(s, "\n")
	if !multipleLines && len(line) <= stringSize {
		return prefix + line + suffix
	}
	if len(line)+len(sourceTruncationSignifier) > stringSize {
		line = line[:stringSize-len(sourceTruncationSignifier)]
	}
	return prefix + line + sourceTruncationSignifier + suffix
}
