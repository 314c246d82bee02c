// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"zb.256lights.llc/luadump/internal/chunktest"
)

var prototypeDiffOptions = cmp.Options{
	cmp.Comparer(func(v1, v2 Value) bool { return v1 == v2 }),
	cmpopts.EquateEmpty(),
}

func helloPrototype() *Prototype {
	greet := &Prototype{
		NumParams:    1,
		MaxStackSize: 4,
		Code: []Instruction{
			ABCInstruction(OpGetTabUp, 1, 0, 256),
			ABxInstruction(OpLoadK, 2, 1),
			ABCInstruction(OpMove, 3, 0, 0),
			ABCInstruction(OpConcat, 2, 2, 3),
			ABCInstruction(OpCall, 1, 2, 1),
			ABCInstruction(OpReturn, 0, 1, 0),
		},
		Constants: []Value{
			StringValue("print"),
			StringValue("Hello, "),
		},
		Upvalues:        []UpvalueDescriptor{{InStack: 0, Index: 0}},
		Source:          "@hello.lua",
		LineInfo:        []uint32{2, 2, 2, 2, 2, 3},
		LocalVariables:  []LocalVariable{{Name: "name", StartPC: 0, EndPC: 6}},
		UpvalueNames:    []string{"_ENV"},
		LineDefined:     1,
		LastLineDefined: 3,
	}
	return &Prototype{
		IsVararg:     1,
		MaxStackSize: 3,
		Code: []Instruction{
			ABxInstruction(OpClosure, 0, 0),
			ABCInstruction(OpMove, 1, 0, 0),
			ABxInstruction(OpLoadK, 2, 0),
			ABCInstruction(OpCall, 1, 2, 1),
			ABCInstruction(OpReturn, 0, 1, 0),
		},
		Constants:      []Value{StringValue("world")},
		Upvalues:       []UpvalueDescriptor{{InStack: 1, Index: 0}},
		Functions:      []*Prototype{greet},
		Source:         "@hello.lua",
		LineInfo:       []uint32{3, 4, 4, 4, 4},
		LocalVariables: []LocalVariable{{Name: "greet", StartPC: 1, EndPC: 5}},
		UpvalueNames:   []string{"_ENV"},
	}
}

func TestLoad(t *testing.T) {
	got, err := Load(chunktest.Chunk(chunktest.Hello()))
	if err != nil {
		t.Fatal(err)
	}
	want := &Chunk{
		Header:       ExpectedHeader(),
		UpvalueCount: 1,
		Main:         helloPrototype(),
	}
	if diff := cmp.Diff(want, got, prototypeDiffOptions); diff != "" {
		t.Errorf("Load(...) (-want +got):\n%s", diff)
	}
}

func TestLoadSourceInheritance(t *testing.T) {
	main := chunktest.Hello()
	own := &chunktest.Function{
		Source:          "=other",
		LineDefined:     5,
		LastLineDefined: 6,
		MaxStackSize:    2,
		Functions:       []*chunktest.Function{{LineDefined: 5, LastLineDefined: 5, MaxStackSize: 2}},
	}
	main.Functions = append(main.Functions, own)

	c, err := Load(chunktest.Chunk(main))
	if err != nil {
		t.Fatal(err)
	}
	var got []Source
	c.Main.Walk(func(f *Prototype) bool {
		got = append(got, f.Source)
		return true
	})
	want := []Source{"@hello.lua", "@hello.lua", "=other", "=other"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestLoadConstantKinds(t *testing.T) {
	long := strings.Repeat("long ", 100)
	main := &chunktest.Function{
		Source:       "=consts",
		MaxStackSize: 2,
		Constants: []chunktest.Constant{
			chunktest.Nil(),
			chunktest.Bool(false),
			chunktest.Bool(true),
			chunktest.Integer(-5),
			chunktest.Number(0.5),
			chunktest.ShortString(""),
			chunktest.ShortString("é"),
			chunktest.LongString(long),
		},
	}
	c, err := Load(chunktest.Chunk(main))
	if err != nil {
		t.Fatal(err)
	}
	want := []Value{
		{},
		BoolValue(false),
		BoolValue(true),
		IntegerValue(-5),
		FloatValue(0.5),
		StringValue(""),
		StringValue("é"),
		LongStringValue(long),
	}
	if diff := cmp.Diff(want, c.Main.Constants, prototypeDiffOptions); diff != "" {
		t.Errorf("constants (-want +got):\n%s", diff)
	}
}

func TestLoadStripped(t *testing.T) {
	main := chunktest.Hello()
	main.Functions[0].Source = ""
	main.Source = ""
	for _, f := range []*chunktest.Function{main, main.Functions[0]} {
		f.LineInfo = nil
		f.LocalVariables = nil
		f.UpvalueNames = nil
	}
	c, err := Load(chunktest.Chunk(main))
	if err != nil {
		t.Fatal(err)
	}
	c.Main.Walk(func(f *Prototype) bool {
		if f.Source != "" || len(f.LineInfo) != 0 || len(f.LocalVariables) != 0 || len(f.UpvalueNames) != 0 {
			t.Errorf("function at line %d has debug information: %+v", f.LineDefined, f)
		}
		if got := f.Line(0); got != 0 {
			t.Errorf("Line(0) = %d; want 0", got)
		}
		return true
	})
}

func TestLoadTrailingBytes(t *testing.T) {
	data := chunktest.Chunk(chunktest.Hello())
	data = append(data, "garbage"...)
	c, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(helloPrototype(), c.Main, prototypeDiffOptions); diff != "" {
		t.Errorf("Load(...).Main (-want +got):\n%s", diff)
	}
}

func TestLoadTruncated(t *testing.T) {
	full := chunktest.Chunk(chunktest.Hello())
	for n := range len(full) {
		c, err := Load(full[:n])
		if c != nil {
			t.Errorf("Load(chunk[:%d]) returned a chunk", n)
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Load(chunk[:%d]) error = %v; want %v", n, err, io.ErrUnexpectedEOF)
			continue
		}
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			t.Errorf("Load(chunk[:%d]) error = %#v; want *LoadError", n, err)
		} else if loadErr.Offset > int64(n) {
			t.Errorf("Load(chunk[:%d]) error offset = %d; want <= %d", n, loadErr.Offset, n)
		}
	}
}

func TestLoadCorruptConstant(t *testing.T) {
	main := &chunktest.Function{
		Constants: []chunktest.Constant{
			chunktest.ShortString("a"),
			{Tag: 0x02},
		},
	}
	_, err := Load(chunktest.Chunk(main))
	var corrupt *CorruptConstantError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Load(...) error = %v; want *CorruptConstantError", err)
	}
	if corrupt.Tag != 0x02 || corrupt.Index != 1 {
		t.Errorf("error = %+v; want {Tag: 0x02, Index: 1}", corrupt)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load(...) error = %#v; want *LoadError", err)
	}
	// Header, upvalue count, absent source, line range, three bytes,
	// empty code, constant count, then the first constant.
	const wantOffset = chunktest.HeaderSize + 1 + 1 + 8 + 3 + 4 + 4 + 3
	if loadErr.Offset != int64(wantOffset) {
		t.Errorf("error offset = %d; want %d", loadErr.Offset, wantOffset)
	}
}

func TestLoadDebugInfoMismatch(t *testing.T) {
	t.Run("LineInfo", func(t *testing.T) {
		main := chunktest.Hello()
		main.LineInfo = main.LineInfo[:2]
		_, err := Load(chunktest.Chunk(main))
		var mismatch *DebugInfoMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Load(...) error = %v; want *DebugInfoMismatchError", err)
		}
		want := &DebugInfoMismatchError{Table: "line info", Got: 2, Want: 5}
		if diff := cmp.Diff(want, mismatch); diff != "" {
			t.Errorf("error (-want +got):\n%s", diff)
		}
	})

	t.Run("UpvalueNames", func(t *testing.T) {
		main := chunktest.Hello()
		main.Functions[0].UpvalueNames = []string{"_ENV", "extra"}
		_, err := Load(chunktest.Chunk(main))
		var mismatch *DebugInfoMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Load(...) error = %v; want *DebugInfoMismatchError", err)
		}
		want := &DebugInfoMismatchError{Table: "upvalue names", Got: 2, Want: 1}
		if diff := cmp.Diff(want, mismatch); diff != "" {
			t.Errorf("error (-want +got):\n%s", diff)
		}
	})
}

func TestLoadInvalidEncoding(t *testing.T) {
	main := chunktest.Hello()
	main.Constants = []chunktest.Constant{{
		Tag:     chunktest.TagShortString,
		Payload: []byte{0x03, 0xc3, 0x28},
	}}
	_, err := Load(chunktest.Chunk(main))
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Load(...) error = %v; want %v", err, ErrInvalidEncoding)
	}
}

func TestLoadHugeCount(t *testing.T) {
	data := chunktest.AppendHeader(nil)
	data = append(data, 0) // upvalue count
	data = append(data, 0) // source
	data = append(data, make([]byte, 8+3)...)
	data = append(data, 0xff, 0xff, 0xff, 0xff) // instruction count
	_, err := Load(data)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Load(...) error = %v; want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestUnmarshalBinaryLeavesChunkOnError(t *testing.T) {
	c, err := Load(chunktest.Chunk(chunktest.Hello()))
	if err != nil {
		t.Fatal(err)
	}
	before := *c
	if err := c.UnmarshalBinary([]byte(Signature)); err == nil {
		t.Fatal("UnmarshalBinary(signature only) did not return an error")
	}
	if diff := cmp.Diff(&before, c, prototypeDiffOptions); diff != "" {
		t.Errorf("chunk changed after failed UnmarshalBinary (-want +got):\n%s", diff)
	}
}

func TestLoadDoesNotRetainInput(t *testing.T) {
	data := chunktest.Chunk(chunktest.Hello())
	c, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	for i := range data {
		data[i] = 0
	}
	if got, want := c.Main.Constants[0].String(), `"world"`; got != want {
		t.Errorf("after clearing input, constant = %s; want %s", got, want)
	}
}

func FuzzLoad(f *testing.F) {
	f.Add(chunktest.Chunk(chunktest.Hello()))
	f.Add(chunktest.AppendHeader(nil))
	f.Add([]byte(Signature))

	f.Fuzz(func(t *testing.T, data []byte) {
		c, err := Load(data)
		if err != nil {
			if c != nil {
				t.Error("Load returned both a chunk and an error")
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Errorf("Load(...) error = %#v; want *LoadError", err)
			}
			return
		}
		if !bytes.HasPrefix(data, []byte(Signature)) {
			t.Error("Load succeeded on input without signature")
		}
		if c.Header != ExpectedHeader() {
			t.Errorf("Header = %+v; want %+v", c.Header, ExpectedHeader())
		}
		c.Main.Walk(func(f *Prototype) bool {
			if len(f.LineInfo) != 0 && len(f.LineInfo) != len(f.Code) {
				t.Errorf("len(LineInfo) = %d, len(Code) = %d", len(f.LineInfo), len(f.Code))
			}
			if len(f.UpvalueNames) != 0 && len(f.UpvalueNames) != len(f.Upvalues) {
				t.Errorf("len(UpvalueNames) = %d, len(Upvalues) = %d", len(f.UpvalueNames), len(f.Upvalues))
			}
			for _, k := range f.Constants {
				if !k.Kind().IsValid() {
					t.Errorf("constant %v has kind %v", k, k.Kind())
				}
			}
			for _, i := range f.Code {
				i.Operands()
				_ = i.String()
			}
			return true
		})
	})
}
