// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocalName(t *testing.T) {
	f := &Prototype{
		LocalVariables: []LocalVariable{
			{Name: "a", StartPC: 0, EndPC: 10},
			{Name: "b", StartPC: 2, EndPC: 5},
			{Name: "c", StartPC: 6, EndPC: 10},
		},
	}
	tests := []struct {
		register uint8
		pc       int
		want     string
	}{
		{0, 0, "a"},
		{1, 0, ""},
		{0, 3, "a"},
		{1, 3, "b"},
		{2, 3, ""},
		{1, 5, ""},
		{1, 6, "c"},
		{0, 10, ""},
	}
	for _, test := range tests {
		if got := f.LocalName(test.register, test.pc); got != test.want {
			t.Errorf("LocalName(%d, %d) = %q; want %q", test.register, test.pc, got, test.want)
		}
	}
}

func TestPrototypeDebugAccessors(t *testing.T) {
	f := &Prototype{
		LineInfo:     []uint32{7, 8},
		UpvalueNames: []string{"_ENV"},
	}
	if got := f.Line(1); got != 8 {
		t.Errorf("Line(1) = %d; want 8", got)
	}
	if got := f.Line(2); got != 0 {
		t.Errorf("Line(2) = %d; want 0", got)
	}
	if got := f.UpvalueName(0); got != "_ENV" {
		t.Errorf("UpvalueName(0) = %q; want %q", got, "_ENV")
	}
	if got := f.UpvalueName(1); got != "" {
		t.Errorf("UpvalueName(1) = %q; want \"\"", got)
	}
	if !f.IsMainChunk() {
		t.Error("IsMainChunk() = false for LineDefined = 0")
	}
}

func TestWalk(t *testing.T) {
	leaf1 := &Prototype{LineDefined: 2}
	leaf2 := &Prototype{LineDefined: 3}
	mid := &Prototype{LineDefined: 1, Functions: []*Prototype{leaf1}}
	root := &Prototype{Functions: []*Prototype{mid, leaf2}}

	var got []uint32
	complete := root.Walk(func(f *Prototype) bool {
		got = append(got, f.LineDefined)
		return true
	})
	if !complete {
		t.Error("Walk(...) = false; want true")
	}
	if diff := cmp.Diff([]uint32{0, 1, 2, 3}, got); diff != "" {
		t.Errorf("visit order (-want +got):\n%s", diff)
	}

	n := 0
	complete = root.Walk(func(f *Prototype) bool {
		n++
		return f != leaf1
	})
	if complete {
		t.Error("stopped Walk(...) = true; want false")
	}
	if n != 3 {
		t.Errorf("stopped Walk visited %d functions; want 3", n)
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{"@hello.lua", "hello.lua"},
		{"=stdin", "stdin"},
		{"return 42", `[string "return 42"]`},
		{"x = 1\ny = 2", `[string "x = 1..."]`},
		{Source("@" + strings.Repeat("a", 70)), "..." + strings.Repeat("a", 57)},
	}
	for _, test := range tests {
		if got := test.source.String(); got != test.want {
			t.Errorf("Source(%q).String() = %q; want %q", test.source, got, test.want)
		}
	}
}
