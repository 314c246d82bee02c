// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"testing"

	"github.com/spf13/pflag"
	"zb.256lights.llc/luadump/internal/chunkdoc"
)

func TestFormatFlag(t *testing.T) {
	fset := pflag.NewFlagSet("export", pflag.ContinueOnError)
	format := chunkdoc.JSON
	fset.Var((*formatFlag)(&format), "format", "")

	if err := fset.Parse([]string{"--format=yaml"}); err != nil {
		t.Fatal(err)
	}
	if format != chunkdoc.YAML {
		t.Errorf("after --format=yaml, format = %v; want %v", format, chunkdoc.YAML)
	}
	if err := fset.Parse([]string{"--format", "cbor"}); err != nil {
		t.Fatal(err)
	}
	if format != chunkdoc.CBOR {
		t.Errorf("after --format cbor, format = %v; want %v", format, chunkdoc.CBOR)
	}
	if err := fset.Parse([]string{"--format=xml"}); err == nil {
		t.Error("--format=xml did not return an error")
	}
	if format != chunkdoc.CBOR {
		t.Errorf("after failed parse, format = %v; want %v", format, chunkdoc.CBOR)
	}
}
