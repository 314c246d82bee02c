// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"zb.256lights.llc/luadump/internal/chunkdoc"
)

// formatFlag is the implementation of [github.com/spf13/pflag.Value]
// for [chunkdoc.Format].
type formatFlag chunkdoc.Format

func (f formatFlag) String() string {
	return chunkdoc.Format(f).String()
}

func (f *formatFlag) Set(s string) error {
	format, err := chunkdoc.ParseFormat(s)
	if err != nil {
		return err
	}
	*f = formatFlag(format)
	return nil
}

func (f formatFlag) Type() string {
	return "format"
}
