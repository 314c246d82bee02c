// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"zb.256lights.llc/luadump/internal/chunkdoc"
	"zb.256lights.llc/luadump/internal/chunkfile"
)

type exportOptions struct {
	path   string
	format chunkdoc.Format
	// outputPath is the file to write to.
	// The empty string or "-" writes to stdout.
	outputPath string
	stdout     io.Writer
}

func newExportCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "export [options] FILE",
		Short:                 "write a chunk as a structured document",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := &exportOptions{format: chunkdoc.JSON}
	c.Flags().Var((*formatFlag)(&opts.format), "format", "output `format` (json, yaml, or cbor)")
	c.Flags().StringVarP(&opts.outputPath, "output", "o", "", "output `file`")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.path = args[0]
		opts.stdout = cmd.OutOrStdout()
		return runExport(cmd.Context(), opts)
	}
	return c
}

func runExport(ctx context.Context, opts *exportOptions) error {
	if opts.outputPath == "" && opts.format.IsBinary() && isTerminal(opts.stdout) {
		return errors.New("refusing to send binary export to stdout (a tty). Pass --output=- to override.")
	}

	c, err := chunkfile.Load(ctx, opts.path)
	if err != nil {
		return fmt.Errorf("failed to parse chunk: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := chunkdoc.Encode(buf, chunkdoc.New(c), opts.format); err != nil {
		return fmt.Errorf("export %s: %v", opts.path, err)
	}

	if opts.outputPath == "" || opts.outputPath == "-" {
		_, err := opts.stdout.Write(buf.Bytes())
		return err
	}
	f, err := os.Create(opts.outputPath)
	if err != nil {
		return err
	}
	_, writeErr := f.Write(buf.Bytes())
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// isTerminal reports whether w is a file connected to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
