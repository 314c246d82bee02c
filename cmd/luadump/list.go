// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"zb.256lights.llc/luadump/internal/chunkfile"
	"zb.256lights.llc/luadump/internal/luac"
)

type listOptions struct {
	paths    []string
	list     int
	rawPC    bool
	rawWords bool
	jobs     int
	output   io.Writer
}

func newListCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "list [options] FILE [...]",
		Short:                 "print a listing of compiled bytecode",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(listOptions)
	c.Flags().CountVarP(&opts.list, "list", "l", "listing detail (give twice for constants, locals, and upvalues)")
	c.Flags().BoolVarP(&opts.rawPC, "raw-pc", "0", g.Listing.RawPC, "show 0-based program counters")
	c.Flags().BoolVar(&opts.rawWords, "raw", false, "show instructions as hexadecimal words")
	c.Flags().IntVarP(&opts.jobs, "jobs", "j", chunkfile.DefaultConcurrency, "`number` of files to read at once")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.paths = args
		opts.output = cmd.OutOrStdout()
		if g.Listing.Full && opts.list < 2 {
			opts.list = 2
		}
		return runList(cmd.Context(), opts)
	}
	return c
}

func runList(ctx context.Context, opts *listOptions) error {
	chunks, err := chunkfile.LoadAll(ctx, opts.paths, opts.jobs)
	if err != nil {
		return fmt.Errorf("failed to parse chunk: %w", err)
	}

	w := bufio.NewWriter(opts.output)
	printOptions := &luac.Options{
		Full:     opts.list >= 2,
		RawPC:    opts.rawPC,
		RawWords: opts.rawWords,
	}
	for _, c := range chunks {
		if err := luac.Print(w, c.Main, printOptions); err != nil {
			return err
		}
	}
	return w.Flush()
}
