// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"zb.256lights.llc/luadump/internal/catalog"
	"zb.256lights.llc/luadump/internal/chunkfile"
	"zb.256lights.llc/luadump/internal/luacode"
)

func newCatalogCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "catalog COMMAND",
		Short:                 "index chunks by their string constants",
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.AddCommand(
		newCatalogAddCommand(g),
		newCatalogFindCommand(g),
	)
	return c
}

type catalogAddOptions struct {
	paths  []string
	jobs   int
	output io.Writer
}

func newCatalogAddCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "add [options] FILE [...]",
		Short:                 "add chunks to the catalog",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(catalogAddOptions)
	c.Flags().IntVarP(&opts.jobs, "jobs", "j", chunkfile.DefaultConcurrency, "`number` of files to read at once")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.paths = args
		opts.output = cmd.OutOrStdout()
		return runCatalogAdd(cmd.Context(), g, opts)
	}
	return c
}

func runCatalogAdd(ctx context.Context, g *globalConfig, opts *catalogAddOptions) error {
	chunks, err := chunkfile.LoadAll(ctx, opts.paths, opts.jobs)
	if err != nil {
		return fmt.Errorf("failed to parse chunk: %w", err)
	}
	cat, err := g.openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	w := bufio.NewWriter(opts.output)
	for i, c := range chunks {
		id, err := cat.Add(ctx, opts.paths[i], c)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%v\t%s\n", id, opts.paths[i])
	}
	return w.Flush()
}

type catalogFindOptions struct {
	text   string
	output io.Writer
}

func newCatalogFindCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "find TEXT",
		Short:                 "list functions with a string constant containing text",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(catalogFindOptions)
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.text = args[0]
		opts.output = cmd.OutOrStdout()
		return runCatalogFind(cmd.Context(), g, opts)
	}
	return c
}

func runCatalogFind(ctx context.Context, g *globalConfig, opts *catalogFindOptions) error {
	cat, err := g.openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	matches, err := cat.Find(ctx, opts.text)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(opts.output)
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s <%d,%d>\t%d\t%v\n",
			m.Path,
			m.Function,
			m.LineDefined,
			m.LastLineDefined,
			m.ConstantIndex+1,
			luacode.StringValue(m.Value),
		)
	}
	return w.Flush()
}

func (g *globalConfig) openCatalog() (*catalog.Catalog, error) {
	if g.CatalogDB == "" {
		return nil, fmt.Errorf("catalog database not set (use --catalog or LUADUMP_CATALOG)")
	}
	return catalog.Open(g.CatalogDB)
}
