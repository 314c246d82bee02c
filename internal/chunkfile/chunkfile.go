// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

// Package chunkfile reads precompiled Lua chunks from files.
package chunkfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/brotli"
	"golang.org/x/sync/errgroup"
	"zb.256lights.llc/luadump/internal/luacode"
	"zombiezen.com/go/log"
)

// Stdin is the path that [Read] interprets as standard input.
const Stdin = "-"

// CompressedExt is the file extension of Brotli-compressed chunks.
const CompressedExt = ".br"

// DefaultConcurrency is the number of files [LoadAll] reads at once
// if given a non-positive limit.
const DefaultConcurrency = 4

// Read returns the uncompressed contents of the chunk file at path.
// Files whose names end in [CompressedExt] are decompressed.
// The path [Stdin] reads from standard input.
func Read(ctx context.Context, path string) ([]byte, error) {
	var r io.Reader
	if path == Stdin {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var encoding string
	if strings.HasSuffix(path, CompressedExt) {
		encoding = "br"
	}
	rc, err := decode(r, encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	log.Debugf(ctx, "Read %d bytes from %s", len(data), path)
	return data, nil
}

func decode(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch encoding {
	case "":
		return io.NopCloser(r), nil
	case "br":
		return brotli.NewReader(r, nil)
	default:
		return nil, fmt.Errorf("unsupported encoding %s", encoding)
	}
}

// Load reads and loads the chunk file at path.
// Load errors are wrapped so that [errors.As] can find
// the underlying [*luacode.LoadError].
func Load(ctx context.Context, path string) (*luacode.Chunk, error) {
	data, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}
	c, err := luacode.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadAll loads the chunk files at the given paths,
// reading at most limit files concurrently.
// The returned slice is in the same order as paths.
// If any file fails to load, LoadAll stops reading
// and returns the first error encountered.
func LoadAll(ctx context.Context, paths []string, limit int) ([]*luacode.Chunk, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	chunks := make([]*luacode.Chunk, len(paths))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(limit)
	for i, path := range paths {
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			c, err := Load(grpCtx, path)
			if err != nil {
				return err
			}
			chunks[i] = c
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
