// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// chunkReader reads fixed-width primitives from the front of a chunk.
// A failed read never consumes input.
type chunkReader struct {
	s   []byte
	off int64
}

// err returns a [*LoadError] for a read that started at the current offset.
func (r *chunkReader) err(err error) *LoadError {
	return &LoadError{Offset: r.off, Err: err}
}

// advance consumes n bytes and returns them.
// The caller must have checked that n <= len(r.s).
func (r *chunkReader) advance(n int) []byte {
	b := r.s[:n:n]
	r.s = r.s[n:]
	r.off += int64(n)
	return b
}

func (r *chunkReader) readByte() (byte, error) {
	if len(r.s) < 1 {
		return 0, r.err(io.ErrUnexpectedEOF)
	}
	return r.advance(1)[0], nil
}

func (r *chunkReader) readUint32() (uint32, error) {
	if len(r.s) < 4 {
		return 0, r.err(io.ErrUnexpectedEOF)
	}
	return binary.NativeEndian.Uint32(r.advance(4)), nil
}

func (r *chunkReader) readUint64() (uint64, error) {
	if len(r.s) < 8 {
		return 0, r.err(io.ErrUnexpectedEOF)
	}
	return binary.NativeEndian.Uint64(r.advance(8)), nil
}

// readInteger reads a lua_Integer.
func (r *chunkReader) readInteger() (int64, error) {
	x, err := r.readUint64()
	return int64(x), err
}

// readNumber reads a lua_Number.
func (r *chunkReader) readNumber() (float64, error) {
	x, err := r.readUint64()
	return math.Float64frombits(x), err
}

// readBytes returns the next n bytes.
// The returned slice aliases the reader's buffer.
func (r *chunkReader) readBytes(n uint64) ([]byte, error) {
	if uint64(len(r.s)) < n {
		return nil, r.err(io.ErrUnexpectedEOF)
	}
	return r.advance(int(n)), nil
}

// readString reads a string in the dump format:
// a size byte (or 0xff followed by a size_t),
// then size-1 bytes of text.
// A zero size is an absent string, which is returned as empty.
func (r *chunkReader) readString() (string, error) {
	start := *r
	size, err := r.readByte()
	if err != nil {
		return "", err
	}
	n := uint64(size)
	if size == 0xff {
		n, err = r.readUint64()
		if err != nil {
			*r = start
			return "", err
		}
	}
	if n == 0 {
		return "", nil
	}
	textOffset := r.off
	b, err := r.readBytes(n - 1)
	if err != nil {
		*r = start
		return "", err
	}
	if !utf8.Valid(b) {
		*r = start
		return "", &LoadError{Offset: textOffset, Err: ErrInvalidEncoding}
	}
	return string(b), nil
}

// readCount reads a sequence length
// and verifies that the remaining input could hold that many elements
// of at least minSize bytes each.
func (r *chunkReader) readCount(minSize int) (int, error) {
	start := *r
	n, err := r.readUint32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(len(r.s)) {
		// Report at the offset of the first element that cannot be read.
		fit := len(r.s) / minSize
		off := r.off + int64(fit*minSize)
		*r = start
		return 0, &LoadError{Offset: off, Err: io.ErrUnexpectedEOF}
	}
	return int(n), nil
}
