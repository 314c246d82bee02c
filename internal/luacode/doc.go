// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

/*
Package luacode loads precompiled Lua 5.3 chunks
and decodes their virtual machine instructions.
See [Load] for more details.

# Chunk format

A chunk starts with a fixed header that carries no information of its own:
every field must match the constants compiled into this package.
The header is followed by a byte giving the main function's upvalue count
and then the main function [Prototype],
which recursively contains every nested function.

All multi-byte integers and floats in a chunk
are stored in the byte order of the machine that produced it.
This package reads them in the native byte order of the machine running it.
The integer and float canaries in the header are the only portability check:
a chunk produced on a machine with a different byte order
fails to load with a [*HeaderMismatchError]
instead of being byte-swapped.

# Provenance

The loader and the opcode table follow Lua 5.3's
lundump.c, lopcodes.h and lopcodes.c.

# Lua License

Copyright (C) 1994-2020 Lua.org, PUC-Rio.

Permission is hereby granted, free of charge, to any person obtaining
a copy of this software and associated documentation files (the
"Software"), to deal in the Software without restriction, including
without limitation the rights to use, copy, modify, merge, publish,
distribute, sublicense, and/or sell copies of the Software, and to
permit persons to whom the Software is furnished to do so, subject to
the following conditions:

The above copyright notice and this permission notice shall be
included in all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package luacode
