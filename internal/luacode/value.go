// Copyright (C) 1994-2020 Lua.org, PUC-Rio.
// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValueKind is the type of a constant [Value].
// Its numeric value is the constant's type tag in the dump format.
type ValueKind byte

// Constant kinds.
const (
	KindNil         ValueKind = 0x00
	KindBoolean     ValueKind = 0x01
	KindInteger     ValueKind = 0x03
	KindNumber      ValueKind = 0x13
	KindShortString ValueKind = 0x04
	KindLongString  ValueKind = 0x14
)

// IsValid reports whether kind is one of the known constant kinds.
func (kind ValueKind) IsValid() bool {
	switch kind {
	case KindNil, KindBoolean, KindInteger, KindNumber, KindShortString, KindLongString:
		return true
	default:
		return false
	}
}

func (kind ValueKind) String() string {
	switch kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindShortString:
		return "short string"
	case KindLongString:
		return "long string"
	default:
		return fmt.Sprintf("ValueKind(%#02x)", byte(kind))
	}
}

// Value is a constant in a function's constant table:
// nil, a boolean, an integer, a float, or a string.
// The zero value is nil.
// Values can be compared for identity with the == operator.
type Value struct {
	bits uint64
	s    string
	kind ValueKind
}

// BoolValue converts a boolean to a [Value].
func BoolValue(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.bits = 1
	}
	return v
}

// IntegerValue converts an integer to a [Value].
func IntegerValue(i int64) Value {
	return Value{
		kind: KindInteger,
		bits: uint64(i),
	}
}

// FloatValue converts a floating-point number to a [Value].
func FloatValue(f float64) Value {
	return Value{
		kind: KindNumber,
		bits: math.Float64bits(f),
	}
}

// StringValue converts a string to a short string [Value].
func StringValue(s string) Value {
	return Value{
		kind: KindShortString,
		s:    s,
	}
}

// LongStringValue converts a string to a long string [Value].
// Long strings behave identically to strings from [StringValue]
// except for the result of [Value.Kind].
func LongStringValue(s string) Value {
	return Value{
		kind: KindLongString,
		s:    s,
	}
}

// Kind returns the value's type.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNil reports whether v is the zero value.
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// IsBoolean reports whether the value is a boolean.
func (v Value) IsBoolean() bool {
	return v.kind == KindBoolean
}

// IsNumber reports whether the value is an integer or a float.
func (v Value) IsNumber() bool {
	return v.kind == KindInteger || v.kind == KindNumber
}

// IsInteger reports whether the value is an integer.
func (v Value) IsInteger() bool {
	return v.kind == KindInteger
}

// IsString reports whether the value is a short or long string.
func (v Value) IsString() bool {
	return v.kind == KindShortString || v.kind == KindLongString
}

// Bool returns the value as a boolean
// and reports whether the value is a boolean.
func (v Value) Bool() (_ bool, isBool bool) {
	return v.bits != 0, v.kind == KindBoolean
}

// Float64 returns the value as a floating-point number
// and reports whether the value is a number.
// No coercion occurs.
func (v Value) Float64() (_ float64, isNumber bool) {
	switch v.kind {
	case KindInteger:
		return float64(int64(v.bits)), true
	case KindNumber:
		return math.Float64frombits(v.bits), true
	default:
		return 0, false
	}
}

// Int64 returns the value as an integer
// and reports whether the value is an integer.
func (v Value) Int64() (_ int64, isInteger bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return int64(v.bits), true
}

// Unquoted returns the value as a string
// and reports whether the value is a string.
// Numbers and booleans are formatted as text,
// but isString will be false.
func (v Value) Unquoted() (s string, isString bool) {
	switch v.kind {
	case KindShortString, KindLongString:
		return v.s, true
	case KindNumber:
		f, _ := v.Float64()
		return formatFloat(f), false
	case KindInteger:
		return strconv.FormatInt(int64(v.bits), 10), false
	case KindBoolean:
		return strconv.FormatBool(v.bits != 0), false
	default:
		return "nil", false
	}
}

// String returns the value as a Lua constant.
func (v Value) String() string {
	if v.IsString() {
		return quote(v.s)
	}
	s, _ := v.Unquoted()
	return s
}

// formatFloat formats a float the way Lua's "%.14g" does,
// appending ".0" if the result looks like an integer.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', 14, 64)
	if !strings.ContainsAny(s, ".en") {
		s += ".0"
	}
	return s
}

// quote returns a double-quoted Lua string literal for s.
func quote(s string) string {
	sb := new(strings.Builder)
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for len(s) > 0 {
		c, size := utf8.DecodeRuneInString(s)
		switch {
		case c == utf8.RuneError && size == 1:
			fmt.Fprintf(sb, `\x%02X`, s[0])
		case c == '\\' || c == '"':
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case c == '\a':
			sb.WriteString(`\a`)
		case c == '\b':
			sb.WriteString(`\b`)
		case c == '\f':
			sb.WriteString(`\f`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\v':
			sb.WriteString(`\v`)
		case unicode.IsPrint(c):
			sb.WriteRune(c)
		default:
			fmt.Fprintf(sb, `\u{%x}`, c)
		}
		s = s[size:]
	}
	sb.WriteByte('"')
	return sb.String()
}
