// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package chunkdoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"
)

// Format is an encoding for a [Chunk].
type Format int

// Supported formats.
const (
	JSON Format = 1 + iota
	YAML
	CBOR
)

// ParseFormat returns the [Format] with the given name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "cbor":
		return CBOR, nil
	default:
		return 0, fmt.Errorf("unknown format %q (must be one of json, yaml, or cbor)", s)
	}
}

// String returns the format's name.
func (format Format) String() string {
	switch format {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case CBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(format))
	}
}

// IsBinary reports whether the format's output is not text.
func (format Format) IsBinary() bool {
	return format == CBOR
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("chunkdoc: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode writes doc to w in the given format.
func Encode(w io.Writer, doc *Chunk, format Format) error {
	switch format {
	case JSON:
		data, err := jsonv2.Marshal(doc, jsontext.Multiline(true))
		if err != nil {
			return fmt.Errorf("encode chunk: %v", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode chunk: %v", err)
		}
		return enc.Close()
	case CBOR:
		data, err := cborEncMode.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode chunk: %v", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("encode chunk: unsupported format %v", format)
	}
}

// Decode parses a document previously written by [Encode].
func Decode(data []byte, format Format) (*Chunk, error) {
	doc := new(Chunk)
	var err error
	switch format {
	case JSON:
		err = jsonv2.Unmarshal(data, doc)
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(doc)
	case CBOR:
		err = cbor.Unmarshal(data, doc)
	default:
		err = fmt.Errorf("unsupported format %v", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	return doc, nil
}
