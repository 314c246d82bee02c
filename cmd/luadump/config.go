// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tailscale/hujson"
)

type globalConfig struct {
	Debug     bool          `json:"debug"`
	CatalogDB string        `json:"catalogDB"`
	Listing   listingConfig `json:"listing"`
}

type listingConfig struct {
	Full  bool `json:"full"`
	RawPC bool `json:"rawPC"`
}

func defaultGlobalConfig() *globalConfig {
	g := new(globalConfig)
	if cd := cacheDir(); cd != "" {
		g.CatalogDB = filepath.Join(cd, "luadump", "catalog.db")
	}
	return g
}

// configFiles returns the paths of the configuration files to merge,
// least important first.
func configFiles() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, dir := range slices.Backward(configDirs()) {
			if !yield(filepath.Join(dir, "luadump", "config.jwcc")) {
				return
			}
		}
	}
}

func (g *globalConfig) mergeEnvironment() {
	if path := os.Getenv("LUADUMP_CATALOG"); path != "" {
		g.CatalogDB = path
	}
}

func (g *globalConfig) mergeFiles(paths iter.Seq[string]) error {
	for path := range paths {
		huJSONData, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		jsonData, err := hujson.Standardize(huJSONData)
		if err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
		if err := jsonv2.Unmarshal(jsonData, g, jsonv2.RejectUnknownMembers(false)); err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
	}
	return nil
}

// UnmarshalJSONFrom unmarshals the configuration object from the JSON decoder,
// merging any fields in the JSON object with existing values.
func (g *globalConfig) UnmarshalJSONFrom(in *jsontext.Decoder) error {
	tok, err := in.ReadToken()
	if err != nil {
		return err
	}
	if got := tok.Kind(); got != '{' {
		return fmt.Errorf("config must be an object not a %v", got)
	}

	for {
		keyToken, err := in.ReadToken()
		if err != nil {
			return err
		}
		switch kind := keyToken.Kind(); kind {
		case '}':
			return nil
		case '"':
			// Keep going.
		default:
			return fmt.Errorf("unexpected non-string key (%v) in object", kind)
		}

		switch k := keyToken.String(); k {
		case "debug":
			if err := jsonv2.UnmarshalDecode(in, &g.Debug); err != nil {
				return fmt.Errorf("unmarshal config.debug: %w", err)
			}
		case "catalogDB":
			if err := jsonv2.UnmarshalDecode(in, &g.CatalogDB); err != nil {
				return fmt.Errorf("unmarshal config.catalogDB: %w", err)
			}
		case "listing":
			if err := jsonv2.UnmarshalDecode(in, &g.Listing); err != nil {
				return fmt.Errorf("unmarshal config.listing: %w", err)
			}
		default:
			if reject, _ := jsonv2.GetOption(in.Options(), jsonv2.RejectUnknownMembers); reject {
				return fmt.Errorf("unmarshal config: unknown field %q", k)
			}
			if err := in.SkipValue(); err != nil {
				return err
			}
		}
	}
}
