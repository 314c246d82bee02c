// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGlobalConfigMergeFiles(t *testing.T) {
	dir := t.TempDir()
	var paths [3]string
	paths[0] = filepath.Join(dir, "config1.jwcc")
	config1 := `{
		// Comments and trailing commas are allowed.
		"debug": true,
		"catalogDB": "/foo/catalog.db",
		"listing": {"full": true},
		"unknown": [1, 2, 3],
	}` + "\n"
	if err := os.WriteFile(paths[0], []byte(config1), 0o666); err != nil {
		t.Fatal(err)
	}
	paths[1] = filepath.Join(dir, "missing.jwcc")
	paths[2] = filepath.Join(dir, "config2.jwcc")
	if err := os.WriteFile(paths[2], []byte(`{"catalogDB": "/bar/catalog.db", "listing": {"rawPC": true}}`+"\n"), 0o666); err != nil {
		t.Fatal(err)
	}

	g := new(globalConfig)
	if err := g.mergeFiles(slices.Values(paths[:])); err != nil {
		t.Error("mergeFiles:", err)
	}
	want := &globalConfig{
		Debug:     true,
		CatalogDB: "/bar/catalog.db",
		Listing: listingConfig{
			Full:  true,
			RawPC: true,
		},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestGlobalConfigMergeFilesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jwcc")
	if err := os.WriteFile(path, []byte(`{"debug": "yes"}`+"\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	g := new(globalConfig)
	if err := g.mergeFiles(slices.Values([]string{path})); err == nil {
		t.Error("mergeFiles did not return an error for a string debug value")
	}
}

func TestGlobalConfigMergeEnvironment(t *testing.T) {
	t.Setenv("LUADUMP_CATALOG", "/env/catalog.db")
	g := &globalConfig{CatalogDB: "/file/catalog.db"}
	g.mergeEnvironment()
	if got, want := g.CatalogDB, "/env/catalog.db"; got != want {
		t.Errorf("g.CatalogDB = %q; want %q", got, want)
	}
}
