// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

//go:build unix

package main

import "go4.org/xdgdir"

func cacheDir() string {
	return xdgdir.Cache.Path()
}

// configDirs returns the directories to search for configuration,
// most important first.
func configDirs() []string {
	return xdgdir.Config.SearchPaths()
}
