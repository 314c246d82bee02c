// Copyright 2026 The zb Authors
// SPDX-License-Identifier: MIT

package main

import "os"

func cacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return dir
}

func configDirs() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{dir}
}
