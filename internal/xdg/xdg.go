// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package xdg resolves XDG Base Directory paths for AuraMatch.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const appName = "auramatch"

// configFileName is the config file looked up in ConfigDir.
const configFileName = "config.yaml"

// ConfigDir returns the XDG config directory for auramatch.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path inside ConfigDir.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// ExistingConfigFile returns ConfigFile if it exists as a regular file, or "".
// Permission errors are treated as "file exists" so the loader reports them
// instead of silently ignoring the file.
func ExistingConfigFile() string {
	path := ConfigFile()
	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		return path
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return path
	default:
		return ""
	}
}
