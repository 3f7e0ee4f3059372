// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ziel-io/cognitive/services/module"
)

// EnvSearchPathOverride names extra colon-separated search roots,
// consulted last (spec.md §4.2, §6).
const EnvSearchPathOverride = "COGNITIVE_MODULES_PATH"

const systemWideModulesDir = "/usr/local/share/cognitive/modules"

// root is one labeled search location.
type root struct {
	path     string
	location string
}

// searchRoots returns every consulted root in priority order: project-local,
// user-global, system-wide, then any override roots (spec.md §4.2).
func searchRoots() []root {
	var roots []root
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, root{filepath.Join(cwd, "cognitive", "modules"), "local"})
	}
	if home, err := UserModulesDir(); err == nil {
		roots = append(roots, root{home, "global"})
	}
	roots = append(roots, root{systemWideModulesDir, "system"})
	if override := os.Getenv(EnvSearchPathOverride); override != "" {
		for _, p := range strings.Split(override, ":") {
			p = strings.TrimSpace(p)
			if p != "" {
				roots = append(roots, root{p, "override"})
			}
		}
	}
	return roots
}

// UserModulesDir is $HOME/.cognitive/modules, created on demand by Install.
func UserModulesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cognitive", "modules"), nil
}

// EnsureUserModulesDir creates $HOME/.cognitive/modules if absent.
func EnsureUserModulesDir() (string, error) {
	dir, err := UserModulesDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Find resolves name to a module directory, first-match-wins across
// searchRoots (spec.md §4.2).
func Find(name string) (path string, location string, err error) {
	for _, r := range searchRoots() {
		candidate := filepath.Join(r.path, name)
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return candidate, r.location, nil
		}
	}
	return "", "", notFound("module %q not found in any search root", name)
}

// Entry is one listed module: its name, resolved path, search-root label,
// and detected format version.
type Entry struct {
	Name     string
	Path     string
	Location string
	Format   module.FormatVersion
}

// List enumerates every module visible across all search roots, deduped by
// name with first-match-wins (the same precedence Find uses).
func List() ([]Entry, error) {
	seen := map[string]bool{}
	var entries []Entry
	for _, r := range searchRoots() {
		dirEntries, err := os.ReadDir(r.path)
		if err != nil {
			continue // root may not exist; that's fine, not an error
		}
		names := make([]string, 0, len(dirEntries))
		for _, de := range dirEntries {
			if de.IsDir() {
				names = append(names, de.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			if seen[name] {
				continue
			}
			path := filepath.Join(r.path, name)
			format, err := module.DetectFormat(path)
			if err != nil {
				continue // not a valid module directory; skip silently
			}
			seen[name] = true
			entries = append(entries, Entry{Name: name, Path: path, Location: r.location, Format: format})
		}
	}
	return entries, nil
}
