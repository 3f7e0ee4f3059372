// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package module

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DetectFormat is the exported form of detectFormat, for callers (the
// registry's module listing) that need to know a directory's format
// version without paying for a full Load.
func DetectFormat(dir string) (FormatVersion, error) {
	return detectFormat(dir)
}

// detectFormat inspects dir's leaf files, in priority order, to decide
// which on-disk layout this module uses (spec.md §4.1). It does the
// minimum parsing needed to pick a format; the per-format loader does the
// rest.
func detectFormat(dir string) (FormatVersion, error) {
	manifestPath := filepath.Join(dir, "module.yaml")
	if raw, ok := readIfExists(manifestPath); ok {
		var keys map[string]any
		if err := yaml.Unmarshal(raw, &keys); err != nil {
			return "", parseErr(err, "malformed module.yaml at %s", manifestPath)
		}
		return subVersion(keys), nil
	}

	if _, ok := readIfExists(filepath.Join(dir, "MODULE.md")); ok {
		return FormatV1, nil
	}

	required := []string{"module.md", "input.schema.json", "output.schema.json", "constraints.yaml", "prompt.txt"}
	allPresent := true
	for _, name := range required {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			allPresent = false
			break
		}
	}
	if allPresent {
		return FormatV0, nil
	}

	return "", notFound("no module.yaml, MODULE.md, or v0 file set found in %s", dir)
}

// subVersion distinguishes v2.0/v2.1/v2.2 by which manifest keys are
// present, per spec.md §4.1: tier|overflow|enums ⇒ v2.2; policies|failure
// ⇒ v2.1; otherwise v2.0.
func subVersion(keys map[string]any) FormatVersion {
	if hasAny(keys, "tier", "overflow", "enums") {
		return FormatV22
	}
	if hasAny(keys, "policies", "failure") {
		return FormatV21
	}
	return FormatV20
}

func hasAny(m map[string]any, names ...string) bool {
	for _, n := range names {
		if _, ok := m[n]; ok {
			return true
		}
	}
	return false
}

func readIfExists(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
