// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"reflect"
	"testing"
)

func TestSortTagsBySemver_NewestFirst(t *testing.T) {
	names := []string{"v1.2.0", "v1.10.0", "v1.3.0"}
	sortTagsBySemver(names)
	want := []string{"v1.10.0", "v1.3.0", "v1.2.0"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestSortTagsBySemver_ToleratesMissingVPrefix(t *testing.T) {
	names := []string{"1.0.0", "2.0.0"}
	sortTagsBySemver(names)
	want := []string{"2.0.0", "1.0.0"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestSortTagsBySemver_NonSemverTagsSortLast(t *testing.T) {
	names := []string{"nightly", "v2.0.0", "snapshot-2024"}
	sortTagsBySemver(names)
	if names[0] != "v2.0.0" {
		t.Fatalf("expected the valid semver tag first, got %v", names)
	}
	if names[1] != "nightly" || names[2] != "snapshot-2024" {
		t.Fatalf("expected non-semver tags to keep their relative order, got %v", names)
	}
}
