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
	"testing"
)

func writeModule(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := "name: demo\nversion: \"1.0\"\nresponsibility: a demo module\n"
	if err := os.WriteFile(filepath.Join(dir, "module.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prompt.md"), []byte("Do the thing."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "schema.json"), []byte(`{"input":{},"data":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
}

func isolatedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestUserModulesDir_UnderHome(t *testing.T) {
	home := isolatedHome(t)
	dir, err := UserModulesDir()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, ".cognitive", "modules")
	if dir != want {
		t.Fatalf("UserModulesDir() = %q, want %q", dir, want)
	}
}

func TestFind_ProjectLocalBeatsUserGlobal(t *testing.T) {
	home := isolatedHome(t)

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	localDir := filepath.Join(cwd, "cognitive", "modules", "demo")
	writeModule(t, localDir)
	defer os.RemoveAll(filepath.Join(cwd, "cognitive"))

	globalDir := filepath.Join(home, ".cognitive", "modules", "demo")
	writeModule(t, globalDir)

	path, location, err := Find("demo")
	if err != nil {
		t.Fatal(err)
	}
	if location != "local" {
		t.Fatalf("location = %q, want local", location)
	}
	if path != localDir {
		t.Fatalf("path = %q, want %q", path, localDir)
	}
}

func TestFind_FallsBackToUserGlobal(t *testing.T) {
	home := isolatedHome(t)
	globalDir := filepath.Join(home, ".cognitive", "modules", "demo")
	writeModule(t, globalDir)

	path, location, err := Find("demo")
	if err != nil {
		t.Fatal(err)
	}
	if location != "global" {
		t.Fatalf("location = %q, want global", location)
	}
	if path != globalDir {
		t.Fatalf("path = %q, want %q", path, globalDir)
	}
}

func TestFind_OverrideRootConsultedLast(t *testing.T) {
	home := isolatedHome(t)
	overrideDir := t.TempDir()
	t.Setenv(EnvSearchPathOverride, overrideDir)

	// Same module name present in both the override root and user-global;
	// user-global must win since override is consulted last.
	writeModule(t, filepath.Join(overrideDir, "demo"))
	globalDir := filepath.Join(home, ".cognitive", "modules", "demo")
	writeModule(t, globalDir)

	_, location, err := Find("demo")
	if err != nil {
		t.Fatal(err)
	}
	if location != "global" {
		t.Fatalf("location = %q, want global (override must lose to user-global)", location)
	}
}

func TestFind_OverrideRootUsedWhenNothingElseMatches(t *testing.T) {
	isolatedHome(t)
	overrideDir := t.TempDir()
	t.Setenv(EnvSearchPathOverride, overrideDir)
	writeModule(t, filepath.Join(overrideDir, "only-here"))

	_, location, err := Find("only-here")
	if err != nil {
		t.Fatal(err)
	}
	if location != "override" {
		t.Fatalf("location = %q, want override", location)
	}
}

func TestFind_NotFound(t *testing.T) {
	isolatedHome(t)
	if _, _, err := Find("nonexistent"); err == nil {
		t.Fatal("expected an error for a missing module")
	}
}

func TestInstallFromLocal_CopiesAndRecordsManifest(t *testing.T) {
	isolatedHome(t)
	src := t.TempDir()
	writeModule(t, src)

	if err := InstallFromLocal(src, "demo"); err != nil {
		t.Fatalf("InstallFromLocal failed: %v", err)
	}

	dir, err := UserModulesDir()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "demo", "module.yaml")); err != nil {
		t.Fatalf("expected module.yaml copied into user-global dir: %v", err)
	}

	entry, ok, err := GetInstalledInfo("demo")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a manifest entry for demo")
	}
	if entry.Source != "local" {
		t.Fatalf("entry.Source = %q, want local", entry.Source)
	}
	if entry.InstalledAt == "" {
		t.Fatal("expected InstalledAt to be stamped")
	}
}

func TestInstallFromLocal_RejectsInvalidModule(t *testing.T) {
	isolatedHome(t)
	src := t.TempDir() // empty, no module files at all

	if err := InstallFromLocal(src, "bad"); err == nil {
		t.Fatal("expected an error installing an invalid module directory")
	}
}

func TestUninstall_RemovesDirAndManifestEntry(t *testing.T) {
	isolatedHome(t)
	src := t.TempDir()
	writeModule(t, src)
	if err := InstallFromLocal(src, "demo"); err != nil {
		t.Fatal(err)
	}

	if err := Uninstall("demo"); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}

	dir, _ := UserModulesDir()
	if _, err := os.Stat(filepath.Join(dir, "demo")); !os.IsNotExist(err) {
		t.Fatal("expected the module directory to be removed")
	}
	if _, ok, _ := GetInstalledInfo("demo"); ok {
		t.Fatal("expected the manifest entry to be removed")
	}
}

func TestUninstall_MissingModule(t *testing.T) {
	isolatedHome(t)
	if err := Uninstall("nope"); err == nil {
		t.Fatal("expected an error uninstalling a module that was never installed")
	}
}

func TestUninstall_RefusesPathOutsideUserGlobal(t *testing.T) {
	home := isolatedHome(t)
	// Simulate a manifest pointing somewhere outside the user-global root
	// by attempting to uninstall a name containing path traversal.
	_ = home
	if err := Uninstall("../../etc"); err == nil {
		t.Fatal("expected Uninstall to refuse a path outside the user-global modules root")
	}
}

func TestUpdate_RefusesNonRemoteInstall(t *testing.T) {
	isolatedHome(t)
	src := t.TempDir()
	writeModule(t, src)
	if err := InstallFromLocal(src, "demo"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Update("demo"); err == nil {
		t.Fatal("expected Update to refuse a module with no recorded remote URL")
	}
}

func TestList_DedupesByFirstMatch(t *testing.T) {
	home := isolatedHome(t)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	localDir := filepath.Join(cwd, "cognitive", "modules", "demo")
	writeModule(t, localDir)
	defer os.RemoveAll(filepath.Join(cwd, "cognitive"))

	globalDir := filepath.Join(home, ".cognitive", "modules", "demo")
	writeModule(t, globalDir)

	entries, err := List()
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, e := range entries {
		if e.Name == "demo" {
			count++
			if e.Location != "local" {
				t.Fatalf("expected the local copy to win, got location=%q", e.Location)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected demo to be listed exactly once, got %d", count)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	isolatedHome(t)
	if err := recordInstall("foo", ManifestEntry{Source: "github", GithubURL: "org/foo"}); err != nil {
		t.Fatal(err)
	}
	entry, ok, err := GetInstalledInfo("foo")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || entry.GithubURL != "org/foo" {
		t.Fatalf("unexpected manifest entry: %+v", entry)
	}
	if err := removeInstallRecord("foo"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := GetInstalledInfo("foo"); ok {
		t.Fatal("expected entry removed")
	}
}
