// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziel-io/cognitive/services/module"
)

// httpTimeout bounds archive downloads and catalog/tag API calls; the
// registry's only network-facing surface.
const httpTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: httpTimeout}

// InstallModule dispatches on source's prefix/shape to the right install
// path (spec.md §4.2): local:/absolute/relative paths, github: shorthand or
// a full https://github.com/... URL, or registry:<name> for the catalog.
func InstallModule(source, name string) error {
	switch {
	case strings.HasPrefix(source, "local:"):
		return InstallFromLocal(strings.TrimPrefix(source, "local:"), name)
	case strings.HasPrefix(source, "registry:"):
		return InstallFromRegistry(strings.TrimPrefix(source, "registry:"))
	case strings.HasPrefix(source, "github:"):
		return installFromGithubShorthand(strings.TrimPrefix(source, "github:"), name)
	case strings.HasPrefix(source, "https://github.com/"):
		return installFromGithubShorthand(source, name)
	case filepath.IsAbs(source) || strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../"):
		return InstallFromLocal(source, name)
	default:
		if err := InstallFromRegistry(source); err == nil {
			return nil
		}
		return InstallFromLocal(source, name)
	}
}

// InstallFromLocal validates sourceDir as a module, then copies it into the
// user-global modules directory under name.
func InstallFromLocal(sourceDir, name string) error {
	if _, err := module.DetectFormat(sourceDir); err != nil {
		return invalidSource("%s is not a valid module directory: %v", sourceDir, err)
	}
	if name == "" {
		name = filepath.Base(sourceDir)
	}
	dest, err := installDestination(name)
	if err != nil {
		return err
	}
	if err := copyDir(sourceDir, dest); err != nil {
		return fetchFailed(err, "failed to copy %s into %s", sourceDir, dest)
	}
	if _, err := module.DetectFormat(dest); err != nil {
		_ = os.RemoveAll(dest)
		return validationFailedAfterInstall(err, "copied module at %s failed validation", dest)
	}
	return recordInstall(name, ManifestEntry{Source: "local"})
}

func installDestination(name string) (string, error) {
	dir, err := EnsureUserModulesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// installFromGithubShorthand accepts either "org/repo" or a full
// "https://github.com/org/repo" URL.
func installFromGithubShorthand(ref, name string) error {
	ref = strings.TrimPrefix(ref, "https://github.com/")
	ref = strings.TrimSuffix(ref, "/")
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) < 2 {
		return invalidSource("github source %q must be org/repo", ref)
	}
	orgRepo := parts[0] + "/" + parts[1]
	return InstallFromGithubURL(orgRepo, "", name, "", "")
}

// InstallFromGithubURL downloads a repository archive (a tag takes priority
// over a branch; default branch "main" if neither is given), extracts it,
// and installs whichever subdirectory is the module (spec.md §4.2): the
// given modulePath as-is, then the repository root, then under
// cognitive/modules/, then under modules/.
func InstallFromGithubURL(orgRepo, modulePath, name, branch, tag string) error {
	if branch == "" && tag == "" {
		branch = "main"
	}
	archiveURL := githubArchiveURL(orgRepo, branch, tag)

	tmpDir, err := os.MkdirTemp("", "cognitive-install-*")
	if err != nil {
		return fetchFailed(err, "cannot create temp directory")
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, "archive.zip")
	if err := downloadFile(archiveURL, archivePath); err != nil {
		return fetchFailed(err, "failed to download %s", archiveURL)
	}

	extractDir := filepath.Join(tmpDir, "extracted")
	if err := unzip(archivePath, extractDir); err != nil {
		return fetchFailed(err, "failed to extract archive from %s", archiveURL)
	}

	repoRoot, err := singleSubdir(extractDir)
	if err != nil {
		return fetchFailed(err, "unexpected archive layout from %s", archiveURL)
	}

	candidates := candidateModulePaths(repoRoot, modulePath)
	var moduleDir string
	for _, c := range candidates {
		if _, err := module.DetectFormat(c); err == nil {
			moduleDir = c
			break
		}
	}
	if moduleDir == "" {
		return validationFailedAfterInstall(nil, "no valid module found at any of %v", candidates)
	}

	if name == "" {
		name = filepath.Base(strings.TrimSuffix(orgRepo, "/"))
	}
	dest, err := installDestination(name)
	if err != nil {
		return err
	}
	if err := copyDir(moduleDir, dest); err != nil {
		return fetchFailed(err, "failed to install %s", moduleDir)
	}

	return recordInstall(name, ManifestEntry{
		Source:     "github",
		GithubURL:  orgRepo,
		ModulePath: modulePath,
		Branch:     branch,
		Tag:        tag,
	})
}

func githubArchiveURL(orgRepo, branch, tag string) string {
	ref := branch
	kind := "heads"
	if tag != "" {
		ref = tag
		kind = "tags"
	}
	return fmt.Sprintf("https://github.com/%s/archive/refs/%s/%s.zip", orgRepo, kind, ref)
}

func candidateModulePaths(repoRoot, modulePath string) []string {
	var candidates []string
	if modulePath != "" {
		candidates = append(candidates, filepath.Join(repoRoot, modulePath))
	}
	candidates = append(candidates,
		repoRoot,
		filepath.Join(repoRoot, "cognitive", "modules", modulePath),
		filepath.Join(repoRoot, "modules", modulePath),
	)
	return candidates
}

// singleSubdir returns the one directory a GitHub codeload archive
// extracts into (it always wraps the repo in a single "<repo>-<ref>/"
// top-level directory).
func singleSubdir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("archive contained no top-level directory")
}

// Update re-installs a module using the remote coordinates recorded at
// install time; only supported for modules installed from GitHub
// (spec.md §4.2).
func Update(name string) (oldVersion, newVersion string, err error) {
	entry, ok, err := GetInstalledInfo(name)
	if err != nil {
		return "", "", err
	}
	if !ok || entry.GithubURL == "" {
		return "", "", invalidSource("%q was not installed from a remote URL; update is unsupported", name)
	}
	oldVersion = entry.Version
	if err := InstallFromGithubURL(entry.GithubURL, entry.ModulePath, name, entry.Branch, entry.Tag); err != nil {
		return "", "", err
	}
	updated, _, _ := GetInstalledInfo(name)
	return oldVersion, updated.Version, nil
}

// Uninstall removes name's user-global directory and manifest entry. It
// refuses to delete anything outside the user-global root.
func Uninstall(name string) error {
	userDir, err := UserModulesDir()
	if err != nil {
		return err
	}
	target := filepath.Join(userDir, name)
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(userDir)+string(os.PathSeparator)) {
		return invalidSource("refusing to uninstall a path outside the user-global modules directory: %s", target)
	}
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return notFound("module %q is not installed", name)
	}
	if err := os.RemoveAll(target); err != nil {
		return err
	}
	return removeInstallRecord(name)
}

func downloadFile(url, dest string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

func unzip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		path := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(dest)+string(os.PathSeparator)) && filepath.Clean(path) != filepath.Clean(dest) {
			return fmt.Errorf("illegal file path in archive: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := extractZipFile(f, path); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, rc)
	return err
}

// copyDir recursively copies src into dst, creating dst fresh.
func copyDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
