// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// DefaultCatalogURL is the public index of community modules.
const DefaultCatalogURL = "https://raw.githubusercontent.com/ziel-io/cognitive-modules/main/cognitive-registry.json"

// catalogCacheTTL bounds how long a fetched catalog is trusted before a
// refetch is attempted; a stale cache is still used if the refetch fails
// (spec.md §5: "catalog cache is best-effort; staleness is acceptable").
const catalogCacheTTL = 1 * time.Hour

// CatalogEntry is one module listed in the public catalog.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	ModulePath  string `json:"module_path,omitempty"`
}

type catalogCache struct {
	FetchedAt int64                   `json:"fetched_at"`
	Entries   map[string]CatalogEntry `json:"entries"`
}

func catalogCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cognitive", "registry-cache.json"), nil
}

// FetchCatalog returns the public module index, from cache when it is
// fresh, else refetched from url (empty means DefaultCatalogURL). A forced
// refresh (force=true) always hits the network but falls back to a stale
// cache on failure.
func FetchCatalog(url string, force bool) (map[string]CatalogEntry, error) {
	if url == "" {
		url = DefaultCatalogURL
	}

	cachePath, err := catalogCachePath()
	if err != nil {
		return nil, err
	}

	cached, cacheErr := readCatalogCache(cachePath)
	fresh := cacheErr == nil && time.Since(time.Unix(cached.FetchedAt, 0)) < catalogCacheTTL
	if fresh && !force {
		return cached.Entries, nil
	}

	entries, fetchErr := fetchCatalogRemote(url)
	if fetchErr != nil {
		if cacheErr == nil {
			return cached.Entries, nil // stale cache beats a failed refresh
		}
		return nil, fetchFailed(fetchErr, "failed to fetch catalog from %s", url)
	}

	_ = writeCatalogCache(cachePath, catalogCache{FetchedAt: time.Now().Unix(), Entries: entries})
	return entries, nil
}

func fetchCatalogRemote(url string) (map[string]CatalogEntry, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching catalog", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var entries map[string]CatalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readCatalogCache(path string) (catalogCache, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalogCache{}, err
	}
	var c catalogCache
	if err := json.Unmarshal(raw, &c); err != nil {
		return catalogCache{}, err
	}
	return c, nil
}

func writeCatalogCache(path string, c catalogCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SearchCatalog returns catalog entries whose name or description contains
// query (case-insensitive), sorted by name.
func SearchCatalog(query string) ([]CatalogEntry, error) {
	entries, err := FetchCatalog("", false)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var matches []CatalogEntry
	for _, e := range entries {
		if query == "" || strings.Contains(strings.ToLower(e.Name), query) || strings.Contains(strings.ToLower(e.Description), query) {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

// InstallFromRegistry resolves name against the public catalog and installs
// it by recursing into whichever source type the entry names.
func InstallFromRegistry(name string) error {
	entries, err := FetchCatalog("", false)
	if err != nil {
		return err
	}
	entry, ok := entries[name]
	if !ok {
		return notFound("no catalog entry named %q", name)
	}
	if entry.Source == "" {
		return invalidSource("catalog entry %q has no source", name)
	}
	return InstallModule(entry.Source, name)
}

type githubTag struct {
	Name string `json:"name"`
}

// ListGithubTags returns up to limit tag names for orgRepo, sorted by
// sortTagsBySemver (highest version first) rather than in the GitHub tags
// API's own order.
func ListGithubTags(orgRepo string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}
	url := fmt.Sprintf("https://api.github.com/repos/%s/tags?per_page=%d", orgRepo, limit)
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fetchFailed(err, "failed to list tags for %s", orgRepo)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fetchFailed(nil, "unexpected status %d listing tags for %s", resp.StatusCode, orgRepo)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchFailed(err, "failed to read tag list for %s", orgRepo)
	}
	var tags []githubTag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fetchFailed(err, "malformed tag list for %s", orgRepo)
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	sortTagsBySemver(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// sortTagsBySemver puts valid-semver tags first, newest to oldest, ahead of
// any non-semver tags (which keep their original relative order). GitHub's
// tags API orders by commit recency, not version order, so a repo that
// force-pushes or backfills tags can otherwise surface an older release as
// the "latest" one.
func sortTagsBySemver(names []string) {
	canon := func(v string) string {
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		return v
	}
	sort.SliceStable(names, func(i, j int) bool {
		vi, vj := canon(names[i]), canon(names[j])
		validI, validJ := semver.IsValid(vi), semver.IsValid(vj)
		if validI != validJ {
			return validI
		}
		if !validI {
			return false
		}
		return semver.Compare(vi, vj) > 0
	})
}
