// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package migrator rewrites a v0/v1/v2.0/v2.1 module directory on disk into
// the v2.2 layout (spec.md §4.10): a fresh module.yaml, a four-section
// schema.json, and a prompt.md carrying the v2.2 response-format
// instructions.
package migrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ziel-io/cognitive/services/module"
	"github.com/ziel-io/cognitive/services/prompt"
	"gopkg.in/yaml.v3"
)

// Options controls one migration run.
type Options struct {
	// Backup copies dir to a timestamped sibling before writing, when true.
	Backup bool
	// DryRun computes and reports the change set without touching disk.
	DryRun bool
}

// Result reports what a migration did (or, under DryRun, would do).
type Result struct {
	AlreadyV22 bool
	Changed    bool
	BackupPath string
	ModulePath string
}

// Migrate transforms the module directory at dir into v2.2 in place.
// Repeated migration is a no-op: a directory already v2.2-shaped (detected,
// per spec.md §4.10, by the presence of any of tier|overflow|enums in
// module.yaml) is left untouched and reported as AlreadyV22.
func Migrate(dir string, opts Options) (Result, error) {
	format, err := module.DetectFormat(dir)
	if err != nil {
		return Result{}, fmt.Errorf("migrator: %w", err)
	}
	if format == module.FormatV22 {
		return Result{AlreadyV22: true, ModulePath: dir}, nil
	}

	m, err := module.Load(dir)
	if err != nil {
		return Result{}, fmt.Errorf("migrator: cannot load %s: %w", dir, err)
	}

	manifest := buildV22Manifest(m)
	schema := buildV22Schema(m)
	promptText := buildV22Prompt(m)

	result := Result{ModulePath: dir, Changed: true}
	if opts.DryRun {
		return result, nil
	}

	if opts.Backup {
		backupPath, err := backupDir(dir)
		if err != nil {
			return Result{}, fmt.Errorf("migrator: backup failed: %w", err)
		}
		result.BackupPath = backupPath
	}

	if err := writeYAML(filepath.Join(dir, "module.yaml"), manifest); err != nil {
		return Result{}, err
	}
	if err := writeJSON(filepath.Join(dir, "schema.json"), schema); err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, "prompt.md"), []byte(promptText), 0644); err != nil {
		return Result{}, fmt.Errorf("migrator: cannot write prompt.md: %w", err)
	}

	// v0/v1 modules carry their own separate files (module.md, prompt.txt,
	// *.schema.json, constraints.yaml, or MODULE.md); those formats are
	// superseded by the files just written and are removed so a later
	// DetectFormat unambiguously resolves to v2.2 rather than re-detecting
	// the old layout alongside it.
	removeSupersededFiles(dir, format)

	return result, nil
}

// buildV22Manifest derives the v2.2 manifest, merging the module's already
// normalized fields with the defaults spec.md §4.10 names: tier=decision,
// schema_strictness=medium, plus whatever overflow/enums/compat the module
// didn't already declare (module.Load already ran applyDefaults, so these
// are already filled; buildV22Manifest only needs to serialize them back).
func buildV22Manifest(m *module.Module) map[string]any {
	tier := m.Tier
	if tier == "" {
		tier = module.TierDecision
	}

	doc := map[string]any{
		"name":              m.Name,
		"responsibility":    m.Responsibility,
		"tier":              string(tier),
		"schema_strictness": string(m.SchemaStrictness),
		"overflow": map[string]any{
			"enabled":                   m.Overflow.Enabled,
			"recoverable":               m.Overflow.Recoverable,
			"max_items":                 m.Overflow.MaxItems,
			"require_suggested_mapping": m.Overflow.RequireSuggestedMapping,
		},
		"enums": map[string]any{
			"strategy": m.Enums.Strategy,
		},
		"compat": map[string]any{
			"accepts_v21_payload": true,
			"runtime_auto_wrap":   true,
			"schema_output_alias": "data",
		},
		"meta_config": map[string]any{
			"risk_rule": string(m.MetaConfig.RiskRule),
		},
	}
	if m.Version != "" {
		doc["version"] = m.Version
	}
	if len(m.Excludes) > 0 {
		doc["excludes"] = m.Excludes
	}
	if flags := sortedTrueFlags(m.Constraints.Operational); len(flags) > 0 {
		doc["constraints"] = flags
	}
	return doc
}

func sortedTrueFlags(flags map[string]bool) []string {
	out := make([]string, 0, len(flags))
	for name, set := range flags {
		if set {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// buildV22Schema rewrites the module's schemas into the four-section
// {meta, input, data, error, $defs} layout, renaming a legacy output schema
// to data and adding rationale to its required list (spec.md §4.10).
func buildV22Schema(m *module.Module) map[string]any {
	data := addRationaleRequired(m.Schemas.Data)

	doc := map[string]any{
		"meta":  v22MetaSchema(),
		"input": nonNilObject(m.Schemas.Input),
		"data":  data,
		"error": v22ErrorSchema(),
	}
	defs := map[string]any{}
	for k, v := range m.Schemas.Defs {
		defs[k] = v
	}
	if m.Overflow.Enabled {
		defs["extensions"] = extensionsDef(m.Overflow.MaxItems)
	}
	doc["$defs"] = defs
	return doc
}

func v22MetaSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"confidence", "risk", "explain"},
		"properties": map[string]any{
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"risk":       map[string]any{"type": "string"},
			"explain":    map[string]any{"type": "string", "maxLength": 280},
		},
	}
}

func v22ErrorSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"code", "message"},
		"properties": map[string]any{
			"code":    map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
		},
	}
}

func extensionsDef(maxItems int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"insights": map[string]any{
				"type":     "array",
				"maxItems": maxItems,
			},
		},
	}
}

func addRationaleRequired(data map[string]any) map[string]any {
	out := map[string]any{"type": "object"}
	for k, v := range data {
		out[k] = v
	}
	required, _ := out["required"].([]any)
	for _, r := range required {
		if s, ok := r.(string); ok && s == "rationale" {
			return out
		}
	}
	requiredStrings := make([]string, 0, len(required)+1)
	for _, r := range required {
		if s, ok := r.(string); ok {
			requiredStrings = append(requiredStrings, s)
		}
	}
	requiredStrings = append(requiredStrings, "rationale")
	out["required"] = requiredStrings
	return out
}

func nonNilObject(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{"type": "object"}
	}
	return m
}

// buildV22Prompt appends the v2.2 response-format section to the module's
// existing prompt template.
func buildV22Prompt(m *module.Module) string {
	return m.Prompt + "\n\n" + prompt.ResponseFormatV22 + "\n"
}

func writeYAML(path string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("migrator: cannot marshal %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

func writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("migrator: cannot marshal %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

// backupDir copies dir to a timestamped sibling directory before migration
// writes anything, so a dissatisfied caller can restore the original.
func backupDir(dir string) (string, error) {
	backup := dir + ".bak-" + time.Now().Format("20060102-150405")
	if err := copyTree(dir, backup); err != nil {
		return "", err
	}
	return backup, nil
}

func copyTree(src, dst string) error {
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

// removeSupersededFiles deletes the on-disk artifacts specific to the
// pre-migration format, now that module.yaml/schema.json/prompt.md carry
// everything. Best-effort: a removal failure doesn't fail the migration,
// since the v2.2 files are already correctly in place.
func removeSupersededFiles(dir string, format module.FormatVersion) {
	var names []string
	switch format {
	case module.FormatV1:
		names = []string{"MODULE.md"}
	case module.FormatV0:
		names = []string{"module.md", "prompt.txt", "input.schema.json", "output.schema.json", "constraints.yaml"}
	}
	for _, name := range names {
		_ = os.Remove(filepath.Join(dir, name))
	}
}
