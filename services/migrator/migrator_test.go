// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package migrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziel-io/cognitive/services/module"
	"gopkg.in/yaml.v3"
)

func writeV21Module(t *testing.T, dir string) {
	t.Helper()
	manifest := `
name: triage
version: "1.0"
responsibility: triage an incoming ticket
policies:
  network: deny
constraints:
  - no_external_network
  - no_side_effects
`
	schema := `{
  "input": {"type": "object"},
  "output": {"type": "object", "required": ["summary"]}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "module.yaml"), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.json"), []byte(schema), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.md"), []byte("Triage this ticket."), 0644))
}

func writeV0Module(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "module.md"), []byte("# triage\nan old-style triage module"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.txt"), []byte("Triage this ticket."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.schema.json"), []byte(`{"type":"object"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "output.schema.json"), []byte(`{"type":"object","required":["summary"]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "constraints.yaml"), []byte("- no_external_network\n"), 0644))
}

func readManifest(t *testing.T, dir string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "module.yaml"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	return doc
}

func readSchema(t *testing.T, dir string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "schema.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestMigrate_V21ToV22(t *testing.T) {
	dir := t.TempDir()
	writeV21Module(t, dir)

	result, err := Migrate(dir, Options{})
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.AlreadyV22)

	format, err := module.DetectFormat(dir)
	require.NoError(t, err)
	assert.Equal(t, module.FormatV22, format)

	manifest := readManifest(t, dir)
	assert.Equal(t, "decision", manifest["tier"])
	assert.Equal(t, "medium", manifest["schema_strictness"])
	constraints, _ := manifest["constraints"].([]any)
	assert.Len(t, constraints, 2)

	schema := readSchema(t, dir)
	data, _ := schema["data"].(map[string]any)
	require.NotNil(t, data, "expected schema.json data section (renamed from output)")
	required, _ := data["required"].([]any)
	assert.Contains(t, required, "rationale")

	promptRaw, err := os.ReadFile(filepath.Join(dir, "prompt.md"))
	require.NoError(t, err)
	assert.NotEmpty(t, promptRaw)
}

func TestMigrate_V0ToV22(t *testing.T) {
	dir := t.TempDir()
	writeV0Module(t, dir)

	result, err := Migrate(dir, Options{})
	require.NoError(t, err)
	assert.True(t, result.Changed)

	_, err = os.Stat(filepath.Join(dir, "module.md"))
	assert.True(t, os.IsNotExist(err), "expected module.md to be removed after migration")

	_, err = os.Stat(filepath.Join(dir, "module.yaml"))
	assert.NoError(t, err, "expected module.yaml to exist after migration")

	format, err := module.DetectFormat(dir)
	require.NoError(t, err)
	assert.Equal(t, module.FormatV22, format)
}

func TestMigrate_AlreadyV22IsNoOp(t *testing.T) {
	dir := t.TempDir()
	manifest := "name: triage\ntier: decision\noverflow:\n  enabled: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "module.yaml"), []byte(manifest), 0644))
	schema := `{"meta":{"type":"object"},"input":{"type":"object"},"data":{"type":"object","required":["rationale"]},"error":{"type":"object"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.json"), []byte(schema), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.md"), []byte("go"), 0644))

	result, err := Migrate(dir, Options{})
	require.NoError(t, err)
	assert.True(t, result.AlreadyV22)
	assert.False(t, result.Changed)
}

func TestMigrate_DryRunDoesNotTouchDisk(t *testing.T) {
	dir := t.TempDir()
	writeV21Module(t, dir)

	before, err := os.ReadFile(filepath.Join(dir, "module.yaml"))
	require.NoError(t, err)

	result, err := Migrate(dir, Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.Changed, "expected DryRun to still report the change set")

	after, err := os.ReadFile(filepath.Join(dir, "module.yaml"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "expected dry-run to leave module.yaml untouched")
}

func TestMigrate_BackupCreatesSibling(t *testing.T) {
	dir := t.TempDir()
	writeV21Module(t, dir)

	result, err := Migrate(dir, Options{Backup: true})
	require.NoError(t, err)
	require.NotEmpty(t, result.BackupPath)

	_, err = os.Stat(filepath.Join(result.BackupPath, "module.yaml"))
	assert.NoError(t, err, "expected backup to carry the original module.yaml")
}

func TestMigrate_IdempotentReMigration(t *testing.T) {
	dir := t.TempDir()
	writeV21Module(t, dir)

	_, err := Migrate(dir, Options{})
	require.NoError(t, err)

	result, err := Migrate(dir, Options{})
	require.NoError(t, err)
	assert.True(t, result.AlreadyV22, "expected re-migration to detect v2.2 and no-op")
}
