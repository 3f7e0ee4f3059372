// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziel-io/cognitive/pkg/schema"
	"github.com/ziel-io/cognitive/services/module"
)

// ValidateModule runs format-aware structural checks on m (spec.md §4.9):
// required manifest fields, that every declared schema compiles, and,
// for v2.2 modules specifically, the meta/data/extensions shape the
// runner and repair pass depend on.
func ValidateModule(m *module.Module) []Violation {
	var out []Violation
	out = append(out, checkIdentity(m)...)
	out = append(out, checkSchemasCompile(m)...)
	if m.FormatVersion == module.FormatV22 {
		out = append(out, checkV22Shape(m)...)
	}
	return out
}

func checkIdentity(m *module.Module) []Violation {
	var out []Violation
	if strings.TrimSpace(m.Name) == "" {
		out = append(out, errorf("name", "module name is required"))
	}
	if strings.TrimSpace(m.Responsibility) == "" {
		out = append(out, warnf("responsibility", "module has no stated responsibility"))
	}
	if strings.TrimSpace(m.Prompt) == "" {
		out = append(out, errorf("prompt", "module has no prompt template"))
	}
	return out
}

func checkSchemasCompile(m *module.Module) []Violation {
	var out []Violation
	for _, s := range []struct {
		name string
		doc  map[string]any
	}{
		{"input", m.Schemas.Input},
		{"data", m.Schemas.Data},
		{"meta", m.Schemas.Meta},
		{"error", m.Schemas.Error},
	} {
		if _, err := schema.Compile(s.doc); err != nil {
			out = append(out, errorf("schema."+s.name, "does not compile: %v", err))
		}
	}
	return out
}

// checkV22Shape enforces the v2.2-specific structural rules named in
// spec.md §4.9: the meta schema requires confidence/risk/explain and caps
// explain's length at 280; the data schema requires rationale; $defs
// carries an "extensions" definition iff overflow is enabled.
func checkV22Shape(m *module.Module) []Violation {
	var out []Violation

	required := requiredFields(m.Schemas.Meta)
	for _, field := range []string{"confidence", "risk", "explain"} {
		if !contains(required, field) {
			out = append(out, errorf("schema.meta.required", "meta schema must require %q", field))
		}
	}
	if maxLen, ok := explainMaxLength(m.Schemas.Meta); ok && maxLen > 280 {
		out = append(out, errorf("schema.meta.properties.explain.maxLength", "must be <= 280, got %v", maxLen))
	}

	dataRequired := requiredFields(m.Schemas.Data)
	if !contains(dataRequired, "rationale") {
		out = append(out, errorf("schema.data.required", "data schema must require \"rationale\""))
	}

	_, hasExtensionsDef := m.Schemas.Defs["extensions"]
	if m.Overflow.Enabled && !hasExtensionsDef {
		out = append(out, errorf("schema.$defs.extensions", "overflow is enabled but $defs.extensions is missing"))
	}
	if !m.Overflow.Enabled && hasExtensionsDef {
		out = append(out, warnf("schema.$defs.extensions", "overflow is disabled but $defs.extensions is still declared"))
	}

	return out
}

func requiredFields(doc map[string]any) []string {
	raw, ok := doc["required"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func explainMaxLength(metaSchema map[string]any) (float64, bool) {
	props, ok := metaSchema["properties"].(map[string]any)
	if !ok {
		return 0, false
	}
	explain, ok := props["explain"].(map[string]any)
	if !ok {
		return 0, false
	}
	n, ok := explain["maxLength"].(float64)
	return n, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ValidateExamples runs every tests/<case>.input.json /
// tests/<case>.expected.json pair declared alongside a module against its
// input/output schemas (spec.md §6: "optional tests/ with pairs"). Absence
// of a tests/ directory is not a violation.
func ValidateExamples(m *module.Module) ([]Violation, error) {
	testsDir := filepath.Join(m.Path, "tests")
	entries, err := os.ReadDir(testsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	inputSchema, err := schema.Compile(m.Schemas.Input)
	if err != nil {
		return nil, fmt.Errorf("validator: input schema does not compile: %w", err)
	}
	dataSchema, err := schema.Compile(m.Schemas.Data)
	if err != nil {
		return nil, fmt.Errorf("validator: data schema does not compile: %w", err)
	}

	var out []Violation
	for _, e := range entries {
		name := e.Name()
		const suffix = ".input.json"
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		caseName := strings.TrimSuffix(name, suffix)
		out = append(out, validateExampleCase(testsDir, caseName, inputSchema, dataSchema)...)
	}
	return out, nil
}

func validateExampleCase(dir, caseName string, inputSchema, dataSchema *schema.Schema) []Violation {
	var out []Violation

	input, err := readJSONFile(filepath.Join(dir, caseName+".input.json"))
	if err != nil {
		return []Violation{errorf("tests/"+caseName, "cannot read input fixture: %v", err)}
	}
	for _, v := range inputSchema.Validate(input) {
		out = append(out, errorf("tests/"+caseName+".input"+v.Path, "%s", v.Message))
	}

	expectedPath := filepath.Join(dir, caseName+".expected.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		return out
	}
	expected, err := readJSONFile(expectedPath)
	if err != nil {
		return append(out, errorf("tests/"+caseName, "cannot read expected fixture: %v", err))
	}
	for _, v := range dataSchema.Validate(expected) {
		out = append(out, errorf("tests/"+caseName+".expected"+v.Path, "%s", v.Message))
	}
	return out
}

func readJSONFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
