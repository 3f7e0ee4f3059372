package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ziel-io/cognitive/services/risk"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_V22(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "module.yaml", `
name: demo
version: 1.0.0
responsibility: summarize input safely
tier: decision
schema_strictness: medium
excludes:
  - will not browse the web
constraints:
  - require_confidence
policies:
  network: deny
overflow:
  enabled: true
  max_items: 5
enums:
  strategy: extensible
meta_config:
  risk_rule: max_issues_risk
`)
	writeFile(t, dir, "prompt.md", "Summarize: $INPUT")
	writeFile(t, dir, "schema.json", `{
  "meta": {"required": ["confidence","risk","explain"]},
  "input": {"type": "object"},
  "data": {"required": ["rationale"]},
  "error": {"required": ["code","message"]},
  "$defs": {"extensions": {"type": "object"}}
}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.FormatVersion != FormatV22 {
		t.Fatalf("format = %v, want v2.2", m.FormatVersion)
	}
	if m.Name != "demo" || m.Responsibility == "" {
		t.Fatalf("unexpected identity: %+v", m)
	}
	if !m.Constraints.Has("no_external_network") {
		t.Fatal("policies.network=deny should map to no_external_network")
	}
	if !m.Constraints.Has("require_confidence") {
		t.Fatal("legacy constraint flag should be preserved")
	}
	if m.MetaConfig.RiskRule != risk.RuleMaxIssues {
		t.Fatalf("risk rule = %v, want max_issues_risk", m.MetaConfig.RiskRule)
	}
	if m.Schemas.Data == nil {
		t.Fatal("expected data schema to be populated")
	}
}

func TestLoad_V20_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "module.yaml", `
name: legacy
version: 0.1.0
responsibility: classify a ticket
`)
	writeFile(t, dir, "prompt.md", "Classify: $INPUT")
	writeFile(t, dir, "schema.json", `{"output": {"type": "object"}}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.FormatVersion != FormatV20 {
		t.Fatalf("format = %v, want v2.0", m.FormatVersion)
	}
	if m.SchemaStrictness != StrictnessMedium {
		t.Fatalf("strictness = %v, want medium default", m.SchemaStrictness)
	}
	if !m.Overflow.Enabled || m.Overflow.MaxItems != 5 {
		t.Fatalf("overflow = %+v, want medium defaults (enabled, 5 items)", m.Overflow)
	}
	if m.Enums.Strategy != "strict" {
		t.Fatalf("enums.strategy = %q, want strict (no tier declared)", m.Enums.Strategy)
	}
	if m.Schemas.Data == nil {
		t.Fatal("expected output schema aliased to data")
	}
}

func TestLoad_V21_DetectedByPoliciesKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "module.yaml", `
name: v21mod
responsibility: review a diff
policies:
  network: allow
`)
	writeFile(t, dir, "prompt.md", "Review: $INPUT")
	writeFile(t, dir, "schema.json", `{"data": {"type": "object"}}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.FormatVersion != FormatV21 {
		t.Fatalf("format = %v, want v2.1", m.FormatVersion)
	}
}

func TestLoad_V1_FrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "MODULE.md", `---
name: old-style
version: 0.2.0
responsibility: triage an incident
constraints:
  - no_side_effects
---
Triage the following: $ARGUMENTS
`)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.FormatVersion != FormatV1 {
		t.Fatalf("format = %v, want v1", m.FormatVersion)
	}
	if m.Name != "old-style" {
		t.Fatalf("name = %q, want old-style", m.Name)
	}
	if m.Prompt == "" {
		t.Fatal("expected markdown body to become the prompt")
	}
	if !m.Constraints.Has("no_side_effects") {
		t.Fatal("expected legacy constraint to carry through")
	}
}

func TestLoad_V0_SeparateFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "module.md", "Summarizes arbitrary text.\nSecond line ignored.")
	writeFile(t, dir, "prompt.txt", "Summarize: $ARGUMENTS")
	writeFile(t, dir, "input.schema.json", `{"type": "object"}`)
	writeFile(t, dir, "output.schema.json", `{"type": "object"}`)
	writeFile(t, dir, "constraints.yaml", `
- no_external_network
- no_file_write
`)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.FormatVersion != FormatV0 {
		t.Fatalf("format = %v, want v0", m.FormatVersion)
	}
	if m.Responsibility != "Summarizes arbitrary text." {
		t.Fatalf("responsibility = %q", m.Responsibility)
	}
	if !m.Constraints.Has("no_external_network") || !m.Constraints.Has("no_file_write") {
		t.Fatalf("constraints = %+v", m.Constraints)
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected an error for a missing module directory")
	}
	modErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if modErr.Code != CodeModuleNotFound {
		t.Fatalf("code = %q, want %q", modErr.Code, CodeModuleNotFound)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "module.yaml", "name: [unterminated")
	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	modErr, ok := err.(*Error)
	if !ok || modErr.Code != CodeParseError {
		t.Fatalf("err = %v, want a PARSE_ERROR", err)
	}
}
