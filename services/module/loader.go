// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package module

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziel-io/cognitive/services/risk"
	"gopkg.in/yaml.v3"
)

// Load reads the module directory at dir and returns its normalized
// in-memory record, whichever of the four on-disk formats it turns out to
// be (spec.md §4.1). Format-specific parsing never leaks past this
// package: every returned Module looks the same to the runner, registry,
// and validator.
func Load(dir string) (*Module, error) {
	format, err := detectFormat(dir)
	if err != nil {
		return nil, err
	}

	var m *Module
	switch format {
	case FormatV22, FormatV21, FormatV20:
		m, err = loadManifestForm(dir, format)
	case FormatV1:
		m, err = loadV1(dir)
	case FormatV0:
		m, err = loadV0(dir)
	default:
		return nil, notFound("unrecognized format %q for %s", format, dir)
	}
	if err != nil {
		return nil, err
	}

	m.Path = dir
	applyDefaults(m)
	return m, nil
}

// manifestDoc mirrors module.yaml's top-level shape (v2.0/v2.1/v2.2 all
// share it; only which keys are populated differs).
type manifestDoc struct {
	Name             string         `yaml:"name"`
	Version          string         `yaml:"version"`
	Responsibility   string         `yaml:"responsibility"`
	Tier             string         `yaml:"tier"`
	SchemaStrictness string         `yaml:"schema_strictness"`
	Excludes         []string       `yaml:"excludes"`
	Constraints      []string       `yaml:"constraints"`
	Policies         *policiesDoc   `yaml:"policies"`
	Overflow         *overflowDoc   `yaml:"overflow"`
	Enums            *enumsDoc      `yaml:"enums"`
	Compat           *compatDoc     `yaml:"compat"`
	MetaConfig       *metaConfigDoc `yaml:"meta_config"`
}

type policiesDoc struct {
	Network       string            `yaml:"network"`
	Filesystem    string            `yaml:"filesystem"`
	CodeExecution string            `yaml:"code_execution"`
	Tools         map[string]string `yaml:"tools"`
}

type overflowDoc struct {
	Enabled                 bool `yaml:"enabled"`
	Recoverable             bool `yaml:"recoverable"`
	MaxItems                int  `yaml:"max_items"`
	RequireSuggestedMapping bool `yaml:"require_suggested_mapping"`
}

type enumsDoc struct {
	Strategy   string `yaml:"strategy"`
	UnknownTag string `yaml:"unknown_tag"`
}

type compatDoc struct {
	AcceptsV21Payload bool   `yaml:"accepts_v21_payload"`
	RuntimeAutoWrap   bool   `yaml:"runtime_auto_wrap"`
	SchemaOutputAlias string `yaml:"schema_output_alias"`
}

type metaConfigDoc struct {
	RiskRule string `yaml:"risk_rule"`
}

// loadManifestForm parses the shared module.yaml + prompt.md + schema.json
// layout used by v2.0, v2.1, and v2.2 — the only difference between the
// three is which manifest keys happen to be populated, which applyDefaults
// fills in afterward.
func loadManifestForm(dir string, format FormatVersion) (*Module, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "module.yaml"))
	if err != nil {
		return nil, parseErr(err, "cannot read module.yaml in %s", dir)
	}
	var doc manifestDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, parseErr(err, "malformed module.yaml in %s", dir)
	}
	if doc.Name == "" || doc.Responsibility == "" {
		return nil, parseErr(nil, "module.yaml in %s must set name and responsibility", dir)
	}

	prompt, err := readText(filepath.Join(dir, "prompt.md"))
	if err != nil {
		return nil, parseErr(err, "cannot read prompt.md in %s", dir)
	}

	schemas, err := readSchemaFile(filepath.Join(dir, "schema.json"))
	if err != nil {
		return nil, err
	}

	m := &Module{
		Name:             doc.Name,
		Version:          doc.Version,
		FormatVersion:    format,
		Responsibility:   doc.Responsibility,
		Tier:             Tier(doc.Tier),
		SchemaStrictness: Strictness(doc.SchemaStrictness),
		Excludes:         doc.Excludes,
		Prompt:           prompt,
		Schemas:          schemas,
		Policies:         doc.Policies.normalize(),
		MetaConfig:       doc.MetaConfig.normalize(),
		Overflow:         doc.Overflow.normalize(),
		Enums:            doc.Enums.normalize(),
		Compat:           doc.Compat.normalize(),
	}
	m.Constraints = mergeConstraints(doc.Constraints, m.Policies)
	return m, nil
}

func (p *policiesDoc) normalize() Policies {
	if p == nil {
		return Policies{}
	}
	return Policies{Network: p.Network, Filesystem: p.Filesystem, CodeExecution: p.CodeExecution, Tools: p.Tools}
}

func (o *overflowDoc) normalize() Overflow {
	if o == nil {
		return Overflow{}
	}
	return Overflow{Enabled: o.Enabled, Recoverable: o.Recoverable, MaxItems: o.MaxItems, RequireSuggestedMapping: o.RequireSuggestedMapping}
}

func (e *enumsDoc) normalize() Enums {
	if e == nil {
		return Enums{}
	}
	return Enums{Strategy: e.Strategy, UnknownTag: e.UnknownTag}
}

func (c *compatDoc) normalize() Compat {
	if c == nil {
		return Compat{}
	}
	return Compat{AcceptsV21Payload: c.AcceptsV21Payload, RuntimeAutoWrap: c.RuntimeAutoWrap, SchemaOutputAlias: c.SchemaOutputAlias}
}

func (mc *metaConfigDoc) normalize() MetaConfig {
	if mc == nil {
		return MetaConfig{}
	}
	return MetaConfig{RiskRule: ruleFromString(mc.RiskRule)}
}

// readSchemaFile loads schema.json's {meta, input, data|output, error,
// $defs} shape, aliasing "output" to Data when "data" isn't present
// (spec.md §4.1).
func readSchemaFile(path string) (Schemas, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Schemas{}, parseErr(err, "cannot read schema.json at %s", path)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Schemas{}, parseErr(err, "malformed schema.json at %s", path)
	}
	return schemasFromDoc(doc), nil
}

func schemasFromDoc(doc map[string]any) Schemas {
	s := Schemas{
		Input: asObject(doc["input"]),
		Meta:  asObject(doc["meta"]),
		Error: asObject(doc["error"]),
	}
	if data := asObject(doc["data"]); data != nil {
		s.Data = data
	} else {
		s.Data = asObject(doc["output"])
	}
	if defs := asObject(doc["$defs"]); defs != nil {
		s.Defs = defs
	}
	return s
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// v1FrontMatter is the YAML header MODULE.md carries; the markdown body
// that follows it becomes the prompt template.
type v1FrontMatter struct {
	Name           string         `yaml:"name"`
	Version        string         `yaml:"version"`
	Responsibility string         `yaml:"responsibility"`
	Constraints    []string       `yaml:"constraints"`
	Context        map[string]any `yaml:"context"`
	InputSchema    map[string]any `yaml:"input_schema"`
	OutputSchema   map[string]any `yaml:"output_schema"`
}

func loadV1(dir string) (*Module, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "MODULE.md"))
	if err != nil {
		return nil, parseErr(err, "cannot read MODULE.md in %s", dir)
	}
	frontmatter, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, parseErr(err, "MODULE.md in %s is missing YAML frontmatter", dir)
	}
	var fm v1FrontMatter
	if err := yaml.Unmarshal(frontmatter, &fm); err != nil {
		return nil, parseErr(err, "malformed MODULE.md frontmatter in %s", dir)
	}
	if fm.Name == "" || fm.Responsibility == "" {
		return nil, parseErr(nil, "MODULE.md in %s must set name and responsibility", dir)
	}

	m := &Module{
		Name:           fm.Name,
		Version:        fm.Version,
		FormatVersion:  FormatV1,
		Responsibility: fm.Responsibility,
		Prompt:         body,
		Schemas:        Schemas{Input: fm.InputSchema, Data: fm.OutputSchema},
	}
	m.Constraints = mergeConstraints(fm.Constraints, Policies{})
	return m, nil
}

// splitFrontMatter splits a "---\n<yaml>\n---\n<body>" document. Returns an
// error if the leading "---" delimiter pair is absent.
func splitFrontMatter(raw []byte) (frontmatter []byte, body string, err error) {
	text := string(raw)
	const delim = "---"
	if !strings.HasPrefix(strings.TrimLeft(text, "\n"), delim) {
		return nil, "", os.ErrNotExist
	}
	text = strings.TrimLeft(text, "\n")
	text = strings.TrimPrefix(text, delim)
	idx := strings.Index(text, "\n"+delim)
	if idx < 0 {
		return nil, "", os.ErrNotExist
	}
	frontmatter = []byte(text[:idx])
	body = strings.TrimLeft(text[idx+len(delim)+1:], "\n")
	return frontmatter, body, nil
}

func loadV0(dir string) (*Module, error) {
	responsibility, err := readText(filepath.Join(dir, "module.md"))
	if err != nil {
		return nil, parseErr(err, "cannot read module.md in %s", dir)
	}
	prompt, err := readText(filepath.Join(dir, "prompt.txt"))
	if err != nil {
		return nil, parseErr(err, "cannot read prompt.txt in %s", dir)
	}

	inputSchema, err := readSchemaJSON(filepath.Join(dir, "input.schema.json"))
	if err != nil {
		return nil, err
	}
	outputSchema, err := readSchemaJSON(filepath.Join(dir, "output.schema.json"))
	if err != nil {
		return nil, err
	}

	var constraintNames []string
	raw, err := os.ReadFile(filepath.Join(dir, "constraints.yaml"))
	if err != nil {
		return nil, parseErr(err, "cannot read constraints.yaml in %s", dir)
	}
	if err := yaml.Unmarshal(raw, &constraintNames); err != nil {
		return nil, parseErr(err, "malformed constraints.yaml in %s", dir)
	}

	name := filepath.Base(dir)
	m := &Module{
		Name:           name,
		FormatVersion:  FormatV0,
		Responsibility: strings.TrimSpace(firstLine(responsibility)),
		Prompt:         prompt,
		Schemas:        Schemas{Input: inputSchema, Data: outputSchema},
	}
	m.Constraints = mergeConstraints(constraintNames, Policies{})
	return m, nil
}

func readSchemaJSON(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, parseErr(err, "cannot read schema file %s", path)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, parseErr(err, "malformed schema file %s", path)
	}
	return doc, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func ruleFromString(s string) risk.Rule {
	return risk.Rule(s)
}
