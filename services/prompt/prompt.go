// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package prompt assembles the text sent to the LLM from a module's
// template, the caller's positional arguments, and its structured input
// (spec.md §4.6).
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ziel-io/cognitive/services/module"
	"gopkg.in/yaml.v3"
)

// Assemble produces the full prompt text: the template with placeholders
// substituted, followed by the module's constraints, the raw input, and a
// response-format instruction block. useV22 selects which envelope format
// the instruction block describes.
func Assemble(m *module.Module, args []string, input map[string]any, useV22 bool) (string, error) {
	body := SubstituteArguments(m.Prompt, args)
	body = substituteInput(body, input)

	inputJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompt: cannot marshal input: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(constraintsBlock(m))
	sb.WriteString("\nInput:\n")
	sb.Write(inputJSON)
	sb.WriteString("\n\n")
	sb.WriteString(responseFormatBlock(useV22))
	return sb.String(), nil
}

// SubstituteArguments replaces $ARGUMENTS[N], $N, and $ARGUMENTS in
// template with values from args. N is processed in descending order so
// that $1 never matches as a prefix of $10 (spec.md §4.6 boundary case).
func SubstituteArguments(template string, args []string) string {
	out := template
	for n := len(args) - 1; n >= 0; n-- {
		idx := strconv.Itoa(n)
		out = strings.ReplaceAll(out, "$ARGUMENTS["+idx+"]", args[n])
		out = strings.ReplaceAll(out, "$"+idx, args[n])
	}
	out = strings.ReplaceAll(out, "$ARGUMENTS", strings.Join(args, " "))
	return out
}

// substituteInput replaces $INPUT with a pretty-printed JSON dump of the
// full input map.
func substituteInput(template string, input map[string]any) string {
	if !strings.Contains(template, "$INPUT") {
		return template
	}
	dump, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return template
	}
	return strings.ReplaceAll(template, "$INPUT", string(dump))
}

// constraintsBlock renders the module's declared constraints as a YAML
// block, so the model sees the same names the validator enforces.
func constraintsBlock(m *module.Module) string {
	flags := make([]string, 0, len(m.Constraints.Operational))
	for name, set := range m.Constraints.Operational {
		if set {
			flags = append(flags, name)
		}
	}
	sort.Strings(flags)

	doc := map[string]any{}
	if len(flags) > 0 {
		doc["constraints"] = flags
	}
	if len(m.Excludes) > 0 {
		doc["excludes"] = m.Excludes
	}
	if len(doc) == 0 {
		return ""
	}
	dump, err := yaml.Marshal(doc)
	if err != nil {
		return ""
	}
	return "Constraints:\n" + string(dump)
}

const v21ResponseFormat = `Respond with a single JSON object:
{"ok": true, "data": {...}} on success, or
{"ok": false, "error": {"code": "...", "message": "..."}} on failure.
"data" must include "rationale" explaining your answer.`

const v22ResponseFormat = `Respond with a single JSON object shaped exactly like:
{
  "ok": true,
  "meta": {"confidence": <0..1>, "risk": "none|low|medium|high", "explain": "<= 280 characters"},
  "data": {"rationale": "<unbounded free text>", ...}
}
or, on failure:
{
  "ok": false,
  "meta": {"confidence": 0, "risk": "high", "explain": "<= 280 characters"},
  "error": {"code": "...", "message": "..."}
}
meta.explain is hard-capped at 280 characters; data.rationale has no length limit.`

// responseFormatBlock returns the v2.1 or v2.2 response-format instruction
// text, distinguished by useV22 (spec.md §4.6).
func responseFormatBlock(useV22 bool) string {
	if useV22 {
		return v22ResponseFormat
	}
	return v21ResponseFormat
}

// ResponseFormatV22 is the v2.2 response-format instruction block, exported
// for services/migrator, which appends it to a migrated module's prompt.md.
const ResponseFormatV22 = v22ResponseFormat
