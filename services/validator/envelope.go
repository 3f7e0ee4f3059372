// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"github.com/ziel-io/cognitive/pkg/schema"
	"github.com/ziel-io/cognitive/services/envelope"
	"github.com/ziel-io/cognitive/services/module"
)

// ValidateEnvelope checks e against the invariants of spec.md §3: exactly
// one of data/error, confidence in range, risk present, explain within
// bound, and (when m is non-nil) the module's overflow policy on
// data.extensions.insights. It returns ok=true iff no error-severity
// violation was found; warnings never flip ok to false.
func ValidateEnvelope(e envelope.Envelope, m *module.Module) (bool, []Violation) {
	var out []Violation

	if e.Version != "" && e.Version != envelope.Version {
		out = append(out, warnf("version", "expected %q, got %q", envelope.Version, e.Version))
	}

	if e.Meta.Confidence < 0 || e.Meta.Confidence > 1 {
		out = append(out, errorf("meta.confidence", "must be within [0,1], got %v", e.Meta.Confidence))
	}
	if e.Meta.Risk.String() == "" {
		out = append(out, errorf("meta.risk", "must be non-empty"))
	}
	if len(e.Meta.Explain) > envelope.MaxExplainLen {
		out = append(out, errorf("meta.explain", "must be <= %d code units, got %d", envelope.MaxExplainLen, len(e.Meta.Explain)))
	}

	if e.Ok {
		out = append(out, checkSuccessBranch(e)...)
	} else {
		out = append(out, checkFailureBranch(e)...)
	}

	if m != nil {
		out = append(out, checkOverflowPolicy(e, m)...)
		out = append(out, checkAgainstModuleSchemas(e, m)...)
	}

	return !HasErrors(out), out
}

// checkAgainstModuleSchemas validates data (on an ok=true envelope) against
// the module's own declared data schema; the error object is not checked
// against the module's error schema. A module-specific requirement like "data.rationale
// is required" is enforced even though the generic envelope shape only
// treats it as a convention (spec.md §8 scenario 5: a data object missing
// a schema-required field fails validation even when every generic
// invariant holds).
func checkAgainstModuleSchemas(e envelope.Envelope, m *module.Module) []Violation {
	var out []Violation
	if e.Ok {
		if dataSchema, err := schema.Compile(m.Schemas.Data); err == nil {
			for _, v := range dataSchema.Validate(anyOrEmpty(e.Data)) {
				out = append(out, errorf("data"+v.Path, "%s", v.Message))
			}
		}
	}
	return out
}

func anyOrEmpty(data map[string]any) any {
	if data == nil {
		return map[string]any{}
	}
	return data
}

func checkSuccessBranch(e envelope.Envelope) []Violation {
	var out []Violation
	if e.Err != nil {
		out = append(out, errorf("error", "ok=true envelope must not carry an error"))
	}
	if e.Data == nil {
		out = append(out, errorf("data", "ok=true envelope must carry data"))
		return out
	}
	if _, ok := e.Data["rationale"]; !ok {
		out = append(out, warnf("data.rationale", "data should include a rationale"))
	}
	return out
}

func checkFailureBranch(e envelope.Envelope) []Violation {
	var out []Violation
	if e.Data != nil {
		out = append(out, errorf("data", "ok=false envelope must not carry data"))
	}
	if e.Err == nil {
		out = append(out, errorf("error", "ok=false envelope must carry an error"))
		return out
	}
	if e.Err.Code == "" {
		out = append(out, errorf("error.code", "must be non-empty"))
	}
	if e.Err.Message == "" {
		out = append(out, errorf("error.message", "must be non-empty"))
	}
	if e.Err.RetryAfterMs < 0 {
		out = append(out, errorf("error.retry_after_ms", "must be non-negative, got %d", e.Err.RetryAfterMs))
	}
	return out
}

// checkOverflowPolicy enforces the boundary case in spec.md §8: a module
// with overflow disabled (or max_items=0) must not receive an envelope
// whose data.extensions.insights carries any entries.
func checkOverflowPolicy(e envelope.Envelope, m *module.Module) []Violation {
	if e.Data == nil {
		return nil
	}
	insights := extensionInsights(e.Data)
	if len(insights) == 0 {
		return nil
	}
	if !m.Overflow.Enabled {
		return []Violation{errorf("data.extensions.insights", "overflow is disabled for %q but envelope carries %d insight(s)", m.Name, len(insights))}
	}
	if m.Overflow.MaxItems > 0 && len(insights) > m.Overflow.MaxItems {
		return []Violation{errorf("data.extensions.insights", "exceeds max_items=%d for %q (got %d)", m.Overflow.MaxItems, m.Name, len(insights))}
	}
	if m.Overflow.MaxItems == 0 {
		return []Violation{errorf("data.extensions.insights", "max_items=0 for %q but envelope carries %d insight(s)", m.Name, len(insights))}
	}
	return nil
}

func extensionInsights(data map[string]any) []any {
	ext, ok := data["extensions"].(map[string]any)
	if !ok {
		return nil
	}
	insights, ok := ext["insights"].([]any)
	if !ok {
		return nil
	}
	return insights
}
