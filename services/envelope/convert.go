// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package envelope

import "github.com/ziel-io/cognitive/services/risk"

// RiskConfig names which aggregation rule converts a legacy payload's
// changes/issues list into a single meta.risk (spec.md §4.4).
type RiskConfig struct {
	Rule risk.Rule
}

// WrapLegacyToV22 converts a v0/v1 "legacy success" document — the LLM's
// entire JSON response used directly as the business payload, with no
// envelope wrapper at all — into a v2.2 Envelope. Per spec.md §4.3: the
// whole document becomes data; meta.confidence comes from data.confidence
// (default 0.5); meta.risk is aggregated over data.changes or data.issues
// using the module's configured rule; meta.explain is data.rationale
// truncated to 280 units.
func WrapLegacyToV22(doc map[string]any, cfg RiskConfig) Envelope {
	confidence := confidenceOf(doc, 0.5)
	level := aggregateFromDoc(cfg.Rule, doc)
	explain := extractRationale(doc)
	if explain == "" {
		explain = "No explanation provided"
	}
	return Success(Meta{
		Confidence: confidence,
		Risk:       RiskFromLevel(string(level)),
		Explain:    truncateExplain(explain),
	}, doc)
}

// WrapV21ToV22 converts a v2.1 envelope (ok + data/error, no meta) into
// v2.2. Per spec.md §4.3: data/error are preserved as-is; only meta is
// synthesized, using the same derivation as the legacy wrap on ok=true,
// or the standard failure defaults on ok=false.
func WrapV21ToV22(doc map[string]any, cfg RiskConfig) Envelope {
	ok, _ := doc["ok"].(bool)
	if !ok {
		errObj, _ := doc["error"].(map[string]any)
		msg := "error"
		if errObj != nil {
			if m, ok := errObj["message"].(string); ok && m != "" {
				msg = m
			}
		}
		env := Failure(codeOf(errObj), msg, recoverableOf(errObj), retryAfterOf(errObj), nil)
		if data, ok := doc["data"].(map[string]any); ok {
			env.PartialData = data
		}
		return env
	}

	data, _ := doc["data"].(map[string]any)
	confidence := confidenceOf(data, 0.5)
	level := aggregateFromDoc(cfg.Rule, data)
	explain := extractRationale(data)
	if explain == "" {
		explain = "No explanation provided"
	}
	return Envelope{
		Ok:      true,
		Version: Version,
		Meta: Meta{
			Confidence: confidence,
			Risk:       RiskFromLevel(string(level)),
			Explain:    truncateExplain(explain),
		},
		Data: data,
	}
}

// aggregateFromDoc dispatches on the module's configured rule (spec.md §4.4):
// max_changes_risk aggregates over data.changes, max_issues_risk over
// data.issues, explicit ignores both. When the configured array is absent
// this still goes through risk.Aggregate with an empty list, which is
// conservative (Medium) rather than a silent None.
func aggregateFromDoc(rule risk.Rule, data map[string]any) risk.Level {
	switch rule {
	case risk.RuleMaxIssues:
		items, _ := arrayRiskItems(data, "issues")
		return risk.Aggregate(risk.RuleMaxIssues, items)
	case risk.RuleExplicit:
		return risk.Aggregate(risk.RuleExplicit, nil)
	default:
		items, _ := arrayRiskItems(data, "changes")
		return risk.Aggregate(risk.RuleMaxChanges, items)
	}
}

// arrayRiskItems reports whether data[key] is present as an array and
// returns its elements' risk fields.
func arrayRiskItems(data map[string]any, key string) ([]risk.Item, bool) {
	raw, present := data[key]
	if !present {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	items := make([]risk.Item, 0, len(list))
	for _, el := range list {
		obj, _ := el.(map[string]any)
		r, _ := obj["risk"].(string)
		items = append(items, risk.Item{Risk: r})
	}
	return items, true
}

func codeOf(errObj map[string]any) string {
	if errObj == nil {
		return "UNKNOWN"
	}
	if c, ok := errObj["code"].(string); ok && c != "" {
		return c
	}
	return "UNKNOWN"
}

func recoverableOf(errObj map[string]any) bool {
	if errObj == nil {
		return false
	}
	b, _ := errObj["recoverable"].(bool)
	return b
}

func retryAfterOf(errObj map[string]any) int64 {
	if errObj == nil {
		return 0
	}
	switch v := errObj["retry_after_ms"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
