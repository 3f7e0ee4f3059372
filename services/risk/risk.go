// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package risk derives a single risk level from a list of risk-bearing
// items (module.data.changes[], module.data.issues[]) using a rule named
// by the module's meta_config.risk_rule.
package risk

import "strings"

// Level is a canonical risk level. Unknown/custom strings are not Levels;
// they are handled separately by the extensible-enum path in services/envelope.
type Level string

const (
	None   Level = "none"
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// order gives the total order none < low < medium < high used by Max.
var order = map[Level]int{
	None:   0,
	Low:    1,
	Medium: 2,
	High:   3,
}

// Rule names the strategy used to aggregate risk over a list of items.
type Rule string

const (
	RuleMaxChanges Rule = "max_changes_risk"
	RuleMaxIssues  Rule = "max_issues_risk"
	RuleExplicit   Rule = "explicit"
)

// Item is anything carrying a risk field: data.changes[*] or data.issues[*].
type Item struct {
	Risk string
}

// Parse normalizes a raw risk string (trim + lowercase) into a Level.
// ok is false when the string isn't one of the four canonical values;
// callers must NOT rewrite such values during repair (spec: repair never
// invents enum values) — they fall back to Medium only for aggregation.
func Parse(raw string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(raw)))
	_, known := order[l]
	return l, known
}

// Max returns the highest of two canonical levels under none<low<medium<high.
func Max(a, b Level) Level {
	if order[a] >= order[b] {
		return a
	}
	return b
}

// Aggregate reduces a list of risk-bearing items to one Level following the
// named rule. An empty list is conservative: it aggregates to Medium rather
// than None, since the absence of any risk annotation is not evidence of
// safety. Items with a missing or non-canonical risk value contribute
// Medium to the max rather than failing aggregation outright.
func Aggregate(rule Rule, items []Item) Level {
	if rule == RuleExplicit {
		return Medium
	}
	if len(items) == 0 {
		return Medium
	}
	result := None
	for _, it := range items {
		level, ok := Parse(it.Risk)
		if !ok {
			level = Medium
		}
		result = Max(result, level)
	}
	return result
}
