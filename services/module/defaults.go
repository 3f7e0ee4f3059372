// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package module

import "github.com/ziel-io/cognitive/services/risk"

// flagNoExternalNetwork/flagNoSideEffects/flagNoFileWrite name the operational flags the
// runner and validator key off of; they're the normalized form of both the
// old `constraints` list and the newer `policies` map (spec.md §4.1).
const (
	flagNoExternalNetwork = "no_external_network"
	flagNoSideEffects     = "no_side_effects"
	flagNoFileWrite       = "no_file_write"
)

// applyDefaults fills every tier/strictness-derived default a module didn't
// declare explicitly. It never overwrites a value the module did declare;
// it only fills gaps, mirroring the loader's "last-write-wins shallow
// merge" rule (spec.md §4.1) with the defaults conceptually written first.
func applyDefaults(m *Module) {
	if m.SchemaStrictness == "" {
		m.SchemaStrictness = StrictnessMedium
	}
	if m.Overflow == (Overflow{}) {
		m.Overflow = DefaultOverflow(m.SchemaStrictness)
	}
	if m.Enums.Strategy == "" {
		m.Enums = DefaultEnums(m.Tier)
	}
	if m.MetaConfig.RiskRule == "" {
		m.MetaConfig.RiskRule = risk.RuleMaxChanges
	}
	if m.Compat.SchemaOutputAlias == "" {
		m.Compat.SchemaOutputAlias = "data"
	}
}

// mergeConstraints folds the legacy `constraints` flag list and the newer
// `policies` map into one normalized operational set (spec.md §4.1):
// policies.network=deny maps to no_external_network=true, and so on.
func mergeConstraints(legacy []string, policies Policies) Constraints {
	operational := make(map[string]bool, len(legacy)+4)
	for _, flag := range legacy {
		operational[flag] = true
	}
	if policies.Network == "deny" {
		operational[flagNoExternalNetwork] = true
	}
	if policies.Filesystem == "deny" {
		operational[flagNoFileWrite] = true
	}
	if policies.CodeExecution == "deny" {
		operational[flagNoSideEffects] = true
	}
	return Constraints{Operational: operational}
}
