// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package module loads a Cognitive Module directory — whichever of the four
// on-disk formats (v0, v1, v2.0/v2.1, v2.2) it happens to be — into one
// normalized in-memory record. Callers never branch on format version; that
// is the loader's job, and its job alone.
package module

import "github.com/ziel-io/cognitive/services/risk"

// FormatVersion names the on-disk layout a module was loaded from.
type FormatVersion string

const (
	FormatV0  FormatVersion = "v0"
	FormatV1  FormatVersion = "v1"
	FormatV20 FormatVersion = "v2.0"
	FormatV21 FormatVersion = "v2.1"
	FormatV22 FormatVersion = "v2.2"
)

// Tier names the declared audience for a module's output. Absent (empty
// string) for formats older than v2.2.
type Tier string

const (
	TierExec        Tier = "exec"
	TierDecision    Tier = "decision"
	TierExploration Tier = "exploration"
)

// Strictness drives the overflow defaults a module inherits when it doesn't
// declare its own (see DefaultOverflow).
type Strictness string

const (
	StrictnessHigh   Strictness = "high"
	StrictnessMedium Strictness = "medium"
	StrictnessLow    Strictness = "low"
)

// Schemas bundles the four JSON-Schema documents a module declares, plus any
// shared $defs (notably "extensions", consumed by the overflow channel).
type Schemas struct {
	Input map[string]any
	Data  map[string]any
	Meta  map[string]any
	Error map[string]any
	Defs  map[string]any
}

// Overflow controls the optional data.extensions.insights[] channel for
// out-of-schema findings. Defaults are derived from Strictness when a
// module doesn't declare its own block (§3: high→disabled; medium→enabled,
// 5 items; low→enabled, 20 items).
type Overflow struct {
	Enabled                 bool
	Recoverable             bool
	MaxItems                int
	RequireSuggestedMapping bool
}

// Enums controls whether meta.risk (and other nominal enums) accept only
// the canonical values (strict) or a {custom, reason} escape hatch
// (extensible). Default is extensible for decision/exploration tiers, else
// strict.
type Enums struct {
	Strategy   string // "strict" | "extensible"
	UnknownTag string
}

// Compat governs how the runtime treats envelopes the module returns that
// don't already match v2.2.
type Compat struct {
	AcceptsV21Payload bool
	RuntimeAutoWrap   bool
	SchemaOutputAlias string
}

// MetaConfig is module-declared runner behavior outside the schema itself.
type MetaConfig struct {
	RiskRule risk.Rule
}

// Policies are allow/deny declarations for side-effecting capabilities.
// "" means unspecified (no opinion); "allow"/"deny" are the only other
// values the loader recognizes.
type Policies struct {
	Network       string
	Filesystem    string
	CodeExecution string
	Tools         map[string]string
}

// Constraints is the normalized set of declarative policy flags a module
// carries, merged from the legacy `constraints` list and the newer
// `policies` map (see mergeConstraints). Operational["no_external_network"]
// etc. is what the runner and validator consult; nothing downstream looks
// at the raw YAML shape again.
type Constraints struct {
	Operational map[string]bool
}

// Has reports whether a named operational flag is set.
func (c Constraints) Has(flag string) bool {
	return c.Operational[flag]
}

// Module is the normalized in-memory record every loader path converges on,
// regardless of which on-disk format produced it (§3).
type Module struct {
	Name             string
	Version          string
	FormatVersion    FormatVersion
	Responsibility   string
	Tier             Tier
	SchemaStrictness Strictness
	Excludes         []string
	Prompt           string
	Schemas          Schemas
	Constraints      Constraints
	Policies         Policies
	Overflow         Overflow
	Enums            Enums
	Compat           Compat
	MetaConfig       MetaConfig
	Path             string
}

// DefaultOverflow derives the overflow defaults for a strictness level, used
// when a module doesn't declare its own overflow block.
func DefaultOverflow(s Strictness) Overflow {
	switch s {
	case StrictnessHigh:
		return Overflow{Enabled: false}
	case StrictnessLow:
		return Overflow{Enabled: true, Recoverable: true, MaxItems: 20, RequireSuggestedMapping: true}
	default: // medium, or unspecified
		return Overflow{Enabled: true, Recoverable: true, MaxItems: 5, RequireSuggestedMapping: true}
	}
}

// DefaultEnums derives the enum strategy for a tier: decision/exploration
// modules get the extensible escape hatch, exec modules (and the absent
// tier of pre-2.2 formats) stay strict.
func DefaultEnums(t Tier) Enums {
	if t == TierDecision || t == TierExploration {
		return Enums{Strategy: "extensible"}
	}
	return Enums{Strategy: "strict"}
}
