// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import "github.com/ziel-io/cognitive/services/module"

// Options controls one call's optional behavior (spec.md §4.8: "accepts
// validate_input, validate_output, enable_repair, use_envelope, use_v22
// flags"). UseEnvelope and UseV22 are pointers so nil means "auto-detect
// from the module" rather than an explicit override.
type Options struct {
	ValidateInput  bool
	ValidateOutput bool
	EnableRepair   bool
	UseEnvelope    *bool
	UseV22         *bool
	TraceID        string
}

// DefaultOptions validates both ends and repairs failures, the posture a
// host should default to unless it has a specific reason not to.
func DefaultOptions() Options {
	return Options{ValidateInput: true, ValidateOutput: true, EnableRepair: true}
}

// resolvedUseV22 applies spec.md §4.8's auto-detection rule: prefer
// envelope+v2.2 when the module is v2.x or declares
// compat.runtime_auto_wrap=true, unless the caller overrode it.
func (o Options) resolvedUseV22(m *module.Module) bool {
	if o.UseV22 != nil {
		return *o.UseV22
	}
	switch m.FormatVersion {
	case module.FormatV20, module.FormatV21, module.FormatV22:
		return true
	}
	return m.Compat.RuntimeAutoWrap
}

func (o Options) resolvedUseEnvelope(m *module.Module) bool {
	if o.UseEnvelope != nil {
		return *o.UseEnvelope
	}
	return o.resolvedUseV22(m)
}
