// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package envelope defines the v2.2 response envelope — the fixed-shape
// wrapper the runner returns for every module call — and the machinery to
// detect and convert older envelope shapes (v0, v1, v2.1) into it.
//
// # Design
//
// The wire format is duck-typed JSON (the legacy Python runtime used plain
// dicts), but the in-memory representation here is a closed sum type:
// an Envelope is either a Success (meta + data) or a Failure (meta + error,
// optional partial_data). There is exactly one encoder, Envelope.MarshalJSON,
// so the wire shape never drifts from two different code paths.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the envelope format version this package produces.
const Version = "2.2"

// MaxExplainLen is the code-unit bound on meta.explain (spec: ≤ 280).
const MaxExplainLen = 280

// Risk is either one of the four canonical levels or, when a module opts
// into the extensible enum strategy, a custom tag with a human reason.
type Risk struct {
	Level  string `json:"-"`
	Custom string `json:"custom,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// IsExtended reports whether this Risk carries a custom tag rather than a
// canonical level string.
func (r Risk) IsExtended() bool {
	return r.Custom != ""
}

// MarshalJSON emits either the bare level string or the {custom, reason}
// object, matching the wire shape in spec.md §3.
func (r Risk) MarshalJSON() ([]byte, error) {
	if r.IsExtended() {
		type extended struct {
			Custom string `json:"custom"`
			Reason string `json:"reason,omitempty"`
		}
		return json.Marshal(extended{Custom: r.Custom, Reason: r.Reason})
	}
	return json.Marshal(r.Level)
}

// UnmarshalJSON accepts either a bare string or a {custom, reason} object.
func (r *Risk) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Level = s
		r.Custom = ""
		r.Reason = ""
		return nil
	}
	var obj struct {
		Custom string `json:"custom"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("envelope: risk must be a string or {custom,reason} object: %w", err)
	}
	r.Custom = obj.Custom
	r.Reason = obj.Reason
	r.Level = ""
	return nil
}

// String renders the risk for logging/aggregation: the canonical level, or
// the custom tag when extended.
func (r Risk) String() string {
	if r.IsExtended() {
		return r.Custom
	}
	return r.Level
}

// RiskFromLevel builds a canonical (non-extended) Risk.
func RiskFromLevel(level string) Risk {
	return Risk{Level: level}
}

// Meta is the control plane: routing/logging metadata attached to every
// envelope, success or failure.
type Meta struct {
	Confidence float64 `json:"confidence"`
	Risk       Risk    `json:"risk"`
	Explain    string  `json:"explain"`
	TraceID    string  `json:"trace_id,omitempty"`
	Model      string  `json:"model,omitempty"`
	LatencyMs  *int64  `json:"latency_ms,omitempty"`
}

// Error is the data plane of a failed call.
type Error struct {
	Code         string         `json:"code"`
	Message      string         `json:"message"`
	Recoverable  bool           `json:"recoverable,omitempty"`
	RetryAfterMs int64          `json:"retry_after_ms,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// Envelope is the closed sum type returned by the runner on every path.
// Exactly one of Data (ok=true) or Err (ok=false) is emitted: MarshalJSON
// writes only the branch that matches Ok. UnmarshalJSON copies whichever
// of data and error the input carries, without enforcing the invariant.
type Envelope struct {
	Ok          bool
	Version     string
	Meta        Meta
	Data        map[string]any // present iff Ok
	Err         *Error         // present iff !Ok
	PartialData map[string]any // optional, only meaningful when !Ok
}

// wireForm mirrors the JSON shape exactly; Envelope.MarshalJSON/UnmarshalJSON
// translate to/from it so the sum-type invariant lives in one place.
type wireForm struct {
	Ok          bool           `json:"ok"`
	Version     string         `json:"version,omitempty"`
	Meta        *Meta          `json:"meta,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Error       *Error         `json:"error,omitempty"`
	PartialData map[string]any `json:"partial_data,omitempty"`
}

// MarshalJSON is the single encoder for the wire format.
func (e Envelope) MarshalJSON() ([]byte, error) {
	w := wireForm{
		Ok:      e.Ok,
		Version: e.Version,
		Meta:    &e.Meta,
	}
	if e.Ok {
		w.Data = e.Data
	} else {
		w.Error = e.Err
		w.PartialData = e.PartialData
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the single decoder for the wire format.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireForm
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Ok = w.Ok
	e.Version = w.Version
	if w.Meta != nil {
		e.Meta = *w.Meta
	}
	e.Data = w.Data
	e.Err = w.Error
	e.PartialData = w.PartialData
	return nil
}

// Success builds an ok=true v2.2 envelope.
func Success(meta Meta, data map[string]any) Envelope {
	return Envelope{Ok: true, Version: Version, Meta: meta, Data: data}
}

// Failure builds an ok=false v2.2 envelope. Per spec.md §3, the error
// branch defaults meta.confidence=0 and meta.risk=high unless the caller
// has already computed something more specific.
func Failure(code, message string, recoverable bool, retryAfterMs int64, partial map[string]any) Envelope {
	return Envelope{
		Ok:      false,
		Version: Version,
		Meta: Meta{
			Confidence: 0,
			Risk:       RiskFromLevel(string(levelHigh)),
			Explain:    truncateExplain(message),
		},
		Err: &Error{
			Code:         code,
			Message:      message,
			Recoverable:  recoverable,
			RetryAfterMs: retryAfterMs,
		},
		PartialData: partial,
	}
}

const levelHigh = "high"

// TruncateExplain clamps s to MaxExplainLen code units, appending "..."
// when truncated. Exported for services/repair, which applies the same
// bound when normalizing an already-built envelope's meta.explain.
func TruncateExplain(s string) string {
	return truncateExplain(s)
}

// truncateExplain clamps s to MaxExplainLen code units, appending "..."
// when truncated, so the result always satisfies the 280-unit bound.
func truncateExplain(s string) string {
	if len(s) <= MaxExplainLen {
		return s
	}
	const suffix = "..."
	cut := MaxExplainLen - len(suffix)
	if cut < 0 {
		cut = 0
	}
	// Avoid cutting mid rune.
	for cut > 0 && !isRuneBoundary(s, cut) {
		cut--
	}
	return s[:cut] + suffix
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i >= len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}

// IsEnvelope reports whether a decoded JSON document looks like any
// envelope shape: it has a boolean "ok" field (spec.md §4.3).
func IsEnvelope(doc map[string]any) bool {
	v, present := doc["ok"]
	if !present {
		return false
	}
	_, isBool := v.(bool)
	return isBool
}

// IsV22 reports whether a decoded envelope document is already v2.2 shaped:
// an envelope (per IsEnvelope) that also carries a "meta" object.
func IsV22(doc map[string]any) bool {
	if !IsEnvelope(doc) {
		return false
	}
	m, present := doc["meta"]
	if !present {
		return false
	}
	_, isObj := m.(map[string]any)
	return isObj
}

// extractRationale pulls data.rationale (string form, for explain
// derivation) from a decoded data object, tolerating non-string rationale
// shapes by returning "".
func extractRationale(data map[string]any) string {
	v, ok := data["rationale"]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// confidenceOf extracts a numeric confidence field from a decoded object,
// defaulting to the given fallback when absent or non-numeric.
func confidenceOf(obj map[string]any, fallback float64) float64 {
	v, ok := obj["confidence"]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}

// normalizeTrailingWhitespace trims leading and trailing whitespace from s.
// services/repair does its own trimming and does not call it.
func normalizeTrailingWhitespace(s string) string {
	return strings.TrimSpace(s)
}
