// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package runner is the orchestrator: Resolve → LoadModule → ValidateInput
// → BuildPrompt → CallLLM → Parse → Normalize → Validate → Repair →
// Re-Validate (spec.md §4.8). Every public entry point returns a v2.2
// envelope; nothing downstream of Run ever sees a raw LLM response or a
// Go error.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziel-io/cognitive/pkg/hooks"
	"github.com/ziel-io/cognitive/pkg/schema"
	"github.com/ziel-io/cognitive/services/envelope"
	"github.com/ziel-io/cognitive/services/llm"
	"github.com/ziel-io/cognitive/services/module"
	"github.com/ziel-io/cognitive/services/prompt"
	"github.com/ziel-io/cognitive/services/registry"
	"github.com/ziel-io/cognitive/services/repair"
	"github.com/ziel-io/cognitive/services/risk"
	"github.com/ziel-io/cognitive/services/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cognitive.runner")

const (
	codeModuleNotFound         = "MODULE_NOT_FOUND"
	codeInvalidInput           = "INVALID_INPUT"
	codeParseError             = "PARSE_ERROR"
	codeSchemaValidationFailed = "SCHEMA_VALIDATION_FAILED"
	codeMetaValidationFailed   = "META_VALIDATION_FAILED"
	codeUnknown                = "UNKNOWN"
)

// Runner dispatches calls to a single LLM backend. Resolving and loading
// modules always goes through the package-level registry/module lookup;
// the only per-Runner state is which backend answers CallLLM.
type Runner struct {
	Client llm.Client
}

// New builds a Runner around client.
func New(client llm.Client) *Runner {
	return &Runner{Client: client}
}

// Run executes one full call to moduleName and always returns a v2.2
// envelope, success or failure (spec.md §4.8's contract — there is no Go
// error return; every failure mode is a structured envelope).
func (r *Runner) Run(ctx context.Context, moduleName string, args []string, input map[string]any, opts Options) envelope.Envelope {
	start := time.Now()

	env := func() (env envelope.Envelope) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				hooks.FireOnError(moduleName, err, nil)
				env = envelope.Failure(codeUnknown, err.Error(), false, 0, nil)
				env.Err.Details = map[string]any{"exception_type": "panic"}
			}
		}()
		return r.run(ctx, moduleName, args, input, opts)
	}()

	env = stampMeta(ctx, env, start, r.Client, opts.TraceID)
	observeRun(moduleName, env.Ok, float64(time.Since(start).Milliseconds()))

	envJSON, marshalErr := json.Marshal(env)
	if marshalErr == nil {
		hooks.FireAfterCall(moduleName, envJSON, time.Since(start))
	}
	return env
}

func (r *Runner) run(ctx context.Context, moduleName string, args []string, input map[string]any, opts Options) envelope.Envelope {
	// Resolve
	path, _, err := registry.Find(moduleName)
	if err != nil {
		return envelope.Failure(codeModuleNotFound, err.Error(), false, 0, nil)
	}

	// LoadModule
	m, err := module.Load(path)
	if err != nil {
		return envelope.Failure(codeParseError, err.Error(), true, 1000, nil)
	}

	hooks.FireBeforeCall(moduleName, input)

	// ValidateInput
	if opts.ValidateInput {
		inputSchema, err := schema.Compile(m.Schemas.Input)
		if err != nil {
			return envelope.Failure(codeInvalidInput, fmt.Sprintf("input schema does not compile: %v", err), false, 0, nil)
		}
		if violations := inputSchema.Validate(input); len(violations) > 0 {
			return envelope.Failure(codeInvalidInput, fmt.Sprintf("input violates schema: %v", violations[0]), false, 0, nil)
		}
	}

	// BuildPrompt
	useV22 := opts.resolvedUseV22(m)
	promptText, err := prompt.Assemble(m, args, input, useV22)
	if err != nil {
		return envelope.Failure(codeInvalidInput, err.Error(), false, 0, nil)
	}

	// CallLLM
	raw, err := callLLM(ctx, r.Client, moduleName, promptText)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return envelope.Failure(llm.CodeTimeout, ctxErr.Error(), true, 5000, nil)
		}
		return envelopeFromLLMError(err)
	}

	// Parse
	doc, err := parseLLMResponse(raw)
	if err != nil {
		return envelope.Failure(codeParseError, err.Error(), true, 1000, nil)
	}

	// Normalize (→ v2.2)
	riskCfg := envelope.RiskConfig{Rule: resolvedRiskRule(m)}
	var env envelope.Envelope
	if opts.resolvedUseEnvelope(m) {
		env = normalize(doc, riskCfg, useV22)
	} else {
		// The module doesn't speak the ok/data/error convention at all;
		// an "ok" key in its response would otherwise be mistaken for one.
		env = envelope.WrapLegacyToV22(doc, riskCfg)
	}

	if !opts.ValidateOutput {
		return env
	}

	// Validate (data+meta)
	if ok, _ := validator.ValidateEnvelope(env, m); ok {
		return env
	}

	if !opts.EnableRepair {
		return schemaFailureEnvelope(env)
	}

	// Repair, then Re-Validate
	repaired := repair.Envelope(env)
	if ok, _ := validator.ValidateEnvelope(repaired, m); ok {
		return repaired
	}
	return schemaFailureEnvelope(env)
}

// callLLM wraps the dispatcher call in an otel span, so CallLLM shows up as
// its own segment in any trace the host exports (spec.md §4.11).
func callLLM(ctx context.Context, client llm.Client, moduleName, promptText string) (string, error) {
	ctx, span := tracer.Start(ctx, "runner.CallLLM")
	defer span.End()
	span.SetAttributes(attribute.String("cognitive.module", moduleName))

	raw, err := client.Complete(ctx, promptText)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return raw, err
}

// normalize converts a decoded LLM response into a v2.2 Envelope, picking
// the conversion path by what shape the document already has (spec.md
// §4.3).
func normalize(doc map[string]any, cfg envelope.RiskConfig, useV22 bool) envelope.Envelope {
	if envelope.IsV22(doc) {
		raw, _ := json.Marshal(doc)
		var env envelope.Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			env.Version = envelope.Version
			return env
		}
	}
	if envelope.IsEnvelope(doc) {
		return envelope.WrapV21ToV22(doc, cfg)
	}
	return envelope.WrapLegacyToV22(doc, cfg)
}

// schemaFailureEnvelope builds the ok=false envelope returned when
// validation still fails after repair: pre-repair data becomes
// partial_data (spec.md §7's "no partial success is silently elevated"),
// and the error code distinguishes a meta-only defect from a data defect.
func schemaFailureEnvelope(preRepair envelope.Envelope) envelope.Envelope {
	code := codeSchemaValidationFailed
	if preRepair.Data != nil {
		if _, hasRationale := preRepair.Data["rationale"]; hasRationale {
			code = codeMetaValidationFailed
		}
	}
	return envelope.Failure(code, "envelope failed validation after repair", true, 1000, preRepair.Data)
}

func resolvedRiskRule(m *module.Module) risk.Rule {
	if m.MetaConfig.RiskRule != "" {
		return m.MetaConfig.RiskRule
	}
	return risk.RuleMaxChanges
}

// envelopeFromLLMError maps a dispatcher failure to its externally visible
// error code and retry hint (spec.md §6, §8 scenario 6).
func envelopeFromLLMError(err error) envelope.Envelope {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return envelope.Failure(llmErr.Code, llmErr.Message, llmErr.Recoverable, llmErr.RetryAfterMs, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return envelope.Failure(llm.CodeTimeout, err.Error(), true, 5000, nil)
	}
	return envelope.Failure(llm.CodeLLMError, err.Error(), true, 5000, nil)
}

// stampMeta fills in the fields only the runner can know: elapsed
// wall-clock time, the backend's model id, and the trace id (spec.md
// §4.8). A caller-supplied trace id wins; absent that, an otel span the
// caller already attached to ctx before calling Run supplies one, so a
// host exporting traces can still join an envelope back to its span
// without passing a trace id explicitly. Lacking both, a random id is
// generated so every envelope is still correlatable in logs; spec.md's
// idempotence property is defined up to meta.trace_id, so this never
// breaks it.
func stampMeta(ctx context.Context, env envelope.Envelope, start time.Time, client llm.Client, traceID string) envelope.Envelope {
	elapsed := time.Since(start).Milliseconds()
	env.Meta.LatencyMs = &elapsed
	if env.Meta.Model == "" && client != nil {
		env.Meta.Model = client.Model()
	}
	switch {
	case traceID != "":
		env.Meta.TraceID = traceID
	case trace.SpanContextFromContext(ctx).IsValid():
		env.Meta.TraceID = trace.SpanContextFromContext(ctx).TraceID().String()
	default:
		env.Meta.TraceID = uuid.NewString()
	}
	return env
}
