// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// setupTracing registers a real TracerProvider when COGNITIVE_TRACE_EXPORT
// is set, so the spans services/runner.callLLM and services/llm's provider
// clients already emit land somewhere observable; absent that variable,
// otel's default no-op provider is left in place exactly as before, so a
// plain `cognitive run` stays silent. Mirrors the FOSS/Enterprise split in
// the teacher's cmd/aleutian/internal/diagnostics/tracer.go, scaled down to
// a single stdout exporter since this CLI has no bundled collector to talk
// OTLP/gRPC to.
func setupTracing() func(context.Context) error {
	if os.Getenv("COGNITIVE_TRACE_EXPORT") == "" {
		return func(context.Context) error { return nil }
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		logger.Error("failed to build trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("cognitive"))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown
}
