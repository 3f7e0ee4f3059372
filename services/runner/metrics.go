// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// runsTotal and runLatencyMs are the runner's two process-wide metrics
// (spec.md §4.11): every call increments runsTotal labeled by outcome, and
// records its wall-clock latency regardless of outcome.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cognitive_runs_total",
		Help: "Total module runs, labeled by whether the final envelope was ok.",
	}, []string{"ok", "module"})

	runLatencyMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cognitive_run_latency_ms",
		Help:    "Wall-clock latency of a full module run, in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})
)

func observeRun(moduleName string, ok bool, latencyMs float64) {
	runsTotal.WithLabelValues(boolLabel(ok), moduleName).Inc()
	runLatencyMs.Observe(latencyMs)
}

func boolLabel(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}
