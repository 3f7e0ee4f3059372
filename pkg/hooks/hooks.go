// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package hooks is the runner's observability extension point (spec.md
// §4.8, §5): a process-wide registry of callbacks, expected to be
// populated once at startup and read lock-free on every call's hot path.
//
// # Design Philosophy
//
// The runner itself ships with no tracing, metrics, or audit logging
// baked in — it fires three named events (before_call, after_call,
// on_error) and lets whatever the host registers here decide what to do
// with them. A host that registers nothing pays no cost beyond an empty
// slice iteration.
//
// # Thread Safety
//
// Register takes a lock; Fire* reads a lock-free atomic snapshot, so a
// call in flight never blocks on registration happening concurrently on
// another goroutine. A panicking hook never propagates past its Fire*
// call: each hook is recovered on its own, so the hooks registered after
// it still receive the event, and the call itself always proceeds.
package hooks

import (
	"sync"
	"sync/atomic"
	"time"
)

// BeforeCallFunc fires once a module has resolved and before the prompt is
// sent to the LLM.
type BeforeCallFunc func(moduleName string, input map[string]any)

// AfterCallFunc fires once the runner has a final envelope, success or
// failure, to return.
type AfterCallFunc func(moduleName string, envelopeJSON []byte, latency time.Duration)

// OnErrorFunc fires when the runner catches an unexpected error (including
// a recovered panic); partial carries whatever data survived, if any.
type OnErrorFunc func(moduleName string, err error, partial map[string]any)

// Set is one registrant's set of callbacks; any field may be nil.
type Set struct {
	BeforeCall BeforeCallFunc
	AfterCall  AfterCallFunc
	OnError    OnErrorFunc
}

var (
	mu       sync.Mutex
	registry atomic.Value // []Set
)

func init() {
	registry.Store([]Set{})
}

// Register adds h to the process-wide registry. Intended for startup;
// calling it mid-traffic is safe but the new hook only sees calls that
// start after the snapshot is published.
func Register(h Set) {
	mu.Lock()
	defer mu.Unlock()
	cur := snapshot()
	next := make([]Set, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = h
	registry.Store(next)
}

// Reset clears every registered hook. Exists for tests; production code
// should not call it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry.Store([]Set{})
}

func snapshot() []Set {
	s, _ := registry.Load().([]Set)
	return s
}

// FireBeforeCall invokes every registered BeforeCall, swallowing panics.
func FireBeforeCall(moduleName string, input map[string]any) {
	for _, h := range snapshot() {
		if h.BeforeCall == nil {
			continue
		}
		callSafely(func() { h.BeforeCall(moduleName, input) })
	}
}

// FireAfterCall invokes every registered AfterCall, swallowing panics.
func FireAfterCall(moduleName string, envelopeJSON []byte, latency time.Duration) {
	for _, h := range snapshot() {
		if h.AfterCall == nil {
			continue
		}
		callSafely(func() { h.AfterCall(moduleName, envelopeJSON, latency) })
	}
}

// FireOnError invokes every registered OnError, swallowing panics.
func FireOnError(moduleName string, err error, partial map[string]any) {
	for _, h := range snapshot() {
		if h.OnError == nil {
			continue
		}
		callSafely(func() { h.OnError(moduleName, err, partial) })
	}
}

// callSafely runs fn and recovers any panic, per the "hook failures are
// swallowed and never propagate" contract (spec.md §4.8).
func callSafely(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
