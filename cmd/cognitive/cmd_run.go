// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/ziel-io/cognitive/pkg/config"
	"github.com/ziel-io/cognitive/pkg/hooks"
	"github.com/ziel-io/cognitive/services/llm"
	"github.com/ziel-io/cognitive/services/runner"
)

func init() {
	hooks.Register(hooks.Set{
		BeforeCall: func(moduleName string, input map[string]any) {
			logger.Debug("calling module", "module", moduleName)
		},
		AfterCall: func(moduleName string, envelopeJSON []byte, latency time.Duration) {
			logger.Info("module call completed", "module", moduleName, "latency_ms", latency.Milliseconds())
		},
		OnError: func(moduleName string, err error, partial map[string]any) {
			logger.Error("module call errored", "module", moduleName, "error", err)
		},
	})
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	moduleName := args[0]
	moduleArgs := args[1:]

	var input map[string]any
	if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
		return fmt.Errorf("cognitive: --input is not valid JSON: %w", err)
	}

	provider := envFlag
	if provider == "" {
		provider = config.Global.LLMProvider
	}
	client, err := llm.New(provider)
	if err != nil {
		return err
	}

	opts := runner.DefaultOptions()
	if noValidate {
		opts.ValidateInput = false
		opts.ValidateOutput = false
	}
	if noRepair {
		opts.EnableRepair = false
	}
	opts.TraceID = traceID

	r := runner.New(client)
	env := r.Run(context.Background(), moduleName, moduleArgs, input, opts)

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("cognitive: cannot marshal envelope: %w", err)
	}
	fmt.Println(string(out))
	if !env.Ok {
		cmd.SilenceUsage = true
		return fmt.Errorf("module %q returned ok=false (%s)", moduleName, env.Err.Code)
	}
	return nil
}
