// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ziel-io/cognitive/services/llm"
)

func runStatusCommand(cmd *cobra.Command, args []string) error {
	for _, s := range llm.CheckProviderStatus() {
		state := "not configured"
		if s.Configured {
			state = "configured"
		}
		if s.Detail != "" {
			fmt.Printf("%-12s %-15s %s\n", s.Provider, state, s.Detail)
			continue
		}
		fmt.Printf("%-12s %-15s\n", s.Provider, state)
	}
	return nil
}
