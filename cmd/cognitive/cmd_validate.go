// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ziel-io/cognitive/services/module"
	"github.com/ziel-io/cognitive/services/registry"
	"github.com/ziel-io/cognitive/services/validator"
)

func runValidateCommand(cmd *cobra.Command, args []string) error {
	name := args[0]
	path, _, err := resolveModulePath(name)
	if err != nil {
		return err
	}

	m, err := module.Load(path)
	if err != nil {
		return err
	}

	violations := validator.ValidateModule(m)
	exampleViolations, err := validator.ValidateExamples(m)
	if err != nil {
		return err
	}
	violations = append(violations, exampleViolations...)

	if len(violations) == 0 {
		fmt.Printf("%q is valid (%s)\n", name, m.FormatVersion)
		return nil
	}

	for _, v := range violations {
		fmt.Println(v.String())
	}
	if validator.HasErrors(violations) {
		cmd.SilenceUsage = true
		return fmt.Errorf("%q failed validation", name)
	}
	return nil
}

// resolveModulePath treats an argument that points at an existing directory
// as a literal path, falling back to a registry lookup by name otherwise —
// so both `cognitive validate ./my-module` and `cognitive validate triage`
// work from the same command.
func resolveModulePath(nameOrPath string) (path string, location string, err error) {
	if info, statErr := os.Stat(nameOrPath); statErr == nil && info.IsDir() {
		return nameOrPath, "path", nil
	}
	return registry.Find(nameOrPath)
}
