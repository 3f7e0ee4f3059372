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
	"github.com/ziel-io/cognitive/services/migrator"
)

func runMigrateCommand(cmd *cobra.Command, args []string) error {
	path, _, err := resolveModulePath(args[0])
	if err != nil {
		return err
	}

	result, err := migrator.Migrate(path, migrator.Options{Backup: backupFlag, DryRun: dryRunFlag})
	if err != nil {
		return err
	}

	if result.AlreadyV22 {
		fmt.Printf("%q is already v2.2, nothing to do\n", args[0])
		return nil
	}
	if dryRunFlag {
		fmt.Printf("%q would be migrated to v2.2\n", args[0])
		return nil
	}
	logger.Info("module migrated", "module", args[0], "backup", result.BackupPath)
	fmt.Printf("migrated %q to v2.2\n", args[0])
	if result.BackupPath != "" {
		fmt.Printf("backup written to %s\n", result.BackupPath)
	}
	return nil
}
