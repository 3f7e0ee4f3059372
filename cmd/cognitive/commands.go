// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Flags ---
var (
	inputJSON    string
	traceID      string
	noValidate   bool
	noRepair     bool
	envFlag      string
	branchFlag   string
	tagFlag      string
	backupFlag   bool
	dryRunFlag   bool
	forceRefetch bool

	rootCmd = &cobra.Command{
		Use:   "cognitive",
		Short: "Run, install, and migrate Cognitive Modules",
		Long: `cognitive is the reference runtime for Cognitive Modules: small,
versioned units of LLM-backed behavior that always return a validated
envelope, regardless of which module format version they were written
against.`,
	}

	runCmd = &cobra.Command{
		Use:   "run [module] [args...]",
		Short: "Resolve and run a module, printing its v2.2 envelope",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRunCommand,
	}

	moduleCmd = &cobra.Command{
		Use:     "module",
		Short:   "Install, list, update, and uninstall modules",
		Aliases: []string{"m"},
	}

	installCmd = &cobra.Command{
		Use:   "install [source] [name]",
		Short: "Install a module from a local path, GitHub repo, or the public registry",
		Args:  cobra.ExactArgs(2),
		RunE:  runInstallCommand,
	}

	uninstallCmd = &cobra.Command{
		Use:   "uninstall [name]",
		Short: "Remove an installed module",
		Args:  cobra.ExactArgs(1),
		RunE:  runUninstallCommand,
	}

	updateCmd = &cobra.Command{
		Use:   "update [name]",
		Short: "Reinstall a GitHub-sourced module at its current ref",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdateCommand,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List every module visible across all search roots",
		RunE:  runListCommand,
	}

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search the public module registry catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearchCommand,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [module]",
		Short: "Validate a module's manifest, schemas, and bundled examples",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidateCommand,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate [module]",
		Short: "Rewrite a v0/v1/v2.0/v2.1 module directory into the v2.2 layout",
		Args:  cobra.ExactArgs(1),
		RunE:  runMigrateCommand,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Report which LLM providers are configured",
		RunE:  runStatusCommand,
	}
)

func init() {
	runCmd.Flags().StringVar(&inputJSON, "input", "{}", "JSON object passed to the module as structured input")
	runCmd.Flags().StringVar(&traceID, "trace-id", "", "trace id stamped into meta.trace_id")
	runCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip input/output schema validation")
	runCmd.Flags().BoolVar(&noRepair, "no-repair", false, "skip the repair pass on a failed validation")
	runCmd.Flags().StringVar(&envFlag, "provider", "", "override the configured LLM provider for this run")

	installCmd.Flags().StringVar(&branchFlag, "branch", "", "git branch to install from (GitHub sources only)")
	installCmd.Flags().StringVar(&tagFlag, "tag", "", "git tag to install from (GitHub sources only)")

	migrateCmd.Flags().BoolVar(&backupFlag, "backup", true, "write a timestamped backup before rewriting files")
	migrateCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "report the change set without touching disk")

	searchCmd.Flags().BoolVar(&forceRefetch, "refresh", false, "bypass the catalog cache and refetch")

	moduleCmd.AddCommand(installCmd, uninstallCmd, updateCmd, listCmd, searchCmd)
	rootCmd.AddCommand(runCmd, moduleCmd, validateCmd, migrateCmd, statusCmd)
}
