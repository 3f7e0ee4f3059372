// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ziel-io/cognitive/services/registry"
)

func runInstallCommand(cmd *cobra.Command, args []string) error {
	source, name := args[0], args[1]
	var err error
	if branchFlag != "" || tagFlag != "" {
		orgRepo, ok := strings.CutPrefix(source, "github:")
		if !ok {
			orgRepo, ok = strings.CutPrefix(source, "https://github.com/")
		}
		if !ok {
			return fmt.Errorf("cognitive: --branch and --tag apply to GitHub sources only")
		}
		err = registry.InstallFromGithubURL(strings.TrimSuffix(orgRepo, "/"), "", name, branchFlag, tagFlag)
	} else {
		err = registry.InstallModule(source, name)
	}
	if err != nil {
		return err
	}
	logger.Info("module installed", "module", name, "source", source)
	fmt.Printf("installed %q\n", name)
	return nil
}

func runUninstallCommand(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := registry.Uninstall(name); err != nil {
		return err
	}
	logger.Info("module uninstalled", "module", name)
	fmt.Printf("uninstalled %q\n", name)
	return nil
}

func runUpdateCommand(cmd *cobra.Command, args []string) error {
	name := args[0]
	oldVersion, newVersion, err := registry.Update(name)
	if err != nil {
		return err
	}
	logger.Info("module updated", "module", name, "old_version", oldVersion, "new_version", newVersion)
	fmt.Printf("updated %q: %s -> %s\n", name, oldVersion, newVersion)
	return nil
}

func runListCommand(cmd *cobra.Command, args []string) error {
	entries, err := registry.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no modules installed")
		return nil
	}
	fmt.Println(styleHeader(fmt.Sprintf("%-24s %-8s %-8s %s", "NAME", "FORMAT", "SCOPE", "PATH")))
	for _, e := range entries {
		// Pad the plain name to column width first, then style the padded
		// string as a whole: padding after styling would count the ANSI
		// escape bytes against the width and misalign the columns.
		fmt.Printf("%s %-8s %-8s %s\n", styleName(fmt.Sprintf("%-24s", e.Name)), e.Format, e.Location, e.Path)
	}
	return nil
}

func runSearchCommand(cmd *cobra.Command, args []string) error {
	query := args[0]
	if forceRefetch {
		if _, err := registry.FetchCatalog(registry.DefaultCatalogURL, true); err != nil {
			return fmt.Errorf("cognitive: refreshing catalog: %w", err)
		}
	}
	results, err := registry.SearchCatalog(query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	fmt.Println(styleHeader(fmt.Sprintf("%-24s %s", "NAME", "DESCRIPTION")))
	for _, r := range results {
		fmt.Printf("%s %s\n", styleName(fmt.Sprintf("%-24s", r.Name)), r.Description)
	}
	return nil
}
