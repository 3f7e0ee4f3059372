// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// stdoutIsTerminal gates ANSI styling: a non-tty stdout (piped into a file,
// grep, or another process) gets plain text, matching cobra/lipgloss's own
// convention of never decorating redirected output.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func styleHeader(s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return headerStyle.Render(s)
}

func styleName(s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return nameStyle.Render(s)
}
