// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package registry resolves module names to on-disk paths across a set of
// search roots, and installs/updates/uninstalls modules from local paths,
// GitHub archives, or a public catalog (spec.md §4.2).
package registry

import "fmt"

const (
	CodeModuleNotFound               = "MODULE_NOT_FOUND"
	CodeInvalidSource                = "INVALID_SOURCE"
	CodeFetchFailed                  = "FETCH_FAILED"
	CodeValidationFailedAfterInstall = "VALIDATION_FAILED_AFTER_INSTALL"
)

// Error carries the external error code alongside a message.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func notFound(format string, args ...any) error {
	return &Error{Code: CodeModuleNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidSource(format string, args ...any) error {
	return &Error{Code: CodeInvalidSource, Message: fmt.Sprintf(format, args...)}
}

func fetchFailed(cause error, format string, args ...any) error {
	return &Error{Code: CodeFetchFailed, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func validationFailedAfterInstall(cause error, format string, args ...any) error {
	return &Error{Code: CodeValidationFailedAfterInstall, Message: fmt.Sprintf(format, args...), Cause: cause}
}
