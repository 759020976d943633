// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package exit defines the process exit codes of the kvsql binary.
package exit

import (
	"fmt"
	"os"
)

// Code is a process exit code.
type Code struct {
	code int
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return fmt.Sprintf("exit code %d", c.code)
}

// WithCode terminates the process with the given code.
func WithCode(c Code) {
	os.Exit(c.code)
}

// Success (0) represents a normal process termination.
func Success() Code { return Code{0} }

// UnspecifiedError (1) indicates the process has terminated with an
// error condition. The specific cause of the error can be found in
// the logging output.
func UnspecifiedError() Code { return Code{1} }

// UnspecifiedGoPanic (2) indicates the process has terminated due to
// an uncaught Go panic or some other error in the Go runtime.
func UnspecifiedGoPanic() Code { return Code{2} }

// CommandLineFlagError (4) indicates there was an error in the
// command-line parameters.
func CommandLineFlagError() Code { return Code{4} }

// Codes that are specific to client commands follow. They are allocated
// down from 125.

// ConfigurationError (125) indicates that the configuration file or the
// connection options are invalid.
func ConfigurationError() Code { return Code{125} }

// StoreUnavailable (124) indicates that the store could not be opened.
func StoreUnavailable() Code { return Code{124} }
