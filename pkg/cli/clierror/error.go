// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package clierror reports errors of CLI commands.
package clierror

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/cli/exit"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
)

// Error wraps an error with the exit code the process terminates with.
type Error struct {
	exitCode exit.Code
	cause    error
}

// NewError wraps cause with exitCode. A nil cause yields nil.
func NewError(cause error, exitCode exit.Code) error {
	if cause == nil {
		return nil
	}
	return &Error{exitCode: exitCode, cause: cause}
}

// GetExitCode returns the exit code of the error.
func (e *Error) GetExitCode() exit.Code { return e.exitCode }

func (e *Error) Error() string { return e.cause.Error() }
func (e *Error) Cause() error  { return e.cause }
func (e *Error) Unwrap() error { return e.cause }

// Format implements fmt.Formatter.
func (e *Error) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// SafeFormatError implements errors.SafeFormatter.
func (e *Error) SafeFormatError(p errors.Printer) (next error) {
	if p.Detail() {
		p.Printf("%s", e.exitCode)
	}
	return e.cause
}

// ExitCode returns the exit code carried by err, UnspecifiedError when it
// carries none.
func ExitCode(err error) exit.Code {
	var e *Error
	if errors.As(err, &e) {
		return e.exitCode
	}
	return exit.UnspecifiedError()
}

// OutputError prints err the way a SQL shell does. With verbose the full
// error chain follows, including stack traces.
func OutputError(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, pgerror.Flatten(err).String())
	if verbose {
		fmt.Fprintf(w, "--\n%+v\n", err)
	}
}
