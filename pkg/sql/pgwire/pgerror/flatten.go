// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package pgerror attaches PostgreSQL error codes to errors and flattens
// error chains into the form reported to SQL clients.
package pgerror

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
)

// InternalErrorPrefix is prepended to the message of errors flattened with
// pgcode.Internal.
const InternalErrorPrefix = "internal error: "

// DefaultSeverity is the severity of errors that carry none.
const DefaultSeverity = "ERROR"

// Error is the flattened form of an error chain.
type Error struct {
	Code     string
	Severity string
	Message  string
	Detail   string
	Hint     string
}

func (pg *Error) Error() string {
	return pg.Message
}

// String renders the error the way a SQL shell prints it.
func (pg *Error) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: %s\nSQLSTATE: %s", pg.Severity, pg.Message, pg.Code)
	if pg.Detail != "" {
		fmt.Fprintf(&buf, "\nDETAIL: %s", pg.Detail)
	}
	if pg.Hint != "" {
		fmt.Fprintf(&buf, "\nHINT: %s", pg.Hint)
	}
	return buf.String()
}

// Flatten turns any error into a pgerror with fields populated.
// Returns a nil ptr if err was nil to start with.
func Flatten(err error) *Error {
	if err == nil {
		return nil
	}
	resErr := &Error{
		Code:     GetPGCode(err).String(),
		Severity: GetSeverity(err),
		Message:  err.Error(),
		Detail:   errors.FlattenDetails(err),
		Hint:     errors.FlattenHints(err),
	}
	if resErr.Code == pgcode.Internal.String() && !strings.HasPrefix(resErr.Message, InternalErrorPrefix) {
		resErr.Message = InternalErrorPrefix + resErr.Message
	}
	return resErr
}

// WithSeverity decorates the error with a severity. The outermost severity
// wins.
func WithSeverity(err error, severity string) error {
	if err == nil {
		return nil
	}
	return &withSeverity{cause: err, severity: severity}
}

type withSeverity struct {
	cause    error
	severity string
}

func (w *withSeverity) Error() string { return w.cause.Error() }
func (w *withSeverity) Cause() error  { return w.cause }
func (w *withSeverity) Unwrap() error { return w.cause }

func (w *withSeverity) Format(s fmt.State, verb rune) { errors.FormatError(w, s, verb) }

func (w *withSeverity) SafeFormatError(p errors.Printer) (next error) {
	if p.Detail() {
		p.Printf("severity: %s", errors.Safe(w.severity))
	}
	return w.cause
}

// GetSeverity returns the outermost severity attached to the error, or
// DefaultSeverity.
func GetSeverity(err error) string {
	for c := err; c != nil; c = errors.UnwrapOnce(c) {
		if w, ok := c.(*withSeverity); ok {
			return w.severity
		}
	}
	return DefaultSeverity
}
