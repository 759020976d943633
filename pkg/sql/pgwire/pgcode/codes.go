// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package pgcode defines the PostgreSQL error codes (SQLSTATE) attached to
// the errors reported to SQL clients.
package pgcode

// Code is a PostgreSQL SQLSTATE error code.
type Code struct {
	code string
}

// MakeCode constructs a Code.
func MakeCode(s string) Code {
	return Code{code: s}
}

// String returns the five-character SQLSTATE.
func (c Code) String() string {
	return c.code
}

// PG error codes from:
// http://www.postgresql.org/docs/current/static/errcodes-appendix.html.
var (
	// Section: Class 0A - Feature Not Supported
	FeatureNotSupported = MakeCode("0A000")
	// Section: Class 22 - Data Exception
	NumericValueOutOfRange    = MakeCode("22003")
	InvalidParameterValue     = MakeCode("22023")
	InvalidTextRepresentation = MakeCode("22P02")
	// Section: Class 23 - Integrity Constraint Violation
	NotNullViolation = MakeCode("23502")
	// Section: Class 42 - Syntax Error or Access Rule Violation
	Syntax                 = MakeCode("42601")
	UndefinedColumn        = MakeCode("42703")
	UndefinedObject        = MakeCode("42704")
	DatatypeMismatch       = MakeCode("42804")
	ReservedName           = MakeCode("42939")
	UndefinedTable         = MakeCode("42P01")
	DuplicateRelation      = MakeCode("42P07")
	InvalidTableDefinition = MakeCode("42P16")
	// Section: Class 55 - Object Not In Prerequisite State
	ObjectNotInPrerequisiteState = MakeCode("55000")
	// Section: Class F0 - Configuration File Error
	ConfigFile = MakeCode("F0000")
	// Section: Class XX - Internal Error
	Internal = MakeCode("XX000")

	// Uncategorized is used for errors that carry no code.
	Uncategorized = MakeCode("XXUUU")
)
