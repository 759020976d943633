// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package types defines the SQL column types that can be stored and the
// physical encoding each of them maps to.
package types

import "strings"

// Encoding identifies the physical byte encoding of a column value. Every
// SQL type maps to exactly one encoding.
type Encoding int

const (
	// Int16Encoding is a 2-byte big-endian integer.
	Int16Encoding Encoding = iota
	// Int32Encoding is a 4-byte big-endian integer.
	Int32Encoding
	// Int64Encoding is an 8-byte big-endian integer.
	Int64Encoding
	// Float32Encoding is a 4-byte IEEE 754 float.
	Float32Encoding
	// Float64Encoding is an 8-byte IEEE 754 float.
	Float64Encoding
	// DecimalEncoding is a variable-length arbitrary-precision decimal.
	DecimalEncoding
	// StringEncoding is raw UTF-8.
	StringEncoding
	// BytesEncoding is the raw bytes.
	BytesEncoding
	// BoolEncoding is a single 0 or 1 byte.
	BoolEncoding

	// NumEncodings is the number of encodings. It must stay last.
	NumEncodings
)

var encodingNames = [NumEncodings]string{
	Int16Encoding:   "int16",
	Int32Encoding:   "int32",
	Int64Encoding:   "int64",
	Float32Encoding: "float32",
	Float64Encoding: "float64",
	DecimalEncoding: "decimal",
	StringEncoding:  "string",
	BytesEncoding:   "bytes",
	BoolEncoding:    "bool",
}

func (e Encoding) String() string {
	if e < 0 || e >= NumEncodings {
		return "unknown"
	}
	return encodingNames[e]
}

// T is a SQL column type. Types are singletons and can be compared with ==.
type T struct {
	name string
	enc  Encoding
}

// Name returns the canonical SQL name of the type, as recorded in the
// catalog.
func (t *T) Name() string { return t.name }

// Encoding returns the physical encoding of values of the type.
func (t *T) Encoding() Encoding { return t.enc }

func (t *T) String() string { return t.name }

// IsInteger reports whether values of the type are integers.
func (t *T) IsInteger() bool {
	return t.enc == Int16Encoding || t.enc == Int32Encoding || t.enc == Int64Encoding
}

func newType(name string, enc Encoding) *T {
	return &T{name: name, enc: enc}
}

// The stored types. Date and time types hold integer counts (days, or
// milliseconds) and intervals hold month or millisecond counts.
var (
	TinyInt  = newType("TINYINT", Int16Encoding)
	SmallInt = newType("SMALLINT", Int16Encoding)
	Int      = newType("INTEGER", Int32Encoding)
	BigInt   = newType("BIGINT", Int64Encoding)

	Date          = newType("DATE", Int32Encoding)
	Time          = newType("TIME", Int32Encoding)
	TimeTZ        = newType("TIME_WITH_LOCAL_TIME_ZONE", Int32Encoding)
	Timestamp     = newType("TIMESTAMP", Int64Encoding)
	TimestampTZ   = newType("TIMESTAMP_WITH_LOCAL_TIME_ZONE", Int64Encoding)
	IntervalYear  = newType("INTERVAL_YEAR", Int32Encoding)
	IntervalYM    = newType("INTERVAL_YEAR_MONTH", Int32Encoding)
	IntervalMonth = newType("INTERVAL_MONTH", Int32Encoding)

	Real    = newType("REAL", Float32Encoding)
	Float   = newType("FLOAT", Float64Encoding)
	Double  = newType("DOUBLE", Float64Encoding)
	Decimal = newType("DECIMAL", DecimalEncoding)

	Char      = newType("CHAR", StringEncoding)
	VarChar   = newType("VARCHAR", StringEncoding)
	Binary    = newType("BINARY", BytesEncoding)
	VarBinary = newType("VARBINARY", BytesEncoding)
	Bool      = newType("BOOLEAN", BoolEncoding)
)

// dayTimeIntervals are the interval types counted in milliseconds.
var dayTimeIntervals = []string{
	"INTERVAL_DAY", "INTERVAL_DAY_HOUR", "INTERVAL_DAY_MINUTE",
	"INTERVAL_DAY_SECOND", "INTERVAL_HOUR", "INTERVAL_HOUR_MINUTE",
	"INTERVAL_HOUR_SECOND", "INTERVAL_MINUTE", "INTERVAL_MINUTE_SECOND",
	"INTERVAL_SECOND",
}

// Scalar lists every stored type.
var Scalar []*T

var byName = map[string]*T{}

// aliases maps common spellings to canonical type names.
var aliases = map[string]string{
	"INT":     "INTEGER",
	"INT2":    "SMALLINT",
	"INT4":    "INTEGER",
	"INT8":    "BIGINT",
	"FLOAT4":  "REAL",
	"FLOAT8":  "DOUBLE",
	"NUMERIC": "DECIMAL",
	"BOOL":    "BOOLEAN",
	"STRING":  "VARCHAR",
	"TEXT":    "VARCHAR",
	"BYTES":   "VARBINARY",
	"BYTEA":   "VARBINARY",
}

func init() {
	Scalar = []*T{
		TinyInt, SmallInt, Int, BigInt,
		Date, Time, TimeTZ, Timestamp, TimestampTZ,
		IntervalYear, IntervalYM, IntervalMonth,
		Real, Float, Double, Decimal,
		Char, VarChar, Binary, VarBinary, Bool,
	}
	for _, name := range dayTimeIntervals {
		Scalar = append(Scalar, newType(name, Int64Encoding))
	}
	for _, t := range Scalar {
		byName[t.name] = t
	}
}

// Lookup returns the type with the given canonical name or alias, ignoring
// case.
func Lookup(name string) (*T, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	t, ok := byName[name]
	return t, ok
}
