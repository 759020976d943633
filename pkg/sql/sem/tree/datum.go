// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package tree defines the values (datums) and the typed scalar expressions
// exchanged with the SQL engine.
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Datum is a SQL value.
type Datum interface {
	fmt.Stringer
	// AmbiguousFormat is true if the string form of the datum does not
	// determine its type.
	AmbiguousFormat() bool
	datum()
}

// Datums is a row of values.
type Datums []Datum

func (d Datums) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, v := range d {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// DInt is an integer datum. It carries every integer-encoded type, including
// dates, times and intervals.
type DInt int64

// NewDInt is a helper routine to create a *DInt initialized from its
// argument.
func NewDInt(d int64) *DInt {
	v := DInt(d)
	return &v
}

func (*DInt) datum()                {}
func (*DInt) AmbiguousFormat() bool { return true }
func (d *DInt) String() string      { return strconv.FormatInt(int64(*d), 10) }

// DFloat is a floating-point datum.
type DFloat float64

// NewDFloat is a helper routine to create a *DFloat initialized from its
// argument.
func NewDFloat(d float64) *DFloat {
	v := DFloat(d)
	return &v
}

func (*DFloat) datum()                {}
func (*DFloat) AmbiguousFormat() bool { return true }

func (d *DFloat) String() string {
	return strconv.FormatFloat(float64(*d), 'g', -1, 64)
}

// DDecimal is an arbitrary-precision decimal datum.
type DDecimal struct {
	apd.Decimal
}

// ParseDDecimal parses a decimal datum.
func ParseDDecimal(s string) (*DDecimal, error) {
	d := &DDecimal{}
	if _, _, err := d.SetString(strings.TrimSpace(s)); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDDecimal returns a decimal datum of coeff * 10^exponent.
func NewDDecimal(coeff int64, exponent int32) *DDecimal {
	d := &DDecimal{}
	d.SetFinite(coeff, exponent)
	return d
}

func (*DDecimal) datum()                {}
func (*DDecimal) AmbiguousFormat() bool { return true }

func (d *DDecimal) String() string {
	return d.Decimal.String()
}

// DString is a string datum.
type DString string

// NewDString is a helper routine to create a *DString initialized from its
// argument.
func NewDString(d string) *DString {
	v := DString(d)
	return &v
}

func (*DString) datum()                {}
func (*DString) AmbiguousFormat() bool { return false }

func (d *DString) String() string {
	return "'" + strings.ReplaceAll(string(*d), "'", "''") + "'"
}

// DBytes is a byte-string datum.
type DBytes string

// NewDBytes is a helper routine to create a *DBytes initialized from its
// argument.
func NewDBytes(d string) *DBytes {
	v := DBytes(d)
	return &v
}

func (*DBytes) datum()                {}
func (*DBytes) AmbiguousFormat() bool { return false }

func (d *DBytes) String() string {
	return fmt.Sprintf(`'\x%x'`, string(*d))
}

// DBool is a boolean datum.
type DBool bool

var (
	// DBoolTrue is a pointer to the DBool(true) value and can be used in
	// comparisons.
	DBoolTrue = func() *DBool { v := DBool(true); return &v }()
	// DBoolFalse is a pointer to the DBool(false) value and can be used in
	// comparisons.
	DBoolFalse = func() *DBool { v := DBool(false); return &v }()
)

// MakeDBool converts its argument to a *DBool, returning either DBoolTrue or
// DBoolFalse.
func MakeDBool(d bool) *DBool {
	if d {
		return DBoolTrue
	}
	return DBoolFalse
}

func (*DBool) datum()                {}
func (*DBool) AmbiguousFormat() bool { return false }
func (d *DBool) String() string      { return strconv.FormatBool(bool(*d)) }

type dNull struct{}

// DNull is the NULL Datum.
var DNull Datum = dNull{}

func (dNull) datum()                {}
func (dNull) AmbiguousFormat() bool { return false }
func (dNull) String() string        { return "NULL" }
