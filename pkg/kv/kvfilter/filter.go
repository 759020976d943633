// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kvfilter defines the server-side row filters a scan can carry.
// The filter tree mirrors the HBase filter model: comparisons against the row
// key, comparisons against a single cell value, row-key prefixes, and AND/OR
// lists. Backends either translate the tree into their native filters or
// evaluate it locally with Eval; both agree on the semantics documented
// here.
package kvfilter

import (
	"bytes"
	"fmt"
	"strings"
)

// CompareOp is a byte-wise comparison operator.
type CompareOp int

const (
	// Equal passes when the compared bytes are equal to the operand.
	Equal CompareOp = iota
	// NotEqual passes when the compared bytes differ from the operand.
	NotEqual
	// Less passes when the compared bytes sort before the operand.
	Less
	// LessOrEqual passes when the compared bytes do not sort after the operand.
	LessOrEqual
	// Greater passes when the compared bytes sort after the operand.
	Greater
	// GreaterOrEqual passes when the compared bytes do not sort before the
	// operand.
	GreaterOrEqual
)

var compareOpStrings = [...]string{"=", "!=", "<", "<=", ">", ">="}

// String implements fmt.Stringer.
func (op CompareOp) String() string {
	if op < 0 || int(op) >= len(compareOpStrings) {
		return fmt.Sprintf("CompareOp(%d)", int(op))
	}
	return compareOpStrings[op]
}

// Mirror returns the operator to use once the operands of a comparison are
// swapped: `a < b` holds iff `b > a`.
func (op CompareOp) Mirror() CompareOp {
	switch op {
	case Less:
		return Greater
	case LessOrEqual:
		return GreaterOrEqual
	case Greater:
		return Less
	case GreaterOrEqual:
		return LessOrEqual
	default:
		return op
	}
}

// Holds reports whether the result of bytes.Compare(x, operand) satisfies
// the operator.
func (op CompareOp) Holds(cmp int) bool {
	switch op {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case Less:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case Greater:
		return cmp > 0
	case GreaterOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

// Cell is the view of a stored cell that filters evaluate against.
type Cell interface {
	// Value returns the latest value of the given column, if present.
	Value(family, qualifier string) ([]byte, bool)
}

// Filter is a predicate over one stored row.
type Filter interface {
	// Eval reports whether the row passes the filter.
	Eval(rowKey []byte, row Cell) bool
	fmt.Stringer
}

// RowFilter compares the row key against Value.
type RowFilter struct {
	Op    CompareOp
	Value []byte
}

var _ Filter = (*RowFilter)(nil)

// Eval implements Filter.
func (f *RowFilter) Eval(rowKey []byte, _ Cell) bool {
	return f.Op.Holds(bytes.Compare(rowKey, f.Value))
}

func (f *RowFilter) String() string {
	return fmt.Sprintf("row %s %x", f.Op, f.Value)
}

// SingleColumnValueFilter compares the value of one column against Value.
// When FilterIfMissing is set, rows that do not have the column are
// rejected; otherwise they pass.
type SingleColumnValueFilter struct {
	Family          string
	Qualifier       string
	Op              CompareOp
	Value           []byte
	FilterIfMissing bool
}

var _ Filter = (*SingleColumnValueFilter)(nil)

// Eval implements Filter.
func (f *SingleColumnValueFilter) Eval(_ []byte, row Cell) bool {
	v, ok := row.Value(f.Family, f.Qualifier)
	if !ok {
		return !f.FilterIfMissing
	}
	return f.Op.Holds(bytes.Compare(v, f.Value))
}

func (f *SingleColumnValueFilter) String() string {
	return fmt.Sprintf("%s:%s %s %x", f.Family, f.Qualifier, f.Op, f.Value)
}

// PrefixFilter passes rows whose key starts with Prefix.
type PrefixFilter struct {
	Prefix []byte
}

var _ Filter = (*PrefixFilter)(nil)

// Eval implements Filter.
func (f *PrefixFilter) Eval(rowKey []byte, _ Cell) bool {
	return bytes.HasPrefix(rowKey, f.Prefix)
}

func (f *PrefixFilter) String() string {
	return fmt.Sprintf("prefix %x", f.Prefix)
}

// Operator combines the members of a List.
type Operator int

const (
	// MustPassAll requires every member to pass.
	MustPassAll Operator = iota
	// MustPassOne requires at least one member to pass.
	MustPassOne
)

// List combines filters. An empty MustPassAll list passes every row and an
// empty MustPassOne list passes none.
type List struct {
	Operator Operator
	Filters  []Filter
}

var _ Filter = (*List)(nil)

// NewList returns a list over the given filters.
func NewList(op Operator, filters ...Filter) *List {
	return &List{Operator: op, Filters: filters}
}

// Eval implements Filter.
func (l *List) Eval(rowKey []byte, row Cell) bool {
	for _, f := range l.Filters {
		pass := f.Eval(rowKey, row)
		if l.Operator == MustPassAll && !pass {
			return false
		}
		if l.Operator == MustPassOne && pass {
			return true
		}
	}
	return l.Operator == MustPassAll
}

func (l *List) String() string {
	sep := " AND "
	if l.Operator == MustPassOne {
		sep = " OR "
	}
	parts := make([]string, len(l.Filters))
	for i, f := range l.Filters {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
