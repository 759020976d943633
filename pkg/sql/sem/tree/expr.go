// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"fmt"

	"github.com/cockroachdb/kvsql/pkg/sql/types"
)

// Expr is a scalar expression.
type Expr interface {
	fmt.Stringer
}

// TypedExpr is an expression whose type has been resolved.
type TypedExpr interface {
	Expr
	ResolvedType() *types.T
}

// IndexedVar references the column at ordinal Idx of the table being
// scanned.
type IndexedVar struct {
	Idx int
	Typ *types.T
}

var _ TypedExpr = &IndexedVar{}

// NewIndexedVar creates a column reference.
func NewIndexedVar(idx int, typ *types.T) *IndexedVar {
	return &IndexedVar{Idx: idx, Typ: typ}
}

// ResolvedType implements the TypedExpr interface.
func (v *IndexedVar) ResolvedType() *types.T { return v.Typ }

func (v *IndexedVar) String() string { return fmt.Sprintf("@%d", v.Idx+1) }

// Literal is a constant of type Typ. The planner may carry an integer
// literal as a decimal datum.
type Literal struct {
	Typ   *types.T
	Datum Datum
}

var _ TypedExpr = &Literal{}

// NewLiteral creates a literal.
func NewLiteral(typ *types.T, d Datum) *Literal {
	return &Literal{Typ: typ, Datum: d}
}

// ResolvedType implements the TypedExpr interface.
func (l *Literal) ResolvedType() *types.T { return l.Typ }

func (l *Literal) String() string {
	if l.Datum.AmbiguousFormat() {
		return fmt.Sprintf("%s:::%s", l.Datum, l.Typ)
	}
	return l.Datum.String()
}

// CastExpr converts Expr to Typ.
type CastExpr struct {
	Expr TypedExpr
	Typ  *types.T
}

var _ TypedExpr = &CastExpr{}

// ResolvedType implements the TypedExpr interface.
func (c *CastExpr) ResolvedType() *types.T { return c.Typ }

func (c *CastExpr) String() string { return fmt.Sprintf("CAST(%s AS %s)", c.Expr, c.Typ) }

// ComparisonOperator is a binary comparison.
type ComparisonOperator int

// ComparisonExpr.Operator
const (
	EQ ComparisonOperator = iota
	NE
	LT
	LE
	GT
	GE
	Like
	In
)

var comparisonOpName = [...]string{
	EQ:   "=",
	NE:   "!=",
	LT:   "<",
	LE:   "<=",
	GT:   ">",
	GE:   ">=",
	Like: "LIKE",
	In:   "IN",
}

func (op ComparisonOperator) String() string {
	if op < 0 || int(op) >= len(comparisonOpName) {
		return fmt.Sprintf("ComparisonOp(%d)", int(op))
	}
	return comparisonOpName[op]
}

// ComparisonExpr represents a two-value comparison expression.
type ComparisonExpr struct {
	Operator    ComparisonOperator
	Left, Right TypedExpr
}

var _ TypedExpr = &ComparisonExpr{}

// NewTypedComparisonExpr returns a new ComparisonExpr.
func NewTypedComparisonExpr(op ComparisonOperator, left, right TypedExpr) *ComparisonExpr {
	return &ComparisonExpr{Operator: op, Left: left, Right: right}
}

// ResolvedType implements the TypedExpr interface.
func (*ComparisonExpr) ResolvedType() *types.T { return types.Bool }

func (e *ComparisonExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Operator, e.Right)
}

// AndExpr represents an AND expression.
type AndExpr struct {
	Left, Right TypedExpr
}

var _ TypedExpr = &AndExpr{}

// NewTypedAndExpr returns a new AndExpr.
func NewTypedAndExpr(left, right TypedExpr) *AndExpr {
	return &AndExpr{Left: left, Right: right}
}

// ResolvedType implements the TypedExpr interface.
func (*AndExpr) ResolvedType() *types.T { return types.Bool }

func (e *AndExpr) String() string { return fmt.Sprintf("(%s) AND (%s)", e.Left, e.Right) }

// OrExpr represents an OR expression.
type OrExpr struct {
	Left, Right TypedExpr
}

var _ TypedExpr = &OrExpr{}

// NewTypedOrExpr returns a new OrExpr.
func NewTypedOrExpr(left, right TypedExpr) *OrExpr {
	return &OrExpr{Left: left, Right: right}
}

// ResolvedType implements the TypedExpr interface.
func (*OrExpr) ResolvedType() *types.T { return types.Bool }

func (e *OrExpr) String() string { return fmt.Sprintf("(%s) OR (%s)", e.Left, e.Right) }

// NotExpr represents a NOT expression.
type NotExpr struct {
	Expr TypedExpr
}

var _ TypedExpr = &NotExpr{}

// ResolvedType implements the TypedExpr interface.
func (*NotExpr) ResolvedType() *types.T { return types.Bool }

func (e *NotExpr) String() string { return fmt.Sprintf("NOT (%s)", e.Expr) }

// IsNullExpr represents an IS NULL expression.
type IsNullExpr struct {
	Expr TypedExpr
}

var _ TypedExpr = &IsNullExpr{}

// ResolvedType implements the TypedExpr interface.
func (*IsNullExpr) ResolvedType() *types.T { return types.Bool }

func (e *IsNullExpr) String() string { return fmt.Sprintf("(%s) IS NULL", e.Expr) }

// StripCasts returns the expression below any casts.
func StripCasts(e TypedExpr) TypedExpr {
	for {
		c, ok := e.(*CastExpr)
		if !ok {
			return e
		}
		e = c.Expr
	}
}
