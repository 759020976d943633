// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package pushdown lowers SQL filter expressions into store filters that the
// store evaluates next to the data.
//
// Only conjunctions of comparisons between a column and a literal are
// supported. Anything else fails with ErrUnsupportedPredicate: dropping a
// predicate would return rows the query excludes.
package pushdown

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvfilter"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
)

// ErrUnsupportedPredicate is returned for expressions that have no store
// filter equivalent.
var ErrUnsupportedPredicate = pgerror.New(pgcode.FeatureNotSupported, "predicate cannot be pushed down")

// Result is a compiled set of predicates.
type Result struct {
	// Filter passes the rows satisfying every predicate. It is nil when
	// there are no predicates.
	Filter kvfilter.Filter
	// StartRow and StopRow bound the row keys that can satisfy the
	// primary key predicates. A nil bound is unbounded.
	StartRow, StopRow []byte
	// Columns lists the non-key columns the filter reads, in order of
	// first reference.
	Columns []kv.Column
}

var compareOps = map[tree.ComparisonOperator]kvfilter.CompareOp{
	tree.EQ: kvfilter.Equal,
	tree.NE: kvfilter.NotEqual,
	tree.LT: kvfilter.Less,
	tree.LE: kvfilter.LessOrEqual,
	tree.GT: kvfilter.Greater,
	tree.GE: kvfilter.GreaterOrEqual,
}

type compiler struct {
	cols    []catalog.ColumnDescriptor
	filters []kvfilter.Filter
	res     Result
}

// Compile lowers the conjuncts exprs over a table with the given columns.
func Compile(cols []catalog.ColumnDescriptor, exprs []tree.TypedExpr) (Result, error) {
	c := compiler{cols: cols}
	for _, e := range exprs {
		if err := c.conjunct(e); err != nil {
			return Result{}, err
		}
	}
	if len(c.filters) > 0 {
		c.res.Filter = kvfilter.NewList(kvfilter.MustPassAll, c.filters...)
	}
	return c.res, nil
}

func unsupported(e tree.Expr, reason string) error {
	return errors.Wrapf(ErrUnsupportedPredicate, "%s: %s", reason, e)
}

func (c *compiler) conjunct(e tree.TypedExpr) error {
	switch e := e.(type) {
	case *tree.AndExpr:
		if err := c.conjunct(e.Left); err != nil {
			return err
		}
		return c.conjunct(e.Right)
	case *tree.ComparisonExpr:
		return c.comparison(e)
	case *tree.OrExpr:
		return unsupported(e, "disjunction")
	case *tree.NotExpr:
		return unsupported(e, "negation")
	case *tree.IsNullExpr:
		return unsupported(e, "null test")
	default:
		return unsupported(e, "expression")
	}
}

// operands matches e as a comparison between a column, possibly below casts,
// and a literal, in either order. The operator is mirrored when the literal
// comes first.
func operands(e *tree.ComparisonExpr, op kvfilter.CompareOp) (*tree.IndexedVar, *tree.Literal, kvfilter.CompareOp, bool) {
	if v, ok := tree.StripCasts(e.Left).(*tree.IndexedVar); ok {
		if lit, ok := e.Right.(*tree.Literal); ok {
			return v, lit, op, true
		}
	}
	if v, ok := tree.StripCasts(e.Right).(*tree.IndexedVar); ok {
		if lit, ok := e.Left.(*tree.Literal); ok {
			return v, lit, op.Mirror(), true
		}
	}
	return nil, nil, op, false
}

func (c *compiler) comparison(e *tree.ComparisonExpr) error {
	op, ok := compareOps[e.Operator]
	if !ok {
		return unsupported(e, "operator "+e.Operator.String())
	}
	v, lit, op, ok := operands(e, op)
	if !ok {
		return unsupported(e, "comparison not between a column and a literal")
	}
	if v.Idx < 0 || v.Idx >= len(c.cols) {
		return errors.AssertionFailedf("column @%d out of range for %d columns", v.Idx+1, len(c.cols))
	}
	col := c.cols[v.Idx]
	value, err := encodeLiteral(lit)
	if err != nil {
		return errors.Wrapf(err, "comparing %s", col.Name)
	}
	if col.IsPrimary {
		c.filters = append(c.filters, &kvfilter.RowFilter{Op: op, Value: value})
		c.narrow(op, value)
		return nil
	}
	c.filters = append(c.filters, &kvfilter.SingleColumnValueFilter{
		Family:          catalogkeys.Family,
		Qualifier:       col.Name,
		Op:              op,
		Value:           value,
		FilterIfMissing: true,
	})
	kc := kv.Column{Family: catalogkeys.Family, Qualifier: col.Name}
	for _, existing := range c.res.Columns {
		if existing == kc {
			return nil
		}
	}
	c.res.Columns = append(c.res.Columns, kc)
	return nil
}

// encodeLiteral encodes a literal under its own type. An integer literal
// carried as a decimal is narrowed to an integer first.
func encodeLiteral(lit *tree.Literal) ([]byte, error) {
	d := lit.Datum
	if d == tree.DNull {
		return nil, unsupported(lit, "comparison with NULL")
	}
	if dec, ok := d.(*tree.DDecimal); ok && lit.Typ.IsInteger() {
		i, err := dec.Int64()
		if err != nil {
			return nil, pgerror.Wrapf(err, pgcode.DatatypeMismatch,
				"integer literal %s is not integral", dec)
		}
		d = tree.NewDInt(i)
	}
	return rowenc.EncodeDatum(lit.Typ, d)
}

// next returns the smallest key sorting after k.
func next(k []byte) []byte {
	return append(append(make([]byte, 0, len(k)+1), k...), 0)
}

// narrow intersects the scan span with the keys satisfying "key op value".
func (c *compiler) narrow(op kvfilter.CompareOp, value []byte) {
	var start, stop []byte
	switch op {
	case kvfilter.Equal:
		start, stop = value, next(value)
	case kvfilter.Greater:
		start = next(value)
	case kvfilter.GreaterOrEqual:
		start = value
	case kvfilter.Less:
		stop = value
	case kvfilter.LessOrEqual:
		stop = next(value)
	default:
		return
	}
	if start != nil && (c.res.StartRow == nil || bytes.Compare(start, c.res.StartRow) > 0) {
		c.res.StartRow = start
	}
	if stop != nil && (c.res.StopRow == nil || bytes.Compare(stop, c.res.StopRow) < 0) {
		c.res.StopRow = stop
	}
}
