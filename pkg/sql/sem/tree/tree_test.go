// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"testing"

	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func TestDatumString(t *testing.T) {
	dec, err := ParseDDecimal(" 1.50 ")
	require.NoError(t, err)
	_, err = ParseDDecimal("one")
	require.Error(t, err)

	testCases := []struct {
		d        Datum
		expected string
	}{
		{NewDInt(-5), "-5"},
		{NewDFloat(1.5), "1.5"},
		{dec, "1.50"},
		{NewDDecimal(125, -2), "1.25"},
		{NewDString("it's"), "'it''s'"},
		{NewDBytes("\x01\xff"), `'\x01ff'`},
		{MakeDBool(true), "true"},
		{DNull, "NULL"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, tc.d.String())
	}
	require.Equal(t, "(1, 'a', NULL)", Datums{NewDInt(1), NewDString("a"), DNull}.String())
	require.Same(t, DBoolFalse, MakeDBool(false))
}

func TestExprString(t *testing.T) {
	k := NewIndexedVar(0, types.Int)
	v := NewIndexedVar(1, types.VarChar)
	e := NewTypedAndExpr(
		NewTypedComparisonExpr(GT, &CastExpr{Expr: k, Typ: types.BigInt}, NewLiteral(types.Int, NewDInt(10))),
		&NotExpr{Expr: &IsNullExpr{Expr: v}},
	)
	require.Equal(t, "(CAST(@1 AS BIGINT) > 10:::INTEGER) AND (NOT ((@2) IS NULL))", e.String())
	require.Equal(t, types.Bool, e.ResolvedType())

	require.Same(t, k, StripCasts(&CastExpr{Expr: &CastExpr{Expr: k, Typ: types.BigInt}, Typ: types.Int}))
	require.Equal(t, "ComparisonOp(42)", ComparisonOperator(42).String())
}
