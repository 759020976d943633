// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pushdown

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvfilter"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

var testColumns = []catalog.ColumnDescriptor{
	{Name: "k", Type: types.Int, Ordinal: 0, IsPrimary: true},
	{Name: "v", Type: types.VarChar, Ordinal: 1, Nullable: true},
	{Name: "n", Type: types.BigInt, Ordinal: 2, Nullable: true},
}

var comparisonOps = map[string]tree.ComparisonOperator{
	"=": tree.EQ, "!=": tree.NE, "<": tree.LT, "<=": tree.LE, ">": tree.GT, ">=": tree.GE,
	"like": tree.Like, "in": tree.In,
}

func lookupType(t *testing.T, name string) *types.T {
	typ, ok := types.Lookup(name)
	require.True(t, ok, "unknown type %q", name)
	return typ
}

// parseOperand parses a column reference "@N", a cast "cast(@N,TYPE)" or a
// literal "TYPE:value". The datum of a literal may be given another type
// than the literal with "TYPE/DATUMTYPE:value".
func parseOperand(t *testing.T, s string) tree.TypedExpr {
	if strings.HasPrefix(s, "@") {
		idx, err := strconv.Atoi(s[1:])
		require.NoError(t, err)
		typ := types.Int
		if idx >= 1 && idx <= len(testColumns) {
			typ = testColumns[idx-1].Type
		}
		return tree.NewIndexedVar(idx-1, typ)
	}
	if inner, ok := strings.CutPrefix(s, "cast("); ok {
		inner = strings.TrimSuffix(inner, ")")
		col, typ, ok := strings.Cut(inner, ",")
		require.True(t, ok, "malformed cast %q", s)
		return &tree.CastExpr{Expr: parseOperand(t, col), Typ: lookupType(t, typ)}
	}
	typName, val, ok := strings.Cut(s, ":")
	require.True(t, ok, "malformed operand %q", s)
	litType, datumType, ok := strings.Cut(typName, "/")
	if !ok {
		datumType = litType
	}
	typ := lookupType(t, litType)
	if val == "NULL" {
		return tree.NewLiteral(typ, tree.DNull)
	}
	d, err := rowenc.ParseDatum(lookupType(t, datumType), val)
	require.NoError(t, err)
	return tree.NewLiteral(typ, d)
}

// parseExpr parses one predicate:
//
//	<operand> <op> <operand>
//	and <predicate> ; <predicate>
//	or <predicate> ; <predicate>
//	not <predicate>
//	isnull <operand>
func parseExpr(t *testing.T, fields []string) tree.TypedExpr {
	require.NotEmpty(t, fields)
	split := func() (tree.TypedExpr, tree.TypedExpr) {
		for i, f := range fields {
			if f == ";" {
				return parseExpr(t, fields[1:i]), parseExpr(t, fields[i+1:])
			}
		}
		t.Fatalf("missing ';' in %v", fields)
		return nil, nil
	}
	switch fields[0] {
	case "and":
		return tree.NewTypedAndExpr(split())
	case "or":
		return tree.NewTypedOrExpr(split())
	case "not":
		return &tree.NotExpr{Expr: parseExpr(t, fields[1:])}
	case "isnull":
		return &tree.IsNullExpr{Expr: parseOperand(t, fields[1])}
	}
	require.Len(t, fields, 3, "malformed comparison %v", fields)
	op, ok := comparisonOps[fields[1]]
	require.True(t, ok, "unknown operator %q", fields[1])
	return tree.NewTypedComparisonExpr(op, parseOperand(t, fields[0]), parseOperand(t, fields[2]))
}

func formatKey(k []byte) string {
	if k == nil {
		return "<none>"
	}
	return fmt.Sprintf("%x", k)
}

func formatResult(res Result) string {
	var buf strings.Builder
	if res.Filter == nil {
		buf.WriteString("filter: <none>\n")
	} else {
		fmt.Fprintf(&buf, "filter: %s\n", res.Filter)
	}
	fmt.Fprintf(&buf, "span: [%s, %s)\n", formatKey(res.StartRow), formatKey(res.StopRow))
	cols := "<none>"
	if len(res.Columns) > 0 {
		names := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			names[i] = c.String()
		}
		cols = strings.Join(names, ",")
	}
	fmt.Fprintf(&buf, "columns: %s\n", cols)
	return buf.String()
}

func TestCompile(t *testing.T) {
	datadriven.RunTest(t, "testdata/compile", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "compile":
			var exprs []tree.TypedExpr
			for _, line := range strings.Split(d.Input, "\n") {
				if fields := strings.Fields(line); len(fields) > 0 {
					exprs = append(exprs, parseExpr(t, fields))
				}
			}
			res, err := Compile(testColumns, exprs)
			if err != nil {
				return fmt.Sprintf("error (%s): %v\n", pgerror.GetPGCode(err), err)
			}
			return formatResult(res)
		default:
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}
	})
}

// TestMirroredOperands checks that swapping the operands of a comparison
// and mirroring its operator selects the same rows.
func TestMirroredOperands(t *testing.T) {
	lit := tree.NewLiteral(types.Int, tree.NewDInt(10))
	col := tree.NewIndexedVar(0, types.Int)
	for _, tc := range []struct{ op, mirrored tree.ComparisonOperator }{
		{tree.GT, tree.LT}, {tree.GE, tree.LE}, {tree.LT, tree.GT}, {tree.LE, tree.GE},
		{tree.EQ, tree.EQ}, {tree.NE, tree.NE},
	} {
		a, err := Compile(testColumns, []tree.TypedExpr{tree.NewTypedComparisonExpr(tc.op, col, lit)})
		require.NoError(t, err)
		b, err := Compile(testColumns, []tree.TypedExpr{tree.NewTypedComparisonExpr(tc.mirrored, lit, col)})
		require.NoError(t, err)
		require.Equal(t, a, b, "%s", tc.op)

		for i := int64(0); i < 20; i++ {
			key, err := rowenc.EncodeDatum(types.Int, tree.NewDInt(i))
			require.NoError(t, err)
			row := kv.Row{Key: key}
			require.Equal(t, a.Filter.Eval(key, row), b.Filter.Eval(key, row))
		}
	}
}

func TestUnsupportedNeverCompiles(t *testing.T) {
	cmp := tree.NewTypedComparisonExpr(tree.EQ,
		tree.NewIndexedVar(1, types.VarChar), tree.NewLiteral(types.VarChar, tree.NewDString("x")))
	for _, e := range []tree.TypedExpr{
		tree.NewTypedOrExpr(cmp, cmp),
		tree.NewTypedAndExpr(cmp, tree.NewTypedOrExpr(cmp, cmp)),
		&tree.NotExpr{Expr: cmp},
		&tree.IsNullExpr{Expr: tree.NewIndexedVar(1, types.VarChar)},
		tree.NewLiteral(types.Bool, tree.DBoolTrue),
	} {
		res, err := Compile(testColumns, []tree.TypedExpr{cmp, e})
		require.ErrorIs(t, err, ErrUnsupportedPredicate, "%s", e)
		require.Equal(t, pgcode.FeatureNotSupported, pgerror.GetPGCode(err))
		require.Equal(t, Result{}, res)
	}
}

func TestColumnOutOfRange(t *testing.T) {
	_, err := Compile(testColumns, []tree.TypedExpr{tree.NewTypedComparisonExpr(tree.EQ,
		tree.NewIndexedVar(7, types.Int), tree.NewLiteral(types.Int, tree.NewDInt(1)))})
	require.True(t, errors.HasAssertionFailure(err))
}

func TestFractionalIntegerLiteral(t *testing.T) {
	_, err := Compile(testColumns, []tree.TypedExpr{tree.NewTypedComparisonExpr(tree.EQ,
		tree.NewIndexedVar(0, types.Int), tree.NewLiteral(types.Int, tree.NewDDecimal(15, -1)))})
	require.Error(t, err)
	require.Equal(t, pgcode.DatatypeMismatch, pgerror.GetPGCode(err))

	// A whole value in decimal form narrows to the integer.
	_, err = Compile(testColumns, []tree.TypedExpr{tree.NewTypedComparisonExpr(tree.EQ,
		tree.NewIndexedVar(0, types.Int), tree.NewLiteral(types.Int, tree.NewDDecimal(20, -1)))})
	require.NoError(t, err)
}

func TestFilterEvaluation(t *testing.T) {
	// n >= 5 AND v = 'b' over a few rows.
	res, err := Compile(testColumns, []tree.TypedExpr{
		tree.NewTypedComparisonExpr(tree.GE,
			tree.NewIndexedVar(2, types.BigInt), tree.NewLiteral(types.BigInt, tree.NewDInt(5))),
		tree.NewTypedComparisonExpr(tree.EQ,
			tree.NewIndexedVar(1, types.VarChar), tree.NewLiteral(types.VarChar, tree.NewDString("b"))),
	})
	require.NoError(t, err)
	list, ok := res.Filter.(*kvfilter.List)
	require.True(t, ok)
	require.Equal(t, kvfilter.MustPassAll, list.Operator)

	row := func(v string, n int64, hasN bool) kv.Row {
		r := kv.Row{Key: []byte("k"), Cells: []kv.Cell{{Family: "cf", Qualifier: "v", Value: []byte(v)}}}
		if hasN {
			enc, err := rowenc.EncodeDatum(types.BigInt, tree.NewDInt(n))
			require.NoError(t, err)
			r.Cells = append(r.Cells, kv.Cell{Family: "cf", Qualifier: "n", Value: enc})
			kv.SortCells(r.Cells)
		}
		return r
	}
	require.True(t, res.Filter.Eval([]byte("k"), row("b", 5, true)))
	require.True(t, res.Filter.Eval([]byte("k"), row("b", 100, true)))
	require.False(t, res.Filter.Eval([]byte("k"), row("b", -100, true)))
	require.False(t, res.Filter.Eval([]byte("k"), row("a", 5, true)))
	// A missing column is SQL NULL and never satisfies a comparison.
	require.False(t, res.Filter.Eval([]byte("k"), row("b", 0, false)))
}
