// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvfilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type cells map[string][]byte

func (c cells) Value(family, qualifier string) ([]byte, bool) {
	v, ok := c[family+":"+qualifier]
	return v, ok
}

func TestCompareOpMirror(t *testing.T) {
	for _, op := range []CompareOp{Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual} {
		require.Equal(t, op, op.Mirror().Mirror(), "%s", op)
		for _, cmp := range []int{-1, 0, 1} {
			// a OP b must agree with b MIRROR(OP) a.
			require.Equal(t, op.Holds(cmp), op.Mirror().Holds(-cmp), "%s %d", op, cmp)
		}
	}
	require.Equal(t, Greater, Less.Mirror())
	require.Equal(t, LessOrEqual, GreaterOrEqual.Mirror())
}

func TestRowFilter(t *testing.T) {
	f := &RowFilter{Op: Greater, Value: []byte("b")}
	require.False(t, f.Eval([]byte("a"), nil))
	require.False(t, f.Eval([]byte("b"), nil))
	require.True(t, f.Eval([]byte("ba"), nil))
}

func TestSingleColumnValueFilter(t *testing.T) {
	row := cells{"cf:v": []byte("m")}
	f := &SingleColumnValueFilter{Family: "cf", Qualifier: "v", Op: LessOrEqual, Value: []byte("m")}
	require.True(t, f.Eval(nil, row))

	f.Qualifier = "missing"
	require.True(t, f.Eval(nil, row))
	f.FilterIfMissing = true
	require.False(t, f.Eval(nil, row))
}

func TestList(t *testing.T) {
	yes := &PrefixFilter{Prefix: []byte("a")}
	no := &PrefixFilter{Prefix: []byte("z")}
	key := []byte("abc")

	require.True(t, NewList(MustPassAll).Eval(key, nil))
	require.False(t, NewList(MustPassOne).Eval(key, nil))
	require.False(t, NewList(MustPassAll, yes, no).Eval(key, nil))
	require.True(t, NewList(MustPassOne, no, yes).Eval(key, nil))
	require.Equal(t, "(prefix 61 OR prefix 7a)", NewList(MustPassOne, yes, no).String())
}
