// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvhbase

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvfilter"
	"github.com/stretchr/testify/require"
	"github.com/tsuna/gohbase/filter"
	"github.com/tsuna/gohbase/hrpc"
)

func TestToHBaseFilter(t *testing.T) {
	f, err := toHBaseFilter(kvfilter.NewList(kvfilter.MustPassOne,
		&kvfilter.RowFilter{Op: kvfilter.GreaterOrEqual, Value: []byte("k")},
		&kvfilter.SingleColumnValueFilter{
			Family: "cf", Qualifier: "v", Op: kvfilter.Less, Value: []byte{1}, FilterIfMissing: true,
		},
		&kvfilter.PrefixFilter{Prefix: []byte("p")},
	))
	require.NoError(t, err)

	expected := filter.NewList(filter.MustPassOne,
		filter.NewRowFilter(filter.NewCompareFilter(filter.GreaterOrEqual,
			filter.NewBinaryComparator(filter.NewByteArrayComparable([]byte("k"))))),
		filter.NewSingleColumnValueFilter([]byte("cf"), []byte("v"), filter.Less,
			filter.NewBinaryComparator(filter.NewByteArrayComparable([]byte{1})), true, true),
		filter.NewPrefixFilter([]byte("p")),
	)
	require.Equal(t, expected, f)

	_, err = toHBaseFilter(&kvfilter.RowFilter{Op: kvfilter.CompareOp(42)})
	require.True(t, errors.HasAssertionFailure(err))
}

func TestTranslateError(t *testing.T) {
	require.NoError(t, translateError(nil, "noop"))

	for _, tc := range []struct {
		msg      string
		expected error
	}{
		{"org.apache.hadoop.hbase.TableExistsException: t", kv.ErrTableExists},
		{"org.apache.hadoop.hbase.TableNotFoundException: t", kv.ErrTableNotFound},
		{"org.apache.hadoop.hbase.TableNotDisabledException: t", kv.ErrTableEnabled},
		{"org.apache.hadoop.hbase.TableNotEnabledException: t", kv.ErrTableDisabled},
	} {
		err := translateError(errors.New(tc.msg), "op on %q", "t")
		// The kv error is attached as a mark, visible to errors.Is of
		// cockroachdb/errors only.
		require.True(t, errors.Is(err, tc.expected), tc.msg)
		require.Contains(t, err.Error(), `op on "t"`)
	}

	err := translateError(errors.New("connection refused"), "op")
	require.False(t, errors.Is(err, kv.ErrTableNotFound))
}

func TestToRow(t *testing.T) {
	res := &hrpc.Result{Cells: []*hrpc.Cell{
		{Row: []byte("r"), Family: []byte("cf"), Qualifier: []byte("b"), Value: []byte("2")},
		{Row: []byte("r"), Family: []byte("cf"), Qualifier: []byte("a"), Value: []byte("1")},
	}}
	row := toRow(res)
	require.Equal(t, "r", string(row.Key))
	require.Equal(t, []kv.Cell{
		{Family: "cf", Qualifier: "a", Value: []byte("1")},
		{Family: "cf", Qualifier: "b", Value: []byte("2")},
	}, row.Cells)
	require.Empty(t, toRow(nil).Cells)
}
