// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rowenc

import (
	"bytes"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func TestCodecsComplete(t *testing.T) {
	for enc := types.Encoding(0); enc < types.NumEncodings; enc++ {
		c := codecs[enc]
		require.NotNil(t, c.encode, "encoding %s has no encoder", enc)
		require.NotNil(t, c.decode, "encoding %s has no decoder", enc)
		require.NotNil(t, c.parse, "encoding %s has no parser", enc)
	}
	for _, typ := range types.Scalar {
		_, err := lookup(typ)
		require.NoError(t, err, typ.Name())
	}
	_, err := lookup(nil)
	require.True(t, errors.HasAssertionFailure(err))
}

func TestRoundTrip(t *testing.T) {
	testCases := []struct {
		typ *types.T
		d   tree.Datum
		len int
	}{
		{types.SmallInt, tree.NewDInt(-7), 2},
		{types.Int, tree.NewDInt(5), 4},
		{types.Date, tree.NewDInt(19000), 4},
		{types.BigInt, tree.NewDInt(math.MinInt64), 8},
		{types.Timestamp, tree.NewDInt(1700000000000), 8},
		{types.Real, tree.NewDFloat(1.5), 4},
		{types.Double, tree.NewDFloat(-2.25), 8},
		{types.Decimal, tree.NewDDecimal(-1234, -2), -1},
		{types.VarChar, tree.NewDString("x"), 1},
		{types.VarBinary, tree.NewDBytes("\x00\x01"), 2},
		{types.Bool, tree.DBoolTrue, 1},
		{types.Bool, tree.DBoolFalse, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.Name()+"/"+tc.d.String(), func(t *testing.T) {
			b, err := EncodeDatum(tc.typ, tc.d)
			require.NoError(t, err)
			if tc.len >= 0 {
				require.Len(t, b, tc.len)
			}
			d, err := DecodeDatum(tc.typ, b)
			require.NoError(t, err)
			require.Equal(t, tc.d.String(), d.String())
		})
	}
}

func TestOrderPreserving(t *testing.T) {
	testCases := []struct {
		typ    *types.T
		values []string
	}{
		{types.TinyInt, []string{"-32768", "-1", "0", "1", "32767"}},
		{types.Int, []string{"-2147483648", "-10", "0", "9", "10", "2147483647"}},
		{types.BigInt, []string{"-9223372036854775808", "-1", "0", "1", "9223372036854775807"}},
		{types.Real, []string{"-1e30", "-1.5", "0", "1e-30", "2.5"}},
		{types.Double, []string{"-1e300", "-0.5", "0", "0.25", "1e300"}},
		{types.Decimal, []string{"-100", "-1.5", "-0.001", "0", "0.001", "1", "1.5", "10", "100.25"}},
		{types.VarChar, []string{"", "a", "ab", "b"}},
		{types.Bool, []string{"false", "true"}},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.Name(), func(t *testing.T) {
			var prev []byte
			for i, s := range tc.values {
				d, err := ParseDatum(tc.typ, s)
				require.NoError(t, err)
				b, err := EncodeDatum(tc.typ, d)
				require.NoError(t, err)
				if i > 0 {
					require.Negative(t, bytes.Compare(prev, b), "%s should sort before %s", tc.values[i-1], s)
				}
				prev = b
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := EncodeDatum(types.SmallInt, tree.NewDInt(1<<20))
	require.Equal(t, pgcode.NumericValueOutOfRange, pgerror.GetPGCode(err))

	_, err = EncodeDatum(types.Int, tree.NewDString("5"))
	require.Equal(t, pgcode.DatatypeMismatch, pgerror.GetPGCode(err))

	_, err = EncodeDatum(types.Real, tree.NewDFloat(1e300))
	require.Equal(t, pgcode.NumericValueOutOfRange, pgerror.GetPGCode(err))

	_, err = EncodeDatum(types.VarChar, tree.DNull)
	require.True(t, errors.HasAssertionFailure(err))

	// Integers widen to floating point and decimal columns.
	b, err := EncodeDatum(types.Double, tree.NewDInt(3))
	require.NoError(t, err)
	d, err := DecodeDatum(types.Double, b)
	require.NoError(t, err)
	require.Equal(t, "3", d.String())
	_, err = EncodeDatum(types.Decimal, tree.NewDInt(3))
	require.NoError(t, err)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeDatum(types.Int, []byte{1, 2})
	require.Error(t, err)
	_, err = DecodeDatum(types.Int, []byte{1, 2, 3, 4, 5})
	require.ErrorContains(t, err, "trailing bytes")
	_, err = DecodeDatum(types.Bool, []byte{2})
	require.Error(t, err)
}

func TestParseDatum(t *testing.T) {
	testCases := []struct {
		typ      *types.T
		input    string
		expected string
		code     pgcode.Code
	}{
		{typ: types.Int, input: " 42 ", expected: "42"},
		{typ: types.Int, input: "4e2", code: pgcode.InvalidTextRepresentation},
		{typ: types.SmallInt, input: "40000", code: pgcode.NumericValueOutOfRange},
		{typ: types.Double, input: "1.25", expected: "1.25"},
		{typ: types.Decimal, input: "3.10", expected: "3.10"},
		{typ: types.Decimal, input: "abc", code: pgcode.InvalidTextRepresentation},
		{typ: types.VarChar, input: "it's", expected: "'it''s'"},
		{typ: types.VarBinary, input: `\x0aff`, expected: `'\x0aff'`},
		{typ: types.VarBinary, input: `raw`, expected: `'\x726177'`},
		{typ: types.VarBinary, input: `\xzz`, code: pgcode.InvalidTextRepresentation},
		{typ: types.Bool, input: "TRUE", expected: "true"},
		{typ: types.Bool, input: "maybe", code: pgcode.InvalidTextRepresentation},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.Name()+"/"+tc.input, func(t *testing.T) {
			d, err := ParseDatum(tc.typ, tc.input)
			if tc.expected == "" {
				require.Error(t, err)
				require.Equal(t, tc.code, pgerror.GetPGCode(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, d.String())
		})
	}
}
