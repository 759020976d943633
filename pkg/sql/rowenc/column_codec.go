// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package rowenc encodes column values to the bytes stored in cells and row
// keys. Encodings are order-preserving: for two values of the same type,
// bytes.Compare on the encodings agrees with the order of the values, which
// is what makes store-side comparison filters correct.
package rowenc

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/sql/types"
	"github.com/cockroachdb/kvsql/pkg/util/encoding"
)

type codec struct {
	encode func(typ *types.T, d tree.Datum) ([]byte, error)
	decode func(b []byte) (tree.Datum, error)
	parse  func(typ *types.T, s string) (tree.Datum, error)
}

// codecs is indexed by types.Encoding. A missing entry is caught by
// TestCodecsComplete.
var codecs = [types.NumEncodings]codec{
	types.Int16Encoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			i, err := intValue(typ, d, math.MinInt16, math.MaxInt16)
			return encoding.EncodeInt16Ascending(nil, int16(i)), err
		},
		decode: func(b []byte) (tree.Datum, error) {
			b, i, err := encoding.DecodeInt16Ascending(b)
			return tree.NewDInt(int64(i)), finishDecode(b, err)
		},
		parse: parseInt,
	},
	types.Int32Encoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			i, err := intValue(typ, d, math.MinInt32, math.MaxInt32)
			return encoding.EncodeInt32Ascending(nil, int32(i)), err
		},
		decode: func(b []byte) (tree.Datum, error) {
			b, i, err := encoding.DecodeInt32Ascending(b)
			return tree.NewDInt(int64(i)), finishDecode(b, err)
		},
		parse: parseInt,
	},
	types.Int64Encoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			i, err := intValue(typ, d, math.MinInt64, math.MaxInt64)
			return encoding.EncodeInt64Ascending(nil, i), err
		},
		decode: func(b []byte) (tree.Datum, error) {
			b, i, err := encoding.DecodeInt64Ascending(b)
			return tree.NewDInt(i), finishDecode(b, err)
		},
		parse: parseInt,
	},
	types.Float32Encoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			f, err := floatValue(typ, d)
			if err == nil && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
				err = outOfRange(typ, d)
			}
			return encoding.EncodeFloat32Ascending(nil, float32(f)), err
		},
		decode: func(b []byte) (tree.Datum, error) {
			b, f, err := encoding.DecodeFloat32Ascending(b)
			return tree.NewDFloat(float64(f)), finishDecode(b, err)
		},
		parse: parseFloat,
	},
	types.Float64Encoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			f, err := floatValue(typ, d)
			return encoding.EncodeFloat64Ascending(nil, f), err
		},
		decode: func(b []byte) (tree.Datum, error) {
			b, f, err := encoding.DecodeFloat64Ascending(b)
			return tree.NewDFloat(f), finishDecode(b, err)
		},
		parse: parseFloat,
	},
	types.DecimalEncoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			switch t := d.(type) {
			case *tree.DDecimal:
				b, err := encoding.EncodeDecimalAscending(nil, &t.Decimal)
				return b, pgerror.Wrapf(err, pgcode.InvalidParameterValue, "encoding %s", d)
			case *tree.DInt:
				return encoding.EncodeDecimalAscending(nil, &tree.NewDDecimal(int64(*t), 0).Decimal)
			}
			return nil, mismatch(typ, d)
		},
		decode: func(b []byte) (tree.Datum, error) {
			b, dec, err := encoding.DecodeDecimalAscending(b)
			if err := finishDecode(b, err); err != nil {
				return nil, err
			}
			return &tree.DDecimal{Decimal: *dec}, nil
		},
		parse: func(typ *types.T, s string) (tree.Datum, error) {
			d, err := tree.ParseDDecimal(s)
			if err != nil {
				return nil, invalidText(typ, s, err)
			}
			return d, nil
		},
	},
	types.StringEncoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			s, ok := d.(*tree.DString)
			if !ok {
				return nil, mismatch(typ, d)
			}
			return []byte(*s), nil
		},
		decode: func(b []byte) (tree.Datum, error) {
			return tree.NewDString(string(b)), nil
		},
		parse: func(_ *types.T, s string) (tree.Datum, error) {
			return tree.NewDString(s), nil
		},
	},
	types.BytesEncoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			s, ok := d.(*tree.DBytes)
			if !ok {
				return nil, mismatch(typ, d)
			}
			return []byte(*s), nil
		},
		decode: func(b []byte) (tree.Datum, error) {
			return tree.NewDBytes(string(b)), nil
		},
		parse: func(typ *types.T, s string) (tree.Datum, error) {
			if !strings.HasPrefix(s, `\x`) {
				return tree.NewDBytes(s), nil
			}
			b, err := hex.DecodeString(s[2:])
			if err != nil {
				return nil, invalidText(typ, s, err)
			}
			return tree.NewDBytes(string(b)), nil
		},
	},
	types.BoolEncoding: {
		encode: func(typ *types.T, d tree.Datum) ([]byte, error) {
			b, ok := d.(*tree.DBool)
			if !ok {
				return nil, mismatch(typ, d)
			}
			if *b {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		},
		decode: func(b []byte) (tree.Datum, error) {
			if len(b) != 1 || b[0] > 1 {
				return nil, errors.Newf("invalid boolean encoding %x", b)
			}
			return tree.MakeDBool(b[0] == 1), nil
		},
		parse: func(typ *types.T, s string) (tree.Datum, error) {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, invalidText(typ, s, err)
			}
			return tree.MakeDBool(b), nil
		},
	},
}

func lookup(typ *types.T) (codec, error) {
	if typ == nil {
		return codec{}, errors.AssertionFailedf("missing column type")
	}
	enc := typ.Encoding()
	if enc < 0 || enc >= types.NumEncodings || codecs[enc].encode == nil {
		return codec{}, errors.AssertionFailedf("no codec for type %s (encoding %d)", typ, int(enc))
	}
	return codecs[enc], nil
}

// EncodeDatum encodes a non-NULL datum as a value of type typ.
func EncodeDatum(typ *types.T, d tree.Datum) ([]byte, error) {
	c, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	if d == tree.DNull {
		return nil, errors.AssertionFailedf("cannot encode NULL as %s", typ)
	}
	b, err := c.encode(typ, d)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeDatum decodes bytes written by EncodeDatum for the same type.
func DecodeDatum(typ *types.T, b []byte) (tree.Datum, error) {
	c, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	d, err := c.decode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s value %x", typ, b)
	}
	return d, nil
}

// ParseDatum parses the textual form of a value of type typ. Binary values
// may be given as \x followed by hex digits.
func ParseDatum(typ *types.T, s string) (tree.Datum, error) {
	c, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	return c.parse(typ, s)
}

func intValue(typ *types.T, d tree.Datum, min, max int64) (int64, error) {
	i, ok := d.(*tree.DInt)
	if !ok {
		return 0, mismatch(typ, d)
	}
	if int64(*i) < min || int64(*i) > max {
		return 0, outOfRange(typ, d)
	}
	return int64(*i), nil
}

func floatValue(typ *types.T, d tree.Datum) (float64, error) {
	switch t := d.(type) {
	case *tree.DFloat:
		return float64(*t), nil
	case *tree.DInt:
		return float64(*t), nil
	}
	return 0, mismatch(typ, d)
}

func parseInt(typ *types.T, s string) (tree.Datum, error) {
	bits := 64
	switch typ.Encoding() {
	case types.Int16Encoding:
		bits = 16
	case types.Int32Encoding:
		bits = 32
	}
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
	if errors.Is(err, strconv.ErrRange) {
		return nil, pgerror.Newf(pgcode.NumericValueOutOfRange, "value %s out of range for type %s", s, typ)
	} else if err != nil {
		return nil, invalidText(typ, s, err)
	}
	return tree.NewDInt(i), nil
}

func parseFloat(typ *types.T, s string) (tree.Datum, error) {
	bits := 64
	if typ.Encoding() == types.Float32Encoding {
		bits = 32
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
	if err != nil {
		return nil, invalidText(typ, s, err)
	}
	return tree.NewDFloat(f), nil
}

func finishDecode(rest []byte, err error) error {
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errors.Newf("%d trailing bytes", len(rest))
	}
	return nil
}

func mismatch(typ *types.T, d tree.Datum) error {
	return pgerror.Newf(pgcode.DatatypeMismatch, "value %s is not of type %s", d, typ)
}

func outOfRange(typ *types.T, d tree.Datum) error {
	return pgerror.Newf(pgcode.NumericValueOutOfRange, "value %s out of range for type %s", d, typ)
}

func invalidText(typ *types.T, s string, err error) error {
	return pgerror.Wrapf(err, pgcode.InvalidTextRepresentation,
		"could not parse %q as type %s", s, typ)
}
