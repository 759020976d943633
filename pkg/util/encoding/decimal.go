// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package encoding

import (
	"bytes"
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// EncodeDecimalAscending returns the resulting byte slice with the
// encoded decimal appended to b.
//
// The encoding assumes that any number can be written as ±0.xyz... * 10^exp,
// where xyz is a digit string, x != 0, and the last digit in xyz is also
// not 0.
//
// The first byte splits decimals into negative, zero and positive groups.
// Following it, the exponent is encoded as a varint (descending for negative
// values), then the digit string, then a terminator. Negative values have
// their digits and terminator complemented so that larger magnitudes sort
// first. Trailing zeros are not part of the encoding, so 1.50 and 1.5 encode
// identically.
func EncodeDecimalAscending(b []byte, d *apd.Decimal) ([]byte, error) {
	if d.Form != apd.Finite {
		return nil, errors.Errorf("cannot encode non-finite decimal %s", d)
	}
	if d.IsZero() {
		return append(b, decimalZero), nil
	}
	digits := d.Coeff.String()
	e := int64(len(digits)) + int64(d.Exponent)
	digits = strings.TrimRight(digits, "0")

	if !d.Negative {
		b = append(b, decimalPositive)
		b = EncodeVarintAscending(b, e)
		b = append(b, digits...)
		return append(b, decimalTerminator), nil
	}
	b = append(b, decimalNegative)
	b = EncodeVarintDescending(b, e)
	n := len(b)
	b = append(b, digits...)
	onesComplement(b[n:])
	return append(b, ^decimalTerminator), nil
}

// DecodeDecimalAscending decodes a decimal encoded by EncodeDecimalAscending.
// The remainder of the input buffer and the decoded value are returned.
func DecodeDecimalAscending(b []byte) ([]byte, *apd.Decimal, error) {
	if len(b) == 0 {
		return nil, nil, errors.Errorf("insufficient bytes to decode decimal value")
	}
	var neg bool
	switch b[0] {
	case decimalZero:
		return b[1:], apd.New(0, 0), nil
	case decimalPositive:
	case decimalNegative:
		neg = true
	default:
		return nil, nil, errors.Errorf("invalid decimal marker %#x", b[0])
	}
	b = b[1:]

	var e int64
	var err error
	term := decimalTerminator
	if neg {
		b, e, err = DecodeVarintDescending(b)
		term = ^decimalTerminator
	} else {
		b, e, err = DecodeVarintAscending(b)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding decimal exponent")
	}
	i := bytes.IndexByte(b, term)
	if i <= 0 {
		return nil, nil, errors.Errorf("did not find decimal terminator in buffer %#x", b)
	}
	digits := append([]byte(nil), b[:i]...)
	if neg {
		onesComplement(digits)
	}

	exp := e - int64(len(digits))
	if exp < math.MinInt32 || exp > math.MaxInt32 {
		return nil, nil, errors.Errorf("decimal exponent %d out of range", exp)
	}
	d := new(apd.Decimal)
	if _, ok := d.Coeff.SetString(string(digits), 10); !ok {
		return nil, nil, errors.Errorf("invalid decimal digits %q", digits)
	}
	d.Exponent = int32(exp)
	d.Negative = neg
	return b[i+1:], d, nil
}
