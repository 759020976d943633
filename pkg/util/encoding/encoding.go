// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package encoding implements the order-preserving byte encodings used for
// row keys, cell values and index keys. For every encoding in this package,
// bytes.Compare over two encoded values agrees with the natural ordering of
// the decoded values.
package encoding

import (
	"bytes"
	"math"

	"github.com/cockroachdb/errors"
)

const (
	// bytesMarker prefixes every escaped byte string.
	bytesMarker byte = 0x12

	decimalNegative byte = 0x14
	decimalZero     byte = 0x15
	decimalPositive byte = 0x16

	decimalTerminator byte = 0x00

	// IntMin is chosen such that the range of int tags does not overlap the
	// ascii character set that is frequently used in testing.
	IntMin      = 0x80
	intMaxWidth = 8
	intZero     = IntMin + intMaxWidth
	intSmall    = IntMax - intZero - intMaxWidth // 109
	// IntMax is the maximum int tag value.
	IntMax = 0xfd
)

// EncodeUint16Ascending encodes the uint16 value using a big-endian 2 byte
// representation.
func EncodeUint16Ascending(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

// DecodeUint16Ascending decodes a uint16 from the input buffer. The remainder
// of the input buffer and the decoded uint16 are returned.
func DecodeUint16Ascending(b []byte) ([]byte, uint16, error) {
	if len(b) < 2 {
		return nil, 0, errors.Errorf("insufficient bytes to decode uint16 int value")
	}
	v := (uint16(b[0]) << 8) | uint16(b[1])
	return b[2:], v, nil
}

// EncodeUint32Ascending encodes the uint32 value using a big-endian 4 byte
// representation. The bytes are appended to the supplied buffer and
// the final buffer is returned.
func EncodeUint32Ascending(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// DecodeUint32Ascending decodes a uint32 from the input buffer, treating
// the input as a big-endian 4 byte uint32 representation. The remainder
// of the input buffer and the decoded uint32 are returned.
func DecodeUint32Ascending(b []byte) ([]byte, uint32, error) {
	if len(b) < 4 {
		return nil, 0, errors.Errorf("insufficient bytes to decode uint32 int value")
	}
	v := (uint32(b[0]) << 24) | (uint32(b[1]) << 16) |
		(uint32(b[2]) << 8) | uint32(b[3])
	return b[4:], v, nil
}

// EncodeUint64Ascending encodes the uint64 value using a big-endian 8 byte
// representation.
func EncodeUint64Ascending(b []byte, v uint64) []byte {
	return append(b,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// DecodeUint64Ascending decodes a uint64 from the input buffer, treating
// the input as a big-endian 8 byte uint64 representation.
func DecodeUint64Ascending(b []byte) ([]byte, uint64, error) {
	if len(b) < 8 {
		return nil, 0, errors.Errorf("insufficient bytes to decode uint64 int value")
	}
	v := (uint64(b[0]) << 56) | (uint64(b[1]) << 48) |
		(uint64(b[2]) << 40) | (uint64(b[3]) << 32) |
		(uint64(b[4]) << 24) | (uint64(b[5]) << 16) |
		(uint64(b[6]) << 8) | uint64(b[7])
	return b[8:], v, nil
}

// EncodeInt16Ascending encodes v in 2 bytes with the sign bit flipped, so that
// negative values sort before positive ones.
func EncodeInt16Ascending(b []byte, v int16) []byte {
	return EncodeUint16Ascending(b, uint16(v)^(1<<15))
}

// DecodeInt16Ascending decodes a value encoded by EncodeInt16Ascending.
func DecodeInt16Ascending(b []byte) ([]byte, int16, error) {
	b, u, err := DecodeUint16Ascending(b)
	return b, int16(u ^ (1 << 15)), err
}

// EncodeInt32Ascending encodes v in 4 bytes with the sign bit flipped.
func EncodeInt32Ascending(b []byte, v int32) []byte {
	return EncodeUint32Ascending(b, uint32(v)^(1<<31))
}

// DecodeInt32Ascending decodes a value encoded by EncodeInt32Ascending.
func DecodeInt32Ascending(b []byte) ([]byte, int32, error) {
	b, u, err := DecodeUint32Ascending(b)
	return b, int32(u ^ (1 << 31)), err
}

// EncodeInt64Ascending encodes v in 8 bytes with the sign bit flipped.
func EncodeInt64Ascending(b []byte, v int64) []byte {
	return EncodeUint64Ascending(b, uint64(v)^(1<<63))
}

// DecodeInt64Ascending decodes a value encoded by EncodeInt64Ascending.
func DecodeInt64Ascending(b []byte) ([]byte, int64, error) {
	b, u, err := DecodeUint64Ascending(b)
	return b, int64(u ^ (1 << 63)), err
}

// EncodeFloat64Ascending encodes f in 8 bytes. Positive values have their sign
// bit set and negative values are complemented, which makes the IEEE 754 bit
// pattern sort numerically. Negative zero is folded into zero.
func EncodeFloat64Ascending(b []byte, f float64) []byte {
	if f == 0 {
		f = 0
	}
	u := math.Float64bits(f)
	if u&(1<<63) == 0 {
		u |= 1 << 63
	} else {
		u = ^u
	}
	return EncodeUint64Ascending(b, u)
}

// DecodeFloat64Ascending decodes a value encoded by EncodeFloat64Ascending.
func DecodeFloat64Ascending(b []byte) ([]byte, float64, error) {
	b, u, err := DecodeUint64Ascending(b)
	if err != nil {
		return nil, 0, err
	}
	if u&(1<<63) != 0 {
		u &^= 1 << 63
	} else {
		u = ^u
	}
	return b, math.Float64frombits(u), nil
}

// EncodeFloat32Ascending is the 4 byte counterpart of EncodeFloat64Ascending.
func EncodeFloat32Ascending(b []byte, f float32) []byte {
	if f == 0 {
		f = 0
	}
	u := math.Float32bits(f)
	if u&(1<<31) == 0 {
		u |= 1 << 31
	} else {
		u = ^u
	}
	return EncodeUint32Ascending(b, u)
}

// DecodeFloat32Ascending decodes a value encoded by EncodeFloat32Ascending.
func DecodeFloat32Ascending(b []byte) ([]byte, float32, error) {
	b, u, err := DecodeUint32Ascending(b)
	if err != nil {
		return nil, 0, err
	}
	if u&(1<<31) != 0 {
		u &^= 1 << 31
	} else {
		u = ^u
	}
	return b, math.Float32frombits(u), nil
}

// EncodeVarintAscending encodes the int64 value using a variable length
// (length-prefixed) representation. The length is encoded as a single
// byte. If the value to be encoded is negative the length is encoded
// as 8-numBytes. If the value is positive it is encoded as
// 8+numBytes. The encoded bytes are appended to the supplied buffer
// and the final buffer is returned.
func EncodeVarintAscending(b []byte, v int64) []byte {
	if v < 0 {
		switch {
		case v >= -0xff:
			return append(b, IntMin+7, byte(v))
		case v >= -0xffff:
			return append(b, IntMin+6, byte(v>>8), byte(v))
		case v >= -0xffffff:
			return append(b, IntMin+5, byte(v>>16), byte(v>>8), byte(v))
		case v >= -0xffffffff:
			return append(b, IntMin+4, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
		case v >= -0xffffffffff:
			return append(b, IntMin+3, byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8),
				byte(v))
		case v >= -0xffffffffffff:
			return append(b, IntMin+2, byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16),
				byte(v>>8), byte(v))
		case v >= -0xffffffffffffff:
			return append(b, IntMin+1, byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24),
				byte(v>>16), byte(v>>8), byte(v))
		default:
			return append(b, IntMin, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
				byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
		}
	}
	return EncodeUvarintAscending(b, uint64(v))
}

// EncodeVarintDescending encodes the int64 value so that it sorts in reverse
// order, from largest to smallest.
func EncodeVarintDescending(b []byte, v int64) []byte {
	return EncodeVarintAscending(b, ^v)
}

// DecodeVarintAscending decodes a value encoded by EncodeVarintAscending.
func DecodeVarintAscending(b []byte) ([]byte, int64, error) {
	if len(b) == 0 {
		return nil, 0, errors.Errorf("insufficient bytes to decode varint value")
	}
	length := int(b[0]) - intZero
	if length < 0 {
		length = -length
		remB := b[1:]
		if len(remB) < length {
			return nil, 0, errors.Errorf("insufficient bytes to decode varint value: %x", remB)
		}
		var v int64
		// Use the ones-complement of each encoded byte in order to build
		// up a positive number, then take the ones-complement again to
		// arrive at our negative value.
		for _, t := range remB[:length] {
			v = (v << 8) | int64(^t)
		}
		return remB[length:], ^v, nil
	}

	remB, v, err := DecodeUvarintAscending(b)
	if err != nil {
		return remB, 0, err
	}
	if v > math.MaxInt64 {
		return nil, 0, errors.Errorf("varint %d overflows int64", v)
	}
	return remB, int64(v), nil
}

// DecodeVarintDescending decodes a value encoded by EncodeVarintDescending.
func DecodeVarintDescending(b []byte) ([]byte, int64, error) {
	leftover, v, err := DecodeVarintAscending(b)
	return leftover, ^v, err
}

// EncodeUvarintAscending encodes the uint64 value using a variable length
// (length-prefixed) representation. The length is encoded as a single
// byte indicating the number of encoded bytes (-8) to follow. See
// EncodeVarintAscending for rationale.
func EncodeUvarintAscending(b []byte, v uint64) []byte {
	switch {
	case v <= intSmall:
		return append(b, intZero+byte(v))
	case v <= 0xff:
		return append(b, IntMax-7, byte(v))
	case v <= 0xffff:
		return append(b, IntMax-6, byte(v>>8), byte(v))
	case v <= 0xffffff:
		return append(b, IntMax-5, byte(v>>16), byte(v>>8), byte(v))
	case v <= 0xffffffff:
		return append(b, IntMax-4, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case v <= 0xffffffffff:
		return append(b, IntMax-3, byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8),
			byte(v))
	case v <= 0xffffffffffff:
		return append(b, IntMax-2, byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16),
			byte(v>>8), byte(v))
	case v <= 0xffffffffffffff:
		return append(b, IntMax-1, byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24),
			byte(v>>16), byte(v>>8), byte(v))
	default:
		return append(b, IntMax, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
			byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

// DecodeUvarintAscending decodes a varint encoded uint64 from the input
// buffer. The remainder of the input buffer and the decoded uint64
// are returned.
func DecodeUvarintAscending(b []byte) ([]byte, uint64, error) {
	if len(b) == 0 {
		return nil, 0, errors.Errorf("insufficient bytes to decode uvarint value")
	}
	length := int(b[0]) - intZero
	b = b[1:] // skip length byte
	if length <= intSmall {
		return b, uint64(length), nil
	}
	length -= intSmall
	if length < 0 || length > 8 {
		return nil, 0, errors.Errorf("invalid uvarint length of %d", length)
	} else if len(b) < length {
		return nil, 0, errors.Errorf("insufficient bytes to decode uvarint value: %x", b)
	}
	var v uint64
	for _, t := range b[:length] {
		v = (v << 8) | uint64(t)
	}
	return b[length:], v, nil
}

const (
	// <term>     -> \x00\x01
	// \x00       -> \x00\xff
	escape      byte = 0x00
	escapedTerm byte = 0x01
	escaped00   byte = 0xff
	escapedFF   byte = 0x00
)

// EncodeBytesAscending encodes the []byte value using an escape-based
// encoding. The encoded value is terminated with the sequence
// "\x00\x01" which is guaranteed to not occur elsewhere in the
// encoded value. The encoded bytes are append to the supplied buffer
// and the resulting buffer is returned.
func EncodeBytesAscending(b []byte, data []byte) []byte {
	b = EncodeBytesPrefix(b, data)
	return append(b, escape, escapedTerm)
}

// EncodeBytesPrefix is EncodeBytesAscending without the terminator. Every
// value that has data as a prefix encodes to a key that has the result as a
// prefix, which makes it usable as the lower bound of a prefix scan.
func EncodeBytesPrefix(b []byte, data []byte) []byte {
	b = append(b, bytesMarker)
	for {
		// IndexByte is implemented by the go runtime in assembly and is
		// much faster than looping over the bytes in the slice.
		i := bytes.IndexByte(data, escape)
		if i == -1 {
			break
		}
		b = append(b, data[:i]...)
		b = append(b, escape, escaped00)
		data = data[i+1:]
	}
	return append(b, data...)
}

// DecodeBytesAscending decodes a []byte value from the input buffer
// which was encoded using EncodeBytesAscending. The decoded bytes
// are appended to r. The remainder of the input buffer and the
// decoded []byte are returned.
func DecodeBytesAscending(b []byte, r []byte) ([]byte, []byte, error) {
	if len(b) == 0 || b[0] != bytesMarker {
		return nil, nil, errors.Errorf("did not find marker %#x in buffer %#x", bytesMarker, b)
	}
	b = b[1:]

	for {
		i := bytes.IndexByte(b, escape)
		if i == -1 {
			return nil, nil, errors.Errorf("did not find terminator %#x in buffer %#x", escape, b)
		}
		if i+1 >= len(b) {
			return nil, nil, errors.Errorf("malformed escape in buffer %#x", b)
		}

		v := b[i+1]
		if v == escapedTerm {
			if r == nil {
				r = b[:i]
			} else {
				r = append(r, b[:i]...)
			}
			return b[i+2:], r, nil
		}

		if v != escaped00 {
			return nil, nil, errors.Errorf("unknown escape sequence: %#x %#x", escape, v)
		}
		r = append(r, b[:i]...)
		r = append(r, escapedFF)
		b = b[i+2:]
	}
}

// PrefixEnd determines the end key given b as a prefix, that is the key that
// sorts precisely behind all keys starting with prefix: "1" is added to the
// final byte and the carry propagated. A nil result means the range is
// unbounded.
func PrefixEnd(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	end := append([]byte(nil), b...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	// This statement will only be reached if the key is already a
	// maximal byte string (i.e. already \xff...).
	return nil
}

func onesComplement(b []byte) {
	for i := range b {
		b[i] = ^b[i]
	}
}
