// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpebble

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/util/encoding"
)

// The engine keyspace is split into table metadata and table data:
//
//	/m/<table>                           -> tableMeta
//	/t/<table>/<row>/<family>/<qualifier> -> cell value
//
// Every segment is escape-encoded, so the cells of a row are contiguous, rows
// of a table are contiguous and ordered by their raw row key, and cells of a
// row are ordered by (family, qualifier).
var (
	metaPrefix = []byte("m")
	dataPrefix = []byte("t")
)

func metaKey(table string) []byte {
	return encoding.EncodeBytesAscending(append([]byte(nil), metaPrefix...), []byte(table))
}

func tablePrefix(table string) []byte {
	return encoding.EncodeBytesAscending(append([]byte(nil), dataPrefix...), []byte(table))
}

func rowPrefix(tablePrefix, row []byte) []byte {
	return encoding.EncodeBytesAscending(append([]byte(nil), tablePrefix...), row)
}

func cellKey(tablePrefix, row []byte, family, qualifier string) []byte {
	k := rowPrefix(tablePrefix, row)
	k = encoding.EncodeBytesAscending(k, []byte(family))
	return encoding.EncodeBytesAscending(k, []byte(qualifier))
}

// decodeCellKey splits a data key with the given table prefix into its row
// key, family and qualifier. The returned slices do not alias key.
func decodeCellKey(tablePrefix, key []byte) (row []byte, family, qualifier string, _ error) {
	if !bytes.HasPrefix(key, tablePrefix) {
		return nil, "", "", errors.AssertionFailedf("key %x outside of table prefix %x", key, tablePrefix)
	}
	rest, row, err := encoding.DecodeBytesAscending(key[len(tablePrefix):], []byte{})
	if err != nil {
		return nil, "", "", errors.Wrap(err, "decoding row key")
	}
	rest, fam, err := encoding.DecodeBytesAscending(rest, nil)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "decoding column family")
	}
	_, qual, err := encoding.DecodeBytesAscending(rest, nil)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "decoding column qualifier")
	}
	return row, string(fam), string(qual), nil
}

func decodeMetaKey(key []byte) (string, error) {
	if !bytes.HasPrefix(key, metaPrefix) {
		return "", errors.AssertionFailedf("key %x is not a metadata key", key)
	}
	_, name, err := encoding.DecodeBytesAscending(key[len(metaPrefix):], nil)
	if err != nil {
		return "", errors.Wrap(err, "decoding table name")
	}
	return string(name), nil
}

// scanBounds returns the engine key bounds covering the rows of a scan
// request within the table.
func scanBounds(tablePrefix, start, stop, prefix []byte) (lower, upper []byte) {
	lower = tablePrefix
	if start != nil {
		lower = rowPrefix(tablePrefix, start)
	}
	upper = encoding.PrefixEnd(tablePrefix)
	if stop != nil {
		upper = rowPrefix(tablePrefix, stop)
	}
	if prefix != nil {
		pLower := encoding.EncodeBytesPrefix(append([]byte(nil), tablePrefix...), prefix)
		pUpper := encoding.PrefixEnd(pLower)
		if bytes.Compare(pLower, lower) > 0 {
			lower = pLower
		}
		if bytes.Compare(pUpper, upper) < 0 {
			upper = pUpper
		}
	}
	return lower, upper
}
