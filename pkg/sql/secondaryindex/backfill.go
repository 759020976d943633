// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package secondaryindex

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/util/log"
)

// backfillChunkSize is the number of index entries written per apply.
const backfillChunkSize = 1000

// Backfill scans base in full and writes one entry into index for every row
// and every listed column the row holds a value for. It returns the number
// of entries written. Entries that exist already are overwritten, so an
// interrupted backfill can be run again.
func Backfill(
	ctx context.Context, base kv.Reader, index kv.Writer, columns []string,
) (int, error) {
	if len(columns) == 0 {
		return 0, errors.AssertionFailedf("backfill without columns")
	}
	cols := make([]kv.Column, len(columns))
	for i, c := range columns {
		cols[i] = kv.Column{Family: catalogkeys.Family, Qualifier: c}
	}
	it, err := base.Scan(ctx, kv.ScanRequest{Columns: cols})
	if err != nil {
		return 0, errors.Wrap(err, "scanning base table")
	}
	defer it.Close()

	var written int
	chunk := make([]kv.Mutation, 0, backfillChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := index.Apply(ctx, chunk...); err != nil {
			return errors.Wrap(err, "writing index entries")
		}
		written += len(chunk)
		chunk = chunk[:0]
		return nil
	}
	for {
		ok, err := it.Next(ctx)
		if err != nil {
			return written, err
		}
		if !ok {
			break
		}
		row := it.Row()
		for _, c := range columns {
			if v, ok := row.Value(catalogkeys.Family, c); ok {
				chunk = append(chunk, Entry(c, v, row.Key))
			}
		}
		if len(chunk) >= backfillChunkSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	log.VEventf(ctx, 2, "backfilled %d index entries", written)
	return written, nil
}
