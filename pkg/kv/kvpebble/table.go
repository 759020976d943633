// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpebble

import (
	"bytes"
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/util/encoding"
	"github.com/cockroachdb/pebble"
)

// table is a kv.Table. Outside of a transaction every Apply commits its own
// batch; inside one, reads and writes go through the transaction's indexed
// batch.
type table struct {
	name   string
	prefix []byte
	store  *Store
	txn    *txn
}

var _ kv.Table = (*table)(nil)

// Name implements kv.Table.
func (t *table) Name() string {
	return t.name
}

func (t *table) reader() (reader, error) {
	if t.txn == nil {
		return t.store.db, nil
	}
	if t.txn.finalized {
		return nil, errors.Wrapf(kv.ErrTxnFinalized, "transaction %s", t.txn.id)
	}
	return t.txn.batch, nil
}

// Get implements kv.Table.
func (t *table) Get(ctx context.Context, keys ...[]byte) ([]kv.Row, error) {
	r, err := t.reader()
	if err != nil {
		return nil, err
	}
	if _, err := checkTable(r, t.name); err != nil {
		return nil, err
	}
	iter, err := r.NewIter(&pebble.IterOptions{
		LowerBound: t.prefix,
		UpperBound: encoding.PrefixEnd(t.prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	rows := make([]kv.Row, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rp := rowPrefix(t.prefix, key)
		row := kv.Row{Key: append([]byte(nil), key...)}
		for valid := iter.SeekGE(rp); valid && bytes.HasPrefix(iter.Key(), rp); valid = iter.Next() {
			_, fam, qual, err := decodeCellKey(t.prefix, iter.Key())
			if err != nil {
				return nil, err
			}
			row.Cells = append(row.Cells, kv.Cell{
				Family:    fam,
				Qualifier: qual,
				Value:     append([]byte(nil), iter.Value()...),
			})
		}
		if err := iter.Error(); err != nil {
			return nil, errors.Wrapf(err, "reading row %q of %q", key, t.name)
		}
		if len(row.Cells) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Apply implements kv.Table.
func (t *table) Apply(ctx context.Context, muts ...kv.Mutation) error {
	if t.txn != nil {
		if t.txn.finalized {
			return errors.Wrapf(kv.ErrTxnFinalized, "transaction %s", t.txn.id)
		}
		return t.write(t.txn.batch, t.txn.batch, muts)
	}
	b := t.store.db.NewBatch()
	defer b.Close()
	if err := t.write(t.store.db, b, muts); err != nil {
		return err
	}
	return errors.Wrapf(b.Commit(pebble.Sync), "writing to %q", t.name)
}

func (t *table) write(r reader, b *pebble.Batch, muts []kv.Mutation) error {
	m, err := checkTable(r, t.name)
	if err != nil {
		return err
	}
	for _, mut := range muts {
		if len(mut.Row) == 0 {
			return errors.Newf("empty row key in mutation on %q", t.name)
		}
		if mut.DeleteRow {
			rp := rowPrefix(t.prefix, mut.Row)
			if err := b.DeleteRange(rp, encoding.PrefixEnd(rp), nil); err != nil {
				return err
			}
		}
		for _, c := range mut.DeleteColumns {
			if err := b.Delete(cellKey(t.prefix, mut.Row, c.Family, c.Qualifier), nil); err != nil {
				return err
			}
		}
		for _, c := range mut.Puts {
			if !m.hasFamily(c.Family) {
				return errors.Wrapf(kv.ErrUnknownFamily, "%q in table %q", c.Family, t.name)
			}
			if err := b.Set(cellKey(t.prefix, mut.Row, c.Family, c.Qualifier), c.Value, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scan implements kv.Table.
func (t *table) Scan(ctx context.Context, req kv.ScanRequest) (kv.RowIterator, error) {
	r, err := t.reader()
	if err != nil {
		return nil, err
	}
	if _, err := checkTable(r, t.name); err != nil {
		return nil, err
	}
	lower, upper := scanBounds(t.prefix, req.StartRow, req.StopRow, req.Prefix)
	if bytes.Compare(lower, upper) >= 0 {
		return kv.NewSliceIterator(nil), nil
	}
	iter, err := r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	return &rowIterator{
		iter:   iter,
		prefix: t.prefix,
		req:    req,
		valid:  iter.First(),
	}, nil
}

// rowIterator assembles consecutive cells of the underlying engine iterator
// into rows.
type rowIterator struct {
	iter   *pebble.Iterator
	prefix []byte
	req    kv.ScanRequest
	// valid is set while the engine iterator is positioned on a cell that has
	// not been consumed yet.
	valid bool
	row   kv.Row
}

var _ kv.RowIterator = (*rowIterator)(nil)

// Next implements kv.RowIterator.
func (it *rowIterator) Next(ctx context.Context) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if it.iter == nil {
			return false, nil
		}
		if !it.valid {
			return false, it.iter.Error()
		}
		row, err := it.readRow()
		if err != nil {
			return false, err
		}
		if it.req.Filter != nil && !it.req.Filter.Eval(row.Key, row) {
			continue
		}
		row = row.Project(it.req.Columns)
		if len(row.Cells) == 0 {
			continue
		}
		it.row = row
		return true, nil
	}
}

func (it *rowIterator) readRow() (kv.Row, error) {
	var row kv.Row
	for ; it.valid; it.valid = it.iter.Next() {
		key, fam, qual, err := decodeCellKey(it.prefix, it.iter.Key())
		if err != nil {
			return kv.Row{}, err
		}
		if row.Key == nil {
			row.Key = key
		} else if !bytes.Equal(row.Key, key) {
			break
		}
		row.Cells = append(row.Cells, kv.Cell{
			Family:    fam,
			Qualifier: qual,
			Value:     append([]byte(nil), it.iter.Value()...),
		})
	}
	return row, nil
}

// Row implements kv.RowIterator.
func (it *rowIterator) Row() kv.Row {
	return it.row
}

// Close implements kv.RowIterator.
func (it *rowIterator) Close() {
	if it.iter != nil {
		_ = it.iter.Close()
		it.iter = nil
	}
}
