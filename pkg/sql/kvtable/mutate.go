// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvtable

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/sql/secondaryindex"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/util/log"
)

func isNull(d tree.Datum) bool {
	return d == nil || d == tree.DNull
}

func (t *Table) notNull(col catalog.ColumnDescriptor) error {
	return pgerror.Newf(pgcode.NotNullViolation,
		"null value in column %q of %q violates not-null constraint", col.Name, t.name)
}

// encodeKey encodes a primary key value as a row key.
func (t *Table) encodeKey(d tree.Datum) ([]byte, error) {
	col := t.cols[t.pk]
	if isNull(d) {
		return nil, t.notNull(col)
	}
	key, err := rowenc.EncodeDatum(col.Type, d)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding primary key %s of %q", col.Name, t.name)
	}
	if len(key) == 0 {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue,
			"empty primary key %s of %q", col.Name, t.name)
	}
	return key, nil
}

// mutation builds the point-write of row. NULL values take the column
// default, or else remove the cell so an overwrite leaves no stale value.
func (t *Table) mutation(row tree.Datums) (kv.Mutation, error) {
	if len(row) != len(t.cols) {
		return kv.Mutation{}, pgerror.Newf(pgcode.Syntax,
			"%q has %d columns but %d values were supplied", t.name, len(t.cols), len(row))
	}
	var m kv.Mutation
	m.Puts = append(m.Puts, kv.Cell{Family: rowMarker.Family, Qualifier: rowMarker.Qualifier})
	for i, col := range t.cols {
		d := row[i]
		if isNull(d) && col.Default != nil {
			d = col.Default
		}
		if i == t.pk {
			key, err := t.encodeKey(d)
			if err != nil {
				return kv.Mutation{}, err
			}
			m.Row = key
			continue
		}
		if isNull(d) {
			if !col.Nullable {
				return kv.Mutation{}, t.notNull(col)
			}
			m.DeleteColumns = append(m.DeleteColumns,
				kv.Column{Family: catalogkeys.Family, Qualifier: col.Name})
			continue
		}
		v, err := rowenc.EncodeDatum(col.Type, d)
		if err != nil {
			return kv.Mutation{}, errors.Wrapf(err, "encoding %s.%s", t.name, col.Name)
		}
		m.Puts = append(m.Puts, kv.Cell{Family: catalogkeys.Family, Qualifier: col.Name, Value: v})
	}
	kv.SortCells(m.Puts)
	return m, nil
}

// Insert writes one row, replacing any row with the same primary key. The
// row holds a value for every column in ordinal order.
func (t *Table) Insert(ctx context.Context, row tree.Datums) error {
	m, err := t.mutation(row)
	if err != nil {
		return err
	}
	if err := t.refresh(ctx, true /* forWrite */); err != nil {
		return err
	}
	t.mu.RLock()
	switch {
	case t.mu.indexErr != nil:
		err = t.mu.indexErr
	case t.mu.index != nil:
		err = t.mu.index.Put(ctx, m)
	default:
		err = t.base().Apply(ctx, m)
	}
	t.mu.RUnlock()
	if err != nil {
		return errors.Wrapf(err, "inserting into %q", t.name)
	}
	t.rowsWritten.Inc()
	log.VEventf(ctx, 3, "inserted %s", m)
	return nil
}

// Delete removes the rows with the given primary keys in one batch. Keys
// without a row are ignored.
func (t *Table) Delete(ctx context.Context, keys tree.Datums) error {
	if len(keys) == 0 {
		return nil
	}
	rows := make([][]byte, len(keys))
	for i, k := range keys {
		key, err := t.encodeKey(k)
		if err != nil {
			return err
		}
		rows[i] = key
	}
	if err := t.refresh(ctx, true /* forWrite */); err != nil {
		return err
	}
	var err error
	t.mu.RLock()
	switch {
	case t.mu.indexErr != nil:
		err = t.mu.indexErr
	case t.mu.index != nil:
		err = t.mu.index.Delete(ctx, rows...)
	default:
		muts := make([]kv.Mutation, len(rows))
		for i, r := range rows {
			muts[i] = kv.Delete(r)
		}
		err = t.base().Apply(ctx, muts...)
	}
	t.mu.RUnlock()
	if err != nil {
		return errors.Wrapf(err, "deleting from %q", t.name)
	}
	t.rowsDeleted.Add(float64(len(rows)))
	log.VEventf(ctx, 3, "deleted %d rows from %q", len(rows), t.name)
	return nil
}

// LookupByIndex returns the rows whose column equals value, found through
// the secondary index.
func (t *Table) LookupByIndex(
	ctx context.Context, column string, value tree.Datum,
) ([]tree.Datums, error) {
	var col *catalog.ColumnDescriptor
	for i := range t.cols {
		if t.cols[i].Name == column {
			col = &t.cols[i]
			break
		}
	}
	if col == nil {
		return nil, errors.Wrapf(catalog.ErrColumnNotFound, "column %q of %q", column, t.name)
	}
	if err := t.refresh(ctx, false /* forWrite */); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.mu.indexErr != nil {
		return nil, t.mu.indexErr
	}
	if t.mu.index == nil || !t.mu.desc.Indexed() {
		return nil, errors.Wrapf(secondaryindex.ErrColumnNotIndexed, "%s.%s", t.name, column)
	}
	if isNull(value) {
		return nil, nil
	}
	v, err := rowenc.EncodeDatum(col.Type, value)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s.%s", t.name, column)
	}
	rows, err := t.mu.index.GetByIndex(ctx, column, v)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up %s.%s", t.name, column)
	}
	res, err := t.decodeRows(rows)
	if err != nil {
		return nil, err
	}
	t.rowsScanned.Add(float64(len(res)))
	return res, nil
}
