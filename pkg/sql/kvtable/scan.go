// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvtable

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pushdown"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/sql/sem/tree"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/prometheus/client_golang/prometheus"
)

// RowIterator streams the decoded rows of a scan. Close must be called on
// every iterator, also when Next returned an error.
type RowIterator struct {
	name    string
	it      kv.RowIterator
	decode  func(kv.Row) (tree.Datums, error)
	cur     tree.Datums
	scanned prometheus.Counter
}

// Next advances to the next row, returning false once exhausted.
func (r *RowIterator) Next(ctx context.Context) (bool, error) {
	if r.it == nil {
		return false, nil
	}
	ok, err := r.it.Next(ctx)
	if err != nil || !ok {
		r.cur = nil
		return false, errors.Wrapf(err, "scanning %q", r.name)
	}
	r.cur, err = r.decode(r.it.Row())
	if err != nil {
		return false, err
	}
	r.scanned.Inc()
	return true, nil
}

// Datums returns the current row. It is only valid after Next returned true.
func (r *RowIterator) Datums() tree.Datums { return r.cur }

// Close releases the store scanner. It is idempotent.
func (r *RowIterator) Close() {
	if r.it != nil {
		r.it.Close()
		r.it = nil
	}
}

// Scan returns the rows of the table in primary key order.
//
// filters are the conjuncts of the query's predicate over the table's
// columns. With filter pushdown they are compiled into a store filter and
// any predicate that cannot be compiled fails the scan; without it they are
// ignored and left to the caller.
//
// projection lists column ordinals. With project pushdown the rows hold
// those columns in that order and only they are fetched; without it, or
// when projection is nil, rows hold every column.
func (t *Table) Scan(
	ctx context.Context, filters []tree.TypedExpr, projection []int,
) (*RowIterator, error) {
	var req kv.ScanRequest
	if t.caps.FilterPushdown && len(filters) > 0 {
		res, err := pushdown.Compile(t.cols, filters)
		if err != nil {
			return nil, errors.Wrapf(err, "scanning %q", t.name)
		}
		req.Filter, req.StartRow, req.StopRow = res.Filter, res.StartRow, res.StopRow
		req.Columns = res.Columns
		t.filtersPushed.Inc()
	}
	out := make([]int, len(t.cols))
	for i := range out {
		out[i] = i
	}
	if t.caps.ProjectPushdown && projection != nil {
		for _, ord := range projection {
			if ord < 0 || ord >= len(t.cols) {
				return nil, errors.AssertionFailedf(
					"projected column %d out of range for %d columns of %q", ord, len(t.cols), t.name)
			}
		}
		out = projection
		req.Columns = t.fetchColumns(projection, req.Columns)
	} else {
		req.Columns = nil
	}
	if log.V(2) {
		log.Infof(ctx, "scanning %q: span [%x, %x) filter %v columns %v",
			t.name, req.StartRow, req.StopRow, req.Filter, req.Columns)
	}
	it, err := t.base().Scan(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %q", t.name)
	}
	return &RowIterator{
		name:    t.name,
		it:      it,
		decode:  func(row kv.Row) (tree.Datums, error) { return t.decodeRow(row, out) },
		scanned: t.rowsScanned,
	}, nil
}

// fetchColumns returns the row marker, the projected non-key columns and
// the columns read by the filter.
func (t *Table) fetchColumns(projection []int, filterCols []kv.Column) []kv.Column {
	cols := []kv.Column{rowMarker}
	add := func(c kv.Column) {
		for _, existing := range cols {
			if existing == c {
				return
			}
		}
		cols = append(cols, c)
	}
	for _, ord := range projection {
		if ord != t.pk {
			add(kv.Column{Family: catalogkeys.Family, Qualifier: t.cols[ord].Name})
		}
	}
	for _, c := range filterCols {
		add(c)
	}
	return cols
}

// decodeRow decodes the columns out of row. Missing cells are NULL.
func (t *Table) decodeRow(row kv.Row, out []int) (tree.Datums, error) {
	datums := make(tree.Datums, len(out))
	for i, ord := range out {
		col := t.cols[ord]
		if ord == t.pk {
			d, err := rowenc.DecodeDatum(col.Type, row.Key)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding primary key of %q", t.name)
			}
			datums[i] = d
			continue
		}
		v, ok := row.Value(catalogkeys.Family, col.Name)
		if !ok {
			datums[i] = tree.DNull
			continue
		}
		d, err := rowenc.DecodeDatum(col.Type, v)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s.%s of row %x", t.name, col.Name, row.Key)
		}
		datums[i] = d
	}
	return datums, nil
}

// decodeRows decodes full rows.
func (t *Table) decodeRows(rows []kv.Row) ([]tree.Datums, error) {
	out := make([]int, len(t.cols))
	for i := range out {
		out[i] = i
	}
	res := make([]tree.Datums, 0, len(rows))
	for _, row := range rows {
		d, err := t.decodeRow(row, out)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}
