// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvhbase

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvfilter"
	"github.com/cockroachdb/kvsql/pkg/util/encoding"
	"github.com/tsuna/gohbase"
	"github.com/tsuna/gohbase/filter"
	"github.com/tsuna/gohbase/hrpc"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentGets bounds the number of Get RPCs in flight for one
// multi-row read.
const maxConcurrentGets = 16

type table struct {
	name   string
	client gohbase.Client
}

var _ kv.Table = (*table)(nil)

// Name implements kv.Table.
func (t *table) Name() string {
	return t.name
}

// Get implements kv.Table. The rows are fetched concurrently.
func (t *table) Get(ctx context.Context, keys ...[]byte) ([]kv.Row, error) {
	results := make([]kv.Row, len(keys))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentGets)
	for i := range keys {
		i := i
		g.Go(func() error {
			req, err := hrpc.NewGetStr(gCtx, t.name, string(keys[i]))
			if err != nil {
				return errors.Wrapf(err, "reading row %q of %q", keys[i], t.name)
			}
			res, err := t.client.Get(req)
			if err != nil {
				return translateError(err, "reading row %q of %q", keys[i], t.name)
			}
			results[i] = toRow(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	rows := results[:0]
	for _, r := range results {
		if len(r.Cells) > 0 {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// Apply implements kv.Table. HBase applies each of the row deletion, the
// column deletions and the puts of a mutation atomically, but not the three
// together.
func (t *table) Apply(ctx context.Context, muts ...kv.Mutation) error {
	for _, m := range muts {
		if len(m.Row) == 0 {
			return errors.Newf("empty row key in mutation on %q", t.name)
		}
		if m.DeleteRow {
			req, err := hrpc.NewDelStr(ctx, t.name, string(m.Row), nil)
			if err != nil {
				return errors.Wrapf(err, "deleting row %q of %q", m.Row, t.name)
			}
			if _, err := t.client.Delete(req); err != nil {
				return translateError(err, "deleting row %q of %q", m.Row, t.name)
			}
		}
		if len(m.DeleteColumns) > 0 {
			cols := make(map[string]map[string][]byte)
			for _, c := range m.DeleteColumns {
				if cols[c.Family] == nil {
					cols[c.Family] = make(map[string][]byte)
				}
				cols[c.Family][c.Qualifier] = nil
			}
			req, err := hrpc.NewDelStr(ctx, t.name, string(m.Row), cols)
			if err != nil {
				return errors.Wrapf(err, "deleting columns of row %q of %q", m.Row, t.name)
			}
			if _, err := t.client.Delete(req); err != nil {
				return translateError(err, "deleting columns of row %q of %q", m.Row, t.name)
			}
		}
		if len(m.Puts) > 0 {
			values := make(map[string]map[string][]byte)
			for _, c := range m.Puts {
				if values[c.Family] == nil {
					values[c.Family] = make(map[string][]byte)
				}
				values[c.Family][c.Qualifier] = c.Value
			}
			req, err := hrpc.NewPutStr(ctx, t.name, string(m.Row), values)
			if err != nil {
				return errors.Wrapf(err, "writing row %q of %q", m.Row, t.name)
			}
			if _, err := t.client.Put(req); err != nil {
				return translateError(err, "writing row %q of %q", m.Row, t.name)
			}
		}
	}
	return nil
}

// Scan implements kv.Table.
func (t *table) Scan(ctx context.Context, req kv.ScanRequest) (kv.RowIterator, error) {
	start, stop := req.StartRow, req.StopRow
	var filters []kvfilter.Filter
	if len(req.Prefix) > 0 {
		if string(req.Prefix) > string(start) {
			start = req.Prefix
		}
		if end := encoding.PrefixEnd(req.Prefix); end != nil && (stop == nil || string(end) < string(stop)) {
			stop = end
		}
		filters = append(filters, &kvfilter.PrefixFilter{Prefix: req.Prefix})
	}
	if req.Filter != nil {
		filters = append(filters, req.Filter)
	}

	var opts []func(hrpc.Call) error
	if len(filters) > 0 {
		f, err := toHBaseFilter(kvfilter.NewList(kvfilter.MustPassAll, filters...))
		if err != nil {
			return nil, err
		}
		opts = append(opts, hrpc.Filters(f))
	}
	// A filter may test columns outside of the projection, so the projection
	// is only pushed to the region servers when the scan is unfiltered.
	project := req.Columns
	if req.Filter == nil && req.Columns != nil {
		opts = append(opts, hrpc.Families(families(req.Columns)))
		project = nil
	}
	scan, err := hrpc.NewScanRangeStr(ctx, t.name, string(start), string(stop), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %q", t.name)
	}
	return &rowIterator{
		table:   t.name,
		scanner: t.client.Scan(scan),
		project: project,
	}, nil
}

func families(cols []kv.Column) map[string][]string {
	fams := make(map[string][]string)
	for _, c := range cols {
		fams[c.Family] = append(fams[c.Family], c.Qualifier)
	}
	return fams
}

type rowIterator struct {
	table   string
	scanner hrpc.Scanner
	project []kv.Column
	row     kv.Row
}

var _ kv.RowIterator = (*rowIterator)(nil)

// Next implements kv.RowIterator.
func (it *rowIterator) Next(ctx context.Context) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if it.scanner == nil {
			return false, nil
		}
		res, err := it.scanner.Next()
		if err == io.EOF {
			return false, nil
		} else if err != nil {
			return false, translateError(err, "scanning %q", it.table)
		}
		row := toRow(res).Project(it.project)
		if len(row.Cells) == 0 {
			continue
		}
		it.row = row
		return true, nil
	}
}

// Row implements kv.RowIterator.
func (it *rowIterator) Row() kv.Row {
	return it.row
}

// Close implements kv.RowIterator.
func (it *rowIterator) Close() {
	if it.scanner != nil {
		_ = it.scanner.Close()
		it.scanner = nil
	}
}

func toRow(res *hrpc.Result) kv.Row {
	var row kv.Row
	if res == nil {
		return row
	}
	for _, c := range res.Cells {
		if row.Key == nil {
			row.Key = c.Row
		}
		row.Cells = append(row.Cells, kv.Cell{
			Family:    string(c.Family),
			Qualifier: string(c.Qualifier),
			Value:     c.Value,
		})
	}
	kv.SortCells(row.Cells)
	return row
}

var compareTypes = map[kvfilter.CompareOp]filter.CompareType{
	kvfilter.Equal:          filter.Equal,
	kvfilter.NotEqual:       filter.NotEqual,
	kvfilter.Less:           filter.Less,
	kvfilter.LessOrEqual:    filter.LessOrEqual,
	kvfilter.Greater:        filter.Greater,
	kvfilter.GreaterOrEqual: filter.GreaterOrEqual,
}

func binaryComparator(v []byte) filter.Comparator {
	return filter.NewBinaryComparator(filter.NewByteArrayComparable(v))
}

// toHBaseFilter translates a filter tree into the equivalent HBase filters.
func toHBaseFilter(f kvfilter.Filter) (filter.Filter, error) {
	switch f := f.(type) {
	case *kvfilter.RowFilter:
		op, ok := compareTypes[f.Op]
		if !ok {
			return nil, errors.AssertionFailedf("unknown compare op %s", f.Op)
		}
		return filter.NewRowFilter(filter.NewCompareFilter(op, binaryComparator(f.Value))), nil
	case *kvfilter.SingleColumnValueFilter:
		op, ok := compareTypes[f.Op]
		if !ok {
			return nil, errors.AssertionFailedf("unknown compare op %s", f.Op)
		}
		return filter.NewSingleColumnValueFilter(
			[]byte(f.Family), []byte(f.Qualifier), op, binaryComparator(f.Value),
			f.FilterIfMissing, true /* latestVersionOnly */), nil
	case *kvfilter.PrefixFilter:
		return filter.NewPrefixFilter(f.Prefix), nil
	case *kvfilter.List:
		op := filter.MustPassAll
		if f.Operator == kvfilter.MustPassOne {
			op = filter.MustPassOne
		}
		children := make([]filter.Filter, 0, len(f.Filters))
		for _, c := range f.Filters {
			hf, err := toHBaseFilter(c)
			if err != nil {
				return nil, err
			}
			children = append(children, hf)
		}
		return filter.NewList(op, children...), nil
	default:
		return nil, errors.AssertionFailedf("unsupported filter %T", f)
	}
}
