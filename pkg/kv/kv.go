// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kv defines the client interface to a sorted, row-oriented
// key-value store: rows are identified by a byte-string row key, kept in
// row-key order, and hold cells addressed by (column family, qualifier).
// Implementations live in sub-packages (kvpebble for an embedded engine,
// kvhbase for a remote HBase cluster).
package kv

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv/kvfilter"
)

var (
	// ErrTableNotFound is returned when a table does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned when creating a table that already exists.
	ErrTableExists = errors.New("table already exists")
	// ErrTableEnabled is returned when deleting a table that was not
	// disabled first.
	ErrTableEnabled = errors.New("table is enabled")
	// ErrTableDisabled is returned when reading or writing a disabled table.
	ErrTableDisabled = errors.New("table is disabled")
	// ErrUnknownFamily is returned when a mutation names a column family the
	// table was not created with.
	ErrUnknownFamily = errors.New("unknown column family")
	// ErrTxnUnsupported is returned when transactions are requested from a
	// store without a transaction coordinator.
	ErrTxnUnsupported = errors.New("store does not support transactions")
	// ErrTxnFinalized is returned when using a committed or aborted
	// transaction.
	ErrTxnFinalized = errors.New("transaction already finalized")
)

// Column addresses a column within a row.
type Column struct {
	Family    string
	Qualifier string
}

func (c Column) String() string {
	return c.Family + ":" + c.Qualifier
}

// Cell is a column together with its value.
type Cell struct {
	Family    string
	Qualifier string
	Value     []byte
}

// Column returns the address of the cell.
func (c Cell) Column() Column {
	return Column{Family: c.Family, Qualifier: c.Qualifier}
}

// Row is a row key and its cells, sorted by (family, qualifier).
type Row struct {
	Key   []byte
	Cells []Cell
}

var _ kvfilter.Cell = Row{}

// Value returns the value of the given column.
func (r Row) Value(family, qualifier string) ([]byte, bool) {
	for i := range r.Cells {
		if r.Cells[i].Family == family && r.Cells[i].Qualifier == qualifier {
			return r.Cells[i].Value, true
		}
	}
	return nil, false
}

// Project returns a copy of the row containing only the given columns. A
// nil column set returns the row unchanged.
func (r Row) Project(cols []Column) Row {
	if cols == nil {
		return r
	}
	out := Row{Key: r.Key}
	for _, c := range r.Cells {
		for _, want := range cols {
			if c.Family == want.Family && c.Qualifier == want.Qualifier {
				out.Cells = append(out.Cells, c)
				break
			}
		}
	}
	return out
}

// SortCells sorts cells by (family, qualifier).
func SortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Family != cells[j].Family {
			return cells[i].Family < cells[j].Family
		}
		return cells[i].Qualifier < cells[j].Qualifier
	})
}

// Mutation is an atomic change to one row. DeleteRow is applied first, then
// DeleteColumns, then Puts.
type Mutation struct {
	Row           []byte
	Puts          []Cell
	DeleteColumns []Column
	DeleteRow     bool
}

// Put returns a mutation writing the given cells.
func Put(row []byte, cells ...Cell) Mutation {
	return Mutation{Row: row, Puts: cells}
}

// Delete returns a mutation removing the whole row.
func Delete(row []byte) Mutation {
	return Mutation{Row: row, DeleteRow: true}
}

func (m Mutation) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%q:", m.Row)
	if m.DeleteRow {
		buf.WriteString(" delete")
	}
	for _, c := range m.DeleteColumns {
		fmt.Fprintf(&buf, " -%s", c)
	}
	for _, c := range m.Puts {
		fmt.Fprintf(&buf, " %s:%s=%q", c.Family, c.Qualifier, c.Value)
	}
	return buf.String()
}

// ScanRequest describes a range scan. Rows are returned in row-key order
// within [StartRow, StopRow); a nil bound is unbounded. Prefix, when set,
// further restricts the scan to row keys starting with it. Filter is
// evaluated against the full row, after which the row is restricted to
// Columns (all columns when nil). Rows left without cells are skipped.
type ScanRequest struct {
	StartRow []byte
	StopRow  []byte
	Prefix   []byte
	Columns  []Column
	Filter   kvfilter.Filter
}

// RowIterator streams the rows of a scan. Close must be called on every
// iterator, also when Next returned an error.
type RowIterator interface {
	// Next advances to the next row, returning false once exhausted.
	Next(ctx context.Context) (bool, error)
	// Row returns the current row. It is only valid after Next returned true.
	Row() Row
	// Close releases the resources held by the iterator.
	Close()
}

// Reader reads rows of one table.
type Reader interface {
	// Get returns the rows with the given keys, in the order requested.
	// Rows that do not exist are omitted.
	Get(ctx context.Context, keys ...[]byte) ([]Row, error)
	// Scan returns an iterator over the rows matching the request.
	Scan(ctx context.Context, req ScanRequest) (RowIterator, error)
}

// Writer writes rows of one table.
type Writer interface {
	// Apply applies the mutations. Each mutation is atomic; the batch as a
	// whole is only atomic inside a transaction.
	Apply(ctx context.Context, muts ...Mutation) error
}

// Table is a handle on one table of the store.
type Table interface {
	Name() string
	Reader
	Writer
}

// Admin performs table-level operations.
type Admin interface {
	// CreateTable creates a table with the given column families.
	CreateTable(ctx context.Context, name string, families ...string) error
	// TableExists reports whether the table exists, enabled or not.
	TableExists(ctx context.Context, name string) (bool, error)
	// DisableTable disables a table, which is required before deleting it.
	DisableTable(ctx context.Context, name string) error
	// DeleteTable deletes a disabled table and its data.
	DeleteTable(ctx context.Context, name string) error
	// ListTables returns the names of all tables in lexical order.
	ListTables(ctx context.Context) ([]string, error)
}

// Store is a connection to a key-value store.
type Store interface {
	Admin() Admin
	Table(name string) Table
	Close() error
}

// Coordinator hands out transactions spanning several tables.
type Coordinator interface {
	Begin(ctx context.Context) (Txn, error)
}

// ScanAll drains a scan into memory.
func ScanAll(ctx context.Context, r Reader, req ScanRequest) ([]Row, error) {
	it, err := r.Scan(ctx, req)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var rows []Row
	for {
		ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, it.Row())
	}
}

// SliceIterator is a RowIterator over rows already in memory.
type SliceIterator struct {
	rows []Row
	cur  int
}

var _ RowIterator = (*SliceIterator)(nil)

// NewSliceIterator returns an iterator over rows.
func NewSliceIterator(rows []Row) *SliceIterator {
	return &SliceIterator{rows: rows, cur: -1}
}

// Next implements RowIterator.
func (s *SliceIterator) Next(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.cur+1 >= len(s.rows) {
		s.cur = len(s.rows)
		return false, nil
	}
	s.cur++
	return true, nil
}

// Row implements RowIterator.
func (s *SliceIterator) Row() Row {
	return s.rows[s.cur]
}

// Close implements RowIterator.
func (s *SliceIterator) Close() {
	s.rows = nil
}
