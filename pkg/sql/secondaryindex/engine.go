// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package secondaryindex maintains key-value secondary indexes next to base
// tables. An index lives in its own store table. Each entry is keyed by
// (column, escaped value, base row key) and points back at the base row
// through its sif:r cell, so all rows holding a value are found with a
// single prefix scan followed by a multi-get on the base table.
//
// Two engines are provided. The best-effort engine writes the base table
// first and the index second, so a failure in between leaves the index
// behind. The transactional engine performs the read, the base write and the
// index write in one coordinator transaction.
package secondaryindex

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/util/log"
)

var (
	// ErrClosed is returned by every operation of a closed engine.
	ErrClosed = errors.New("index engine is closed")
	// ErrColumnNotIndexed is returned when looking up a column that is not
	// covered by the index.
	ErrColumnNotIndexed = pgerror.New(pgcode.UndefinedObject, "column is not indexed")
)

// Spec describes an index.
type Spec struct {
	// Base is the name of the indexed table.
	Base string
	// Index is the name of the table holding the entries. It is empty for
	// a table without index, in which case the engine only writes the base
	// table.
	Index string
	// Columns are the indexed qualifiers of family cf, in index order.
	Columns []string
}

func (s Spec) indexed(column string) bool {
	if s.Index == "" {
		return false
	}
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Engine writes base rows together with their index entries and answers
// lookups through the index.
type Engine interface {
	// Put applies the mutations to the base table and brings the index
	// entries of every touched row in line with the rows' new values.
	Put(ctx context.Context, muts ...kv.Mutation) error
	// Delete removes the rows and their index entries.
	Delete(ctx context.Context, rows ...[]byte) error
	// GetByIndex returns the base rows whose column holds value, in index
	// order.
	GetByIndex(ctx context.Context, column string, value []byte) ([]kv.Row, error)
	// Close releases the engine. Later calls fail with ErrClosed.
	Close()
}

// TestingKnobs hooks into the engines.
type TestingKnobs struct {
	// BeforeIndexWrite runs after the base table was written and before the
	// index is. An error aborts the write.
	BeforeIndexWrite func() error
}

type engine struct {
	spec    Spec
	metrics *Metrics
	knobs   TestingKnobs
	closed  atomic.Bool

	// staleEvery rate limits the warning about dangling index entries.
	staleEvery *log.EveryN
}

func newEngine(spec Spec, metrics *Metrics, knobs *TestingKnobs) *engine {
	if metrics == nil {
		metrics = NewMetrics()
	}
	e := &engine{spec: spec, metrics: metrics, staleEvery: log.Every(time.Minute)}
	if knobs != nil {
		e.knobs = *knobs
	}
	return e
}

func (e *engine) checkOpen() error {
	if e.closed.Load() {
		return errors.Wrapf(ErrClosed, "index of %q", e.spec.Base)
	}
	return nil
}

// Close implements Engine.
func (e *engine) Close() {
	e.closed.Store(true)
}

func deletions(rows [][]byte) []kv.Mutation {
	muts := make([]kv.Mutation, len(rows))
	for i, r := range rows {
		muts[i] = kv.Delete(r)
	}
	return muts
}

// write applies the mutations to base and the derived entries to index.
// Both handles are either plain tables or bound to the same transaction.
func (e *engine) write(ctx context.Context, base, index kv.Table, muts []kv.Mutation) error {
	entries, err := e.plan(ctx, base, muts)
	if err != nil {
		return err
	}
	if err := base.Apply(ctx, muts...); err != nil {
		return errors.Wrapf(err, "writing %q", e.spec.Base)
	}
	if index == nil {
		return nil
	}
	if fn := e.knobs.BeforeIndexWrite; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	if len(entries.muts) == 0 {
		return nil
	}
	if err := index.Apply(ctx, entries.muts...); err != nil {
		return errors.Wrapf(err, "writing index %q", e.spec.Index)
	}
	e.metrics.EntriesWritten.Add(float64(entries.puts))
	e.metrics.EntriesDeleted.Add(float64(entries.deletes))
	log.VEventf(ctx, 2, "index %s: wrote %d entries, deleted %d",
		e.spec.Index, entries.puts, entries.deletes)
	return nil
}

// lookup scans the entries of (column, value) in index and fetches the
// rows they point to from base.
func (e *engine) lookup(
	ctx context.Context, base, index kv.Table, column string, value []byte,
) ([]kv.Row, error) {
	if !e.spec.indexed(column) {
		return nil, errors.Wrapf(ErrColumnNotIndexed, "column %q of %q", column, e.spec.Base)
	}
	entries, err := kv.ScanAll(ctx, index, kv.ScanRequest{
		Prefix:  catalogkeys.IndexKeyPrefix(column, value),
		Columns: []kv.Column{{Family: catalogkeys.IndexFamily, Qualifier: catalogkeys.IndexQualifier}},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning index %q", e.spec.Index)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	keys := make([][]byte, 0, len(entries))
	for _, ent := range entries {
		if row, ok := ent.Value(catalogkeys.IndexFamily, catalogkeys.IndexQualifier); ok {
			keys = append(keys, row)
		}
	}
	rows, err := base.Get(ctx, keys...)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", e.spec.Base)
	}
	// An entry may outlive its row when a best-effort write failed halfway.
	// Only rows still holding the value are returned.
	live := rows[:0]
	for _, r := range rows {
		if v, ok := r.Value(catalogkeys.Family, column); ok && bytes.Equal(v, value) {
			live = append(live, r)
		}
	}
	if stale := len(keys) - len(live); stale > 0 && e.staleEvery.ShouldLog() {
		log.Warningf(ctx, "index %q: skipped %d stale entries for column %q",
			e.spec.Index, stale, column)
	}
	return live, nil
}

type indexWrites struct {
	muts    []kv.Mutation
	puts    int
	deletes int
}

// plan reads the current values of the indexed columns of every row the
// mutations touch and derives the index mutations that turn the entries of
// the old values into those of the new ones. Entries of values that did not
// change are rewritten, which keeps the write idempotent.
func (e *engine) plan(ctx context.Context, base kv.Reader, muts []kv.Mutation) (indexWrites, error) {
	var w indexWrites
	if e.spec.Index == "" || len(e.spec.Columns) == 0 {
		return w, nil
	}

	var order []string
	touched := make(map[string]map[string]bool)
	for _, m := range muts {
		row := string(m.Row)
		if _, ok := touched[row]; !ok {
			order = append(order, row)
			touched[row] = make(map[string]bool)
		}
		for _, c := range m.Puts {
			if c.Family == catalogkeys.Family && e.spec.indexed(c.Qualifier) {
				touched[row][c.Qualifier] = true
			}
		}
	}
	if len(order) == 0 {
		return w, nil
	}

	keys := make([][]byte, len(order))
	for i, r := range order {
		keys[i] = []byte(r)
	}
	current, err := base.Get(ctx, keys...)
	if err != nil {
		return w, errors.Wrapf(err, "reading current rows of %q", e.spec.Base)
	}
	old := make(map[string]map[string][]byte, len(current))
	for _, r := range current {
		old[string(r.Key)] = e.indexedValues(r.Cells)
	}
	next := make(map[string]map[string][]byte, len(order))
	for _, r := range order {
		next[r] = copyValues(old[r])
	}
	for _, m := range muts {
		vals := next[string(m.Row)]
		if m.DeleteRow {
			for c := range vals {
				delete(vals, c)
			}
		}
		for _, c := range m.DeleteColumns {
			if c.Family == catalogkeys.Family {
				delete(vals, c.Qualifier)
			}
		}
		for _, c := range m.Puts {
			if c.Family == catalogkeys.Family && e.spec.indexed(c.Qualifier) {
				vals[c.Qualifier] = c.Value
			}
		}
	}

	for _, r := range order {
		row := []byte(r)
		for _, col := range e.spec.Columns {
			oldVal, hadOld := old[r][col]
			newVal, hasNew := next[r][col]
			if hadOld && (!hasNew || !bytes.Equal(oldVal, newVal)) {
				w.muts = append(w.muts, kv.Delete(catalogkeys.IndexKey(col, oldVal, row)))
				w.deletes++
			}
			if hasNew && (touched[r][col] || !hadOld || !bytes.Equal(oldVal, newVal)) {
				w.muts = append(w.muts, Entry(col, newVal, row))
				w.puts++
			}
		}
	}
	return w, nil
}

func (e *engine) indexedValues(cells []kv.Cell) map[string][]byte {
	vals := make(map[string][]byte)
	for _, c := range cells {
		if c.Family == catalogkeys.Family && e.spec.indexed(c.Qualifier) {
			vals[c.Qualifier] = c.Value
		}
	}
	return vals
}

func copyValues(m map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Entry returns the mutation writing the index entry of (column, value) for
// the base row.
func Entry(column string, value, row []byte) kv.Mutation {
	return kv.Put(catalogkeys.IndexKey(column, value, row), kv.Cell{
		Family:    catalogkeys.IndexFamily,
		Qualifier: catalogkeys.IndexQualifier,
		Value:     row,
	})
}
