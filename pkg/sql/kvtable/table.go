// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kvtable exposes a table of the store to the SQL engine. A Table
// scans rows as tree.Datums, pushing filters and projections down to the
// store as far as its Capabilities allow, and writes rows through the
// secondary index engine when the table is indexed or transactional.
package kvtable

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvconn"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/secondaryindex"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/kvsql/pkg/util/metric"
	"github.com/cockroachdb/kvsql/pkg/util/syncutil"
	"github.com/prometheus/client_golang/prometheus"
)

// Capabilities select the work a table pushes down to the store.
type Capabilities struct {
	FilterPushdown  bool
	ProjectPushdown bool
}

// CapabilitiesOf maps a table flavor to its capabilities.
func CapabilitiesOf(f kvconn.Flavor) Capabilities {
	switch f {
	case kvconn.Filter:
		return Capabilities{FilterPushdown: true}
	case kvconn.FilterProject:
		return Capabilities{FilterPushdown: true, ProjectPushdown: true}
	default:
		return Capabilities{}
	}
}

var (
	metaRowsScanned = metric.Metadata{
		Name: "table_rows_scanned_total",
		Help: "Number of rows returned by table scans",
	}
	metaRowsWritten = metric.Metadata{
		Name: "table_rows_written_total",
		Help: "Number of rows inserted or overwritten",
	}
	metaRowsDeleted = metric.Metadata{
		Name: "table_rows_deleted_total",
		Help: "Number of row deletions issued",
	}
	metaFiltersPushed = metric.Metadata{
		Name: "table_scans_filter_pushed_total",
		Help: "Number of scans that pushed a filter to the store",
	}
)

// Metrics are the per-table counters shared by the tables of a connection.
type Metrics struct {
	RowsScanned   *prometheus.CounterVec
	RowsWritten   *prometheus.CounterVec
	RowsDeleted   *prometheus.CounterVec
	FiltersPushed *prometheus.CounterVec
}

// NewMetrics creates the table metrics, labeled by table name.
func NewMetrics() *Metrics {
	return &Metrics{
		RowsScanned:   metric.NewCounterVec(metaRowsScanned, "table"),
		RowsWritten:   metric.NewCounterVec(metaRowsWritten, "table"),
		RowsDeleted:   metric.NewCounterVec(metaRowsDeleted, "table"),
		FiltersPushed: metric.NewCounterVec(metaFiltersPushed, "table"),
	}
}

// Config holds the dependencies of a Table.
type Config struct {
	Store kv.Store
	// Coordinator is nil when the store has no transactions. Transactional
	// tables can then be scanned but not written.
	Coordinator  kv.Coordinator
	Capabilities Capabilities
	Metrics      *Metrics
	IndexMetrics *secondaryindex.Metrics
	IndexKnobs   *secondaryindex.TestingKnobs
	// Catalog, if set, is read before every write and index lookup so that
	// a long-lived handle follows index changes made after it was built.
	Catalog *catalog.Catalog
}

// Table is a handle on one SQL table.
type Table struct {
	name string
	cols []catalog.ColumnDescriptor
	pk   int
	caps Capabilities
	cfg  Config

	mu struct {
		syncutil.RWMutex
		desc catalog.TableDescriptor
		// index is nil for plain tables; writes then go to the store directly.
		index    secondaryindex.Engine
		indexErr error
	}

	rowsScanned, rowsWritten, rowsDeleted, filtersPushed prometheus.Counter
}

// New returns a handle on the table described by desc, whose columns cols
// are sorted by ordinal.
func New(cfg Config, desc catalog.TableDescriptor, cols []catalog.ColumnDescriptor) (*Table, error) {
	pk := -1
	for i, c := range cols {
		if c.IsPrimary {
			pk = i
			break
		}
	}
	if pk < 0 {
		return nil, errors.AssertionFailedf("table %q has no primary key column", desc.Name)
	}
	m := cfg.Metrics
	if m == nil {
		m = NewMetrics()
	}
	t := &Table{
		name:          desc.Name,
		cols:          cols,
		pk:            pk,
		caps:          cfg.Capabilities,
		cfg:           cfg,
		rowsScanned:   m.RowsScanned.WithLabelValues(desc.Name),
		rowsWritten:   m.RowsWritten.WithLabelValues(desc.Name),
		rowsDeleted:   m.RowsDeleted.WithLabelValues(desc.Name),
		filtersPushed: m.FiltersPushed.WithLabelValues(desc.Name),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIndexLocked(desc)
	return t, nil
}

// resetIndexLocked points the handle at desc and builds the index engine
// its writes go through.
func (t *Table) resetIndexLocked(desc catalog.TableDescriptor) {
	t.mu.AssertHeld()
	if t.mu.index != nil {
		t.mu.index.Close()
	}
	t.mu.desc = desc
	t.mu.index, t.mu.indexErr = nil, nil
	spec := secondaryindex.Spec{Base: desc.Name}
	if desc.Indexed() {
		spec.Index = desc.IndexTable()
		spec.Columns = desc.IndexedColumns
	}
	switch {
	case desc.IsTransactional && t.cfg.Coordinator == nil:
		t.mu.indexErr = errors.Wrapf(kv.ErrTxnUnsupported, "writing transactional table %q", desc.Name)
	case desc.IsTransactional:
		t.mu.index = secondaryindex.NewTransactional(t.cfg.Coordinator, spec, t.cfg.IndexMetrics, t.cfg.IndexKnobs)
	case desc.Indexed():
		t.mu.index = secondaryindex.NewBestEffort(t.cfg.Store, spec, t.cfg.IndexMetrics, t.cfg.IndexKnobs)
	}
}

func sameIndex(a, b catalog.TableDescriptor) bool {
	if a.IndexType != b.IndexType || a.IndexName != b.IndexName ||
		len(a.IndexedColumns) != len(b.IndexedColumns) {
		return false
	}
	for i := range a.IndexedColumns {
		if a.IndexedColumns[i] != b.IndexedColumns[i] {
			return false
		}
	}
	return true
}

// refresh re-reads the catalog entry of the table and rebuilds the index
// engine if the index changed since the handle last looked. Writers pass
// forWrite and are refused while an index build holds the table locked,
// since their rows could miss the backfill and the engine both.
func (t *Table) refresh(ctx context.Context, forWrite bool) error {
	if t.cfg.Catalog == nil {
		return nil
	}
	desc, err := t.cfg.Catalog.ReadTable(ctx, t.name)
	if err != nil {
		return errors.Wrapf(err, "reading catalog entry of %q", t.name)
	}
	if forWrite && desc.LockStatus == catalog.Locked {
		return errors.WithHintf(errors.Wrapf(catalog.ErrTableLocked, "writing %q", t.name),
			"an index of %q is being built; retry once it finishes", t.name)
	}
	t.mu.RLock()
	same := sameIndex(t.mu.desc, desc)
	t.mu.RUnlock()
	if same {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !sameIndex(t.mu.desc, desc) {
		log.Infof(ctx, "index of %q changed from %q to %q; rebuilding handle",
			t.name, t.mu.desc.IndexName, desc.IndexName)
		t.resetIndexLocked(desc)
	}
	return nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Descriptor returns the catalog entry the handle last read.
func (t *Table) Descriptor() catalog.TableDescriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mu.desc
}

// Columns returns the column descriptors sorted by ordinal.
func (t *Table) Columns() []catalog.ColumnDescriptor { return t.cols }

// Capabilities returns what the table pushes down.
func (t *Table) Capabilities() Capabilities { return t.caps }

// Close releases the index engine. The handle must not be used afterwards.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mu.index != nil {
		t.mu.index.Close()
		t.mu.index = nil
	}
}

func (t *Table) base() kv.Table {
	return t.cfg.Store.Table(t.name)
}

// rowMarker is the column written with every row.
var rowMarker = kv.Column{Family: catalogkeys.Family, Qualifier: catalogkeys.RowMarkerQualifier}
