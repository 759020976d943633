// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package schema resolves table names to table handles for the SQL engine.
//
// The Registry keeps one connection-wide map of handles, refreshed whenever
// DDL issued through it changes a table, and one map per statement so that
// every lookup within a statement sees the same handle. Statement maps are
// dropped by ReleaseStatement or, past Options.MaxStatements, evicted least
// recently used first.
package schema

import (
	"container/list"
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/base"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvconn"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/cockroachdb/kvsql/pkg/sql/kvtable"
	"github.com/cockroachdb/kvsql/pkg/sql/secondaryindex"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/kvsql/pkg/util/metric"
	"github.com/cockroachdb/kvsql/pkg/util/syncutil"
	"github.com/cockroachdb/logtags"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Options configure a Registry.
type Options struct {
	// MaxStatements bounds the statement maps kept at once. Zero means
	// base.DefaultMaxStatements.
	MaxStatements int
	// Metrics, when set, receives the table, index and registry metrics.
	Metrics *metric.Registry

	CatalogKnobs *catalog.TestingKnobs
	IndexKnobs   *secondaryindex.TestingKnobs
}

var (
	metaCacheHits = metric.Metadata{
		Name: "schema_table_cache_hits_total",
		Help: "Number of table lookups served from the connection-wide map",
	}
	metaCacheMisses = metric.Metadata{
		Name: "schema_table_cache_misses_total",
		Help: "Number of table lookups that read the catalog",
	}
	metaStatementsEvicted = metric.Metadata{
		Name: "schema_statements_evicted_total",
		Help: "Number of statement table maps evicted before being released",
	}
)

// Metrics are the registry counters.
type Metrics struct {
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	StatementsEvicted prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheHits:         metric.NewCounter(metaCacheHits),
		CacheMisses:       metric.NewCounter(metaCacheMisses),
		StatementsEvicted: metric.NewCounter(metaStatementsEvicted),
	}
}

// Registry maps table names to handles.
type Registry struct {
	catalog *catalog.Catalog
	cfg     kvtable.Config
	max     int
	metrics *Metrics

	group singleflight.Group

	mu struct {
		syncutil.Mutex
		tables map[string]*kvtable.Table
		// generation is bumped by every invalidation. A lookup only caches
		// its result if no invalidation happened while it read the catalog.
		generation int64
		statements map[uuid.UUID]*list.Element
		// lru orders *Statement values, most recently used first.
		lru *list.List
	}
}

// New returns a registry over an initialized connection.
func New(conn *kvconn.Connection, opts Options) (*Registry, error) {
	store, err := conn.Store()
	if err != nil {
		return nil, err
	}
	coord, err := conn.Coordinator()
	if err != nil && !errors.Is(err, kv.ErrTxnUnsupported) {
		return nil, err
	}
	if opts.MaxStatements < 0 {
		return nil, errors.Newf("max statements must not be negative, got %d", opts.MaxStatements)
	}
	if opts.MaxStatements == 0 {
		opts.MaxStatements = base.DefaultMaxStatements
	}
	cat := catalog.New(store, opts.CatalogKnobs)
	r := &Registry{
		catalog: cat,
		cfg: kvtable.Config{
			Catalog:      cat,
			Store:        store,
			Coordinator:  coord,
			Capabilities: kvtable.CapabilitiesOf(conn.Flavor()),
			Metrics:      kvtable.NewMetrics(),
			IndexMetrics: secondaryindex.NewMetrics(),
			IndexKnobs:   opts.IndexKnobs,
		},
		max:     opts.MaxStatements,
		metrics: newMetrics(),
	}
	if opts.Metrics != nil {
		opts.Metrics.AddMetricStruct(r.cfg.Metrics)
		opts.Metrics.AddMetricStruct(r.cfg.IndexMetrics)
		opts.Metrics.AddMetricStruct(r.metrics)
	}
	r.mu.tables = make(map[string]*kvtable.Table)
	r.mu.statements = make(map[uuid.UUID]*list.Element)
	r.mu.lru = list.New()
	return r, nil
}

// Catalog returns the catalog the registry reads.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// Metrics returns the registry counters.
func (r *Registry) Metrics() *Metrics { return r.metrics }

func (r *Registry) invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.generation++
	delete(r.mu.tables, name)
}

// CreateTable creates a table and returns its handle.
func (r *Registry) CreateTable(
	ctx context.Context,
	name string,
	cols []catalog.ColumnDef,
	primaryKey []string,
	isTransactional bool,
) (*kvtable.Table, error) {
	_, err := r.catalog.CreateTable(ctx, name, cols, primaryKey, isTransactional)
	r.invalidate(name)
	if err != nil {
		return nil, err
	}
	return r.Table(ctx, name)
}

// DropTable drops a table, its index and its catalog entries.
func (r *Registry) DropTable(ctx context.Context, name string) error {
	defer r.invalidate(name)
	return r.catalog.DropTable(ctx, name)
}

// CreateIndex builds a secondary index. Later lookups of the table return
// a handle that maintains it.
func (r *Registry) CreateIndex(
	ctx context.Context,
	indexName string,
	indexType catalog.IndexType,
	table string,
	keyColumns []string,
	ascending []bool,
) error {
	defer r.invalidate(table)
	return r.catalog.CreateIndex(ctx, indexName, indexType, table, keyColumns, ascending)
}

// DropIndex removes the secondary index of a table.
func (r *Registry) DropIndex(
	ctx context.Context, table string, indexName string, indexType catalog.IndexType,
) error {
	defer r.invalidate(table)
	return r.catalog.DropIndex(ctx, table, indexName, indexType)
}

// Table returns the connection-wide handle of a table. Concurrent first
// lookups of a name read the catalog once.
func (r *Registry) Table(ctx context.Context, name string) (*kvtable.Table, error) {
	r.mu.Lock()
	t, ok := r.mu.tables[name]
	gen := r.mu.generation
	r.mu.Unlock()
	if ok {
		r.metrics.CacheHits.Inc()
		return t, nil
	}
	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		r.metrics.CacheMisses.Inc()
		t, err := r.load(ctx, name)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.mu.tables[name]; ok {
			return cur, nil
		}
		if r.mu.generation == gen {
			r.mu.tables[name] = t
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*kvtable.Table), nil
}

func (r *Registry) load(ctx context.Context, name string) (*kvtable.Table, error) {
	ctx = logtags.AddTag(ctx, "table", name)
	desc, err := r.catalog.ReadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	cols, err := r.catalog.ResolveColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	t, err := kvtable.New(r.cfg, desc, cols)
	if err != nil {
		return nil, err
	}
	log.VEventf(ctx, 2, "loaded table: transactional=%t index=%s", desc.IsTransactional, desc.IndexType)
	return t, nil
}

// Tables returns the handles of every user table, sorted by name. Catalog
// and index tables are not user tables.
func (r *Registry) Tables(ctx context.Context) ([]*kvtable.Table, error) {
	descs, err := r.catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	tables := make([]*kvtable.Table, 0, len(descs))
	for _, d := range descs {
		t, err := r.Table(ctx, d.Name)
		if errors.Is(err, catalog.ErrTableNotFound) {
			// Dropped since listed.
			continue
		}
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// StatementTables returns the table map of a statement, creating it on
// first use.
func (r *Registry) StatementTables(ctx context.Context, id uuid.UUID) *Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.mu.statements[id]; ok {
		r.mu.lru.MoveToFront(e)
		return e.Value.(*Statement)
	}
	s := &Statement{id: id, r: r}
	s.mu.tables = make(map[string]*kvtable.Table)
	r.mu.statements[id] = r.mu.lru.PushFront(s)
	for r.mu.lru.Len() > r.max {
		oldest := r.mu.lru.Back()
		evicted := r.mu.lru.Remove(oldest).(*Statement)
		delete(r.mu.statements, evicted.id)
		r.metrics.StatementsEvicted.Inc()
		log.VEventf(ctx, 2, "evicted tables of statement %s", evicted.id)
	}
	return s
}

// ReleaseStatement drops the table map of a finished statement.
func (r *Registry) ReleaseStatement(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.mu.statements[id]; ok {
		r.mu.lru.Remove(e)
		delete(r.mu.statements, id)
	}
}

// Close releases the cached handles. The connection stays open.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range r.mu.tables {
		t.Close()
		delete(r.mu.tables, name)
	}
	r.mu.statements = make(map[uuid.UUID]*list.Element)
	r.mu.lru.Init()
}

// Statement is the table map of one statement. Every lookup of a name
// through it returns the same handle, even if the table changes meanwhile.
// The handle still re-reads the catalog before writing, so its writes
// maintain an index created after it was pinned.
type Statement struct {
	id uuid.UUID
	r  *Registry
	mu struct {
		syncutil.Mutex
		tables map[string]*kvtable.Table
	}
}

// ID returns the statement id.
func (s *Statement) ID() uuid.UUID { return s.id }

// Table returns the handle of a table as first seen by the statement.
func (s *Statement) Table(ctx context.Context, name string) (*kvtable.Table, error) {
	s.mu.Lock()
	t, ok := s.mu.tables[name]
	s.mu.Unlock()
	if ok {
		return t, nil
	}
	t, err := s.r.Table(ctx, name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.mu.tables[name]; ok {
		return cur, nil
	}
	s.mu.tables[name] = t
	return t, nil
}
