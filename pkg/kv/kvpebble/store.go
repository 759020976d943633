// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kvpebble implements the kv interfaces on top of an embedded pebble
// engine. Tables are key prefixes of one engine; a table must be disabled
// before it can be deleted, like on HBase. Transactions are backed by
// indexed batches and are serialized.
package kvpebble

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/util/encoding"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/kvsql/pkg/util/syncutil"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"golang.org/x/sync/semaphore"
)

// Store is a kv.Store and kv.Coordinator backed by pebble.
type Store struct {
	db *pebble.DB

	// adminMu serializes table-level operations.
	adminMu syncutil.Mutex
	// txnSem admits one transaction at a time.
	txnSem *semaphore.Weighted
}

var _ kv.Store = (*Store)(nil)
var _ kv.Coordinator = (*Store)(nil)

// Open opens the store persisted in dir. An empty dir opens a store that
// lives in memory only.
func Open(ctx context.Context, dir string) (*Store, error) {
	opts := &pebble.Options{Logger: pebbleLogger{ctx: ctx}}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening pebble store in %q", dir)
	}
	log.VEventf(ctx, 1, "opened pebble store (dir=%q)", dir)
	return &Store{db: db, txnSem: semaphore.NewWeighted(1)}, nil
}

// Admin implements kv.Store.
func (s *Store) Admin() kv.Admin {
	return (*admin)(s)
}

// Table implements kv.Store.
func (s *Store) Table(name string) kv.Table {
	return &table{name: name, prefix: tablePrefix(name), store: s}
}

// Close implements kv.Store.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "closing pebble store")
}

// pebbleLogger routes pebble's logging through the log package.
type pebbleLogger struct {
	ctx context.Context
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	log.VEventf(l.ctx, 2, format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...interface{}) {
	log.Errorf(l.ctx, format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(l.ctx, format, args...)
}

// reader is implemented by *pebble.DB and indexed *pebble.Batch.
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

// tableMeta is the metadata stored under a table's meta key.
type tableMeta struct {
	enabled  bool
	families []string
}

func (m tableMeta) encode() []byte {
	var buf bytes.Buffer
	if m.enabled {
		buf.WriteByte('e')
	} else {
		buf.WriteByte('d')
	}
	buf.WriteString(strings.Join(m.families, "\x00"))
	return buf.Bytes()
}

func decodeTableMeta(b []byte) (tableMeta, error) {
	if len(b) == 0 || (b[0] != 'e' && b[0] != 'd') {
		return tableMeta{}, errors.AssertionFailedf("invalid table metadata %q", b)
	}
	m := tableMeta{enabled: b[0] == 'e'}
	if len(b) > 1 {
		m.families = strings.Split(string(b[1:]), "\x00")
	}
	return m, nil
}

func (m tableMeta) hasFamily(family string) bool {
	for _, f := range m.families {
		if f == family {
			return true
		}
	}
	return false
}

func loadMeta(r reader, name string) (tableMeta, bool, error) {
	v, closer, err := r.Get(metaKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return tableMeta{}, false, nil
	} else if err != nil {
		return tableMeta{}, false, errors.Wrapf(err, "reading metadata of table %q", name)
	}
	defer closer.Close()
	m, err := decodeTableMeta(v)
	return m, err == nil, err
}

// checkTable returns the metadata of an enabled table, or an error if the
// table is missing or disabled.
func checkTable(r reader, name string) (tableMeta, error) {
	m, ok, err := loadMeta(r, name)
	if err != nil {
		return tableMeta{}, err
	}
	if !ok {
		return tableMeta{}, errors.Wrapf(kv.ErrTableNotFound, "%q", name)
	}
	if !m.enabled {
		return tableMeta{}, errors.Wrapf(kv.ErrTableDisabled, "%q", name)
	}
	return m, nil
}

type admin Store

var _ kv.Admin = (*admin)(nil)

// CreateTable implements kv.Admin.
func (a *admin) CreateTable(ctx context.Context, name string, families ...string) error {
	if name == "" {
		return errors.New("table name must not be empty")
	}
	if len(families) == 0 {
		return errors.Newf("table %q needs at least one column family", name)
	}
	a.adminMu.Lock()
	defer a.adminMu.Unlock()
	_, ok, err := loadMeta(a.db, name)
	if err != nil {
		return err
	}
	if ok {
		return errors.Wrapf(kv.ErrTableExists, "%q", name)
	}
	m := tableMeta{enabled: true, families: families}
	if err := a.db.Set(metaKey(name), m.encode(), pebble.Sync); err != nil {
		return errors.Wrapf(err, "creating table %q", name)
	}
	log.VEventf(ctx, 1, "created table %q with families %v", name, families)
	return nil
}

// TableExists implements kv.Admin.
func (a *admin) TableExists(_ context.Context, name string) (bool, error) {
	_, ok, err := loadMeta(a.db, name)
	return ok, err
}

// DisableTable implements kv.Admin.
func (a *admin) DisableTable(ctx context.Context, name string) error {
	a.adminMu.Lock()
	defer a.adminMu.Unlock()
	m, ok, err := loadMeta(a.db, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(kv.ErrTableNotFound, "%q", name)
	}
	m.enabled = false
	if err := a.db.Set(metaKey(name), m.encode(), pebble.Sync); err != nil {
		return errors.Wrapf(err, "disabling table %q", name)
	}
	log.VEventf(ctx, 1, "disabled table %q", name)
	return nil
}

// DeleteTable implements kv.Admin.
func (a *admin) DeleteTable(ctx context.Context, name string) error {
	a.adminMu.Lock()
	defer a.adminMu.Unlock()
	m, ok, err := loadMeta(a.db, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(kv.ErrTableNotFound, "%q", name)
	}
	if m.enabled {
		return errors.Wrapf(kv.ErrTableEnabled, "%q", name)
	}
	prefix := tablePrefix(name)
	b := a.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(prefix, encoding.PrefixEnd(prefix), nil); err != nil {
		return err
	}
	if err := b.Delete(metaKey(name), nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrapf(err, "deleting table %q", name)
	}
	log.VEventf(ctx, 1, "deleted table %q", name)
	return nil
}

// ListTables implements kv.Admin.
func (a *admin) ListTables(_ context.Context) ([]string, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: metaPrefix,
		UpperBound: encoding.PrefixEnd(metaPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var names []string
	for valid := iter.First(); valid; valid = iter.Next() {
		name, err := decodeMetaKey(iter.Key())
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, iter.Error()
}
