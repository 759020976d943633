// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpebble

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

// txn buffers its writes in an indexed batch, so that its own reads observe
// them, and applies them atomically on commit. Only one transaction runs at
// a time, which makes every transaction observe a single consistent view of
// the transactional tables. A txn is not safe for concurrent use.
type txn struct {
	id        uuid.UUID
	store     *Store
	batch     *pebble.Batch
	finalized bool
}

var _ kv.Txn = (*txn)(nil)

// Begin implements kv.Coordinator. It blocks until the running transaction,
// if any, finishes or ctx is canceled.
func (s *Store) Begin(ctx context.Context) (kv.Txn, error) {
	if err := s.txnSem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for running transaction")
	}
	t := &txn{
		id:    uuid.New(),
		store: s,
		batch: s.db.NewIndexedBatch(),
	}
	log.VEventf(logtags.AddTag(ctx, "txn", t.id.String()[:8]), 2, "began transaction")
	return t, nil
}

// ID implements kv.Txn.
func (t *txn) ID() uuid.UUID {
	return t.id
}

// Table implements kv.Txn.
func (t *txn) Table(name string) kv.Table {
	return &table{name: name, prefix: tablePrefix(name), store: t.store, txn: t}
}

// Commit implements kv.Txn.
func (t *txn) Commit(ctx context.Context) error {
	if t.finalized {
		return errors.Wrapf(kv.ErrTxnFinalized, "transaction %s", t.id)
	}
	defer t.finish()
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrapf(t.batch.Commit(pebble.Sync), "committing transaction %s", t.id)
}

// Abort implements kv.Txn.
func (t *txn) Abort(context.Context) error {
	if t.finalized {
		return nil
	}
	t.finish()
	return nil
}

func (t *txn) finish() {
	t.finalized = true
	_ = t.batch.Close()
	t.store.txnSem.Release(1)
}
