// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package secondaryindex

import (
	"context"

	"github.com/cockroachdb/kvsql/pkg/kv"
)

type transactional struct {
	*engine
	coord kv.Coordinator
}

var _ Engine = (*transactional)(nil)

// NewTransactional returns an engine running every operation in one
// transaction of coord: either the base rows and their index entries are
// all written, or none are. metrics and knobs may be nil.
func NewTransactional(
	coord kv.Coordinator, spec Spec, metrics *Metrics, knobs *TestingKnobs,
) Engine {
	return &transactional{engine: newEngine(spec, metrics, knobs), coord: coord}
}

func (t *transactional) tables(txn kv.Txn) (base, index kv.Table) {
	base = txn.Table(t.spec.Base)
	if t.spec.Index != "" {
		index = txn.Table(t.spec.Index)
	}
	return base, index
}

func (t *transactional) run(ctx context.Context, fn func(context.Context, kv.Txn) error) error {
	err := kv.RunTxn(ctx, t.coord, fn)
	if err != nil {
		t.metrics.TxnAborts.Inc()
		return err
	}
	t.metrics.TxnCommits.Inc()
	return nil
}

// Put implements Engine.
func (t *transactional) Put(ctx context.Context, muts ...kv.Mutation) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if len(muts) == 0 {
		return nil
	}
	return t.run(ctx, func(ctx context.Context, txn kv.Txn) error {
		base, index := t.tables(txn)
		return t.write(ctx, base, index, muts)
	})
}

// Delete implements Engine.
func (t *transactional) Delete(ctx context.Context, rows ...[]byte) error {
	return t.Put(ctx, deletions(rows)...)
}

// GetByIndex implements Engine. The index scan and the base multi-get see
// the same state.
func (t *transactional) GetByIndex(
	ctx context.Context, column string, value []byte,
) ([]kv.Row, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if !t.spec.indexed(column) {
		// Fail before opening a transaction.
		return t.lookup(ctx, nil, nil, column, value)
	}
	var rows []kv.Row
	err := t.run(ctx, func(ctx context.Context, txn kv.Txn) error {
		base, index := t.tables(txn)
		var err error
		rows, err = t.lookup(ctx, base, index, column, value)
		return err
	})
	return rows, err
}
