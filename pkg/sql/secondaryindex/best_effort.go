// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package secondaryindex

import (
	"context"

	"github.com/cockroachdb/kvsql/pkg/kv"
)

type bestEffort struct {
	*engine
	store kv.Store
}

var _ Engine = (*bestEffort)(nil)

// NewBestEffort returns an engine writing the base table first and the index
// second, without atomicity across the two. metrics and knobs may be nil.
func NewBestEffort(store kv.Store, spec Spec, metrics *Metrics, knobs *TestingKnobs) Engine {
	return &bestEffort{engine: newEngine(spec, metrics, knobs), store: store}
}

func (b *bestEffort) index() kv.Table {
	if b.spec.Index == "" {
		return nil
	}
	return b.store.Table(b.spec.Index)
}

// Put implements Engine.
func (b *bestEffort) Put(ctx context.Context, muts ...kv.Mutation) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if len(muts) == 0 {
		return nil
	}
	return b.write(ctx, b.store.Table(b.spec.Base), b.index(), muts)
}

// Delete implements Engine.
func (b *bestEffort) Delete(ctx context.Context, rows ...[]byte) error {
	return b.Put(ctx, deletions(rows)...)
}

// GetByIndex implements Engine.
func (b *bestEffort) GetByIndex(ctx context.Context, column string, value []byte) ([]kv.Row, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	return b.lookup(ctx, b.store.Table(b.spec.Base), b.index(), column, value)
}
