// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/google/uuid"
)

// Txn is a transaction spanning any number of tables. Reads through a
// transaction's tables see the transaction's own writes; none of the writes
// are visible to others until Commit returns successfully.
type Txn interface {
	// ID identifies the transaction in logs.
	ID() uuid.UUID
	// Table returns a handle on the named table bound to the transaction.
	Table(name string) Table
	// Commit makes the transaction's writes visible atomically.
	Commit(ctx context.Context) error
	// Abort discards the transaction's writes. Aborting a finalized
	// transaction is a no-op.
	Abort(ctx context.Context) error
}

// RunTxn runs fn inside a new transaction. The transaction is committed if fn
// returns nil and aborted otherwise. If the abort fails as well, the abort
// error is attached to the returned error as a secondary error so that the
// error that triggered it is not lost. A panic in fn aborts the transaction
// before it propagates. No retries are performed.
func RunTxn(ctx context.Context, c Coordinator, fn func(context.Context, Txn) error) (err error) {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "txn exec")
	}
	txn, err := c.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warningf(ctx, "aborting transaction %s after panic: %v", txn.ID(), r)
			if abortErr := txn.Abort(ctx); abortErr != nil {
				log.Warningf(ctx, "failed to abort transaction %s: %v", txn.ID(), abortErr)
			}
			panic(r)
		}
		if err == nil {
			return
		}
		log.VEventf(ctx, 2, "rolling back transaction %s: %v", txn.ID(), err)
		if abortErr := txn.Abort(ctx); abortErr != nil {
			log.Warningf(ctx, "failed to abort transaction %s: %v", txn.ID(), abortErr)
			err = errors.WithSecondaryError(err, abortErr)
		}
	}()

	if err = fn(ctx, txn); err != nil {
		return err
	}
	if err = txn.Commit(ctx); err != nil {
		return errors.Wrapf(err, "committing transaction %s", txn.ID())
	}
	log.VEventf(ctx, 2, "committed transaction %s", txn.ID())
	return nil
}
