// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kvconn owns the shared connection to the key-value store. A
// Connection is initialized once per lifecycle with Options, ensures the
// catalog tables exist, and hands out the store, its transaction
// coordinator, and the configured table flavor.
package kvconn

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/kv/kvhbase"
	"github.com/cockroachdb/kvsql/pkg/kv/kvpebble"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/kvsql/pkg/util/syncutil"
	"github.com/cockroachdb/logtags"
)

var (
	// ErrUninitialized is returned when using a connection before Init.
	ErrUninitialized = pgerror.New(pgcode.ObjectNotInPrerequisiteState,
		"store connection is not initialized")
	// ErrAlreadyInitialized is returned by Init on an initialized connection.
	ErrAlreadyInitialized = pgerror.New(pgcode.ObjectNotInPrerequisiteState,
		"store connection is already initialized")
)

// Connection is the process-wide handle on the store. The zero value is an
// uninitialized connection ready for Init.
type Connection struct {
	mu struct {
		syncutil.Mutex
		store  kv.Store
		coord  kv.Coordinator
		flavor Flavor
	}
}

// Init opens the store named by opts.QuorumAddress and creates the catalog
// tables if they are missing.
func (c *Connection) Init(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.store != nil {
		return ErrAlreadyInitialized
	}
	ctx = logtags.AddTag(ctx, "kvconn", nil)
	store, coord, err := open(ctx, opts.QuorumAddress)
	if err != nil {
		return err
	}
	if err := ensureSystemTables(ctx, store.Admin()); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.WithSecondaryError(err, closeErr)
		}
		return err
	}
	c.mu.store, c.mu.coord, c.mu.flavor = store, coord, opts.TableFlavor
	log.Infof(ctx, "connected to %s with table flavor %s", opts.QuorumAddress, opts.TableFlavor)
	return nil
}

func open(ctx context.Context, addr string) (kv.Store, kv.Coordinator, error) {
	switch {
	case addr == MemScheme:
		s, err := kvpebble.Open(ctx, "")
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case strings.HasPrefix(addr, PebbleScheme):
		s, err := kvpebble.Open(ctx, strings.TrimPrefix(addr, PebbleScheme))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return kvhbase.Open(ctx, addr), nil, nil
	}
}

func ensureSystemTables(ctx context.Context, admin kv.Admin) error {
	for _, name := range catalogkeys.SystemTables {
		exists, err := admin.TableExists(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "checking catalog table %q", name)
		}
		if exists {
			continue
		}
		// Another process may create the table concurrently.
		if err := admin.CreateTable(ctx, name, catalogkeys.Family); err != nil &&
			!errors.Is(err, kv.ErrTableExists) {
			return errors.Wrapf(err, "creating catalog table %q", name)
		}
		log.Infof(ctx, "created catalog table %q", name)
	}
	return nil
}

// Store returns the store, or ErrUninitialized.
func (c *Connection) Store() (kv.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.store == nil {
		return nil, ErrUninitialized
	}
	return c.mu.store, nil
}

// Coordinator returns the transaction coordinator of the store. Stores
// without transactions return kv.ErrTxnUnsupported.
func (c *Connection) Coordinator() (kv.Coordinator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.store == nil {
		return nil, ErrUninitialized
	}
	if c.mu.coord == nil {
		return nil, kv.ErrTxnUnsupported
	}
	return c.mu.coord, nil
}

// Flavor returns the configured table flavor, Scan when uninitialized.
func (c *Connection) Flavor() Flavor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.flavor
}

// Close releases the store. The connection can be initialized again
// afterwards. Closing an uninitialized connection is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.store == nil {
		return nil
	}
	err := c.mu.store.Close()
	c.mu.store, c.mu.coord, c.mu.flavor = nil, nil, Scan
	return errors.Wrap(err, "closing store connection")
}
