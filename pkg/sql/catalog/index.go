// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/secondaryindex"
	"github.com/cockroachdb/kvsql/pkg/util/log"
)

// setLockStatus writes the lock status of a table in one row write with the
// given index cells.
func (c *Catalog) setLockStatus(
	ctx context.Context, table string, s LockStatus, index ...kv.Cell,
) error {
	m := kv.Put([]byte(table), cell(catalogkeys.LockStatusQualifier, []byte(s.String())))
	m.Puts = append(m.Puts, index...)
	return errors.Wrapf(c.tables().Apply(ctx, m), "setting lock status of %q to %s", table, s)
}

// errLocked reports a table locked by the build of another index.
func errLocked(desc TableDescriptor) error {
	err := errors.Wrapf(ErrTableLocked, "%q", desc.Name)
	if pending := desc.PendingIndex(); pending != "" {
		return errors.WithHintf(err,
			"index %q is being built; if that build was interrupted, drop index %q to unlock the table",
			pending, pending)
	}
	return err
}

func (c *Catalog) validateIndexColumns(
	ctx context.Context, desc TableDescriptor, keyColumns []string, ascending []bool,
) error {
	if len(keyColumns) == 0 {
		return errors.Wrapf(ErrInvalidDefinition, "index on %q has no key columns", desc.Name)
	}
	if len(ascending) != 0 && len(ascending) != len(keyColumns) {
		return errors.Wrapf(ErrInvalidDefinition,
			"index on %q has %d key columns and %d directions", desc.Name, len(keyColumns), len(ascending))
	}
	for i, asc := range ascending {
		if !asc {
			return pgerror.Newf(pgcode.FeatureNotSupported,
				"descending index column %q is not supported", keyColumns[i])
		}
	}
	cols, err := c.ResolveColumns(ctx, desc.Name)
	if err != nil {
		return err
	}
	byName := make(map[string]ColumnDescriptor, len(cols))
	for _, col := range cols {
		byName[col.Name] = col
	}
	seen := make(map[string]bool, len(keyColumns))
	for _, k := range keyColumns {
		col, ok := byName[k]
		switch {
		case !ok:
			return errors.Wrapf(ErrColumnNotFound, "column %q of %q", k, desc.Name)
		case col.IsPrimary:
			return errors.Wrapf(ErrInvalidDefinition,
				"primary key column %q of %q cannot be indexed", k, desc.Name)
		case seen[k]:
			return errors.Wrapf(ErrInvalidDefinition, "column %q is indexed twice", k)
		}
		seen[k] = true
	}
	return nil
}

// CreateIndex builds a secondary index over keyColumns of a table. ascending
// may be nil; descending columns are not supported. A table has at most one
// index.
//
// The table is LOCKED, with the name of the index recorded, while the index
// table is created and back-filled from a full scan of the base table. On
// failure the index table is dropped and the table unlocked again. If the
// process died during an earlier build of the same index, the build starts
// over.
func (c *Catalog) CreateIndex(
	ctx context.Context,
	indexName string,
	indexType IndexType,
	table string,
	keyColumns []string,
	ascending []bool,
) (retErr error) {
	if indexType != IndexKeyValue {
		return pgerror.Newf(pgcode.FeatureNotSupported, "index type %s is not supported", indexType)
	}
	if indexName == "" {
		return errors.Wrapf(ErrInvalidDefinition, "index on %q has no name", table)
	}
	c.ddlMu.Lock()
	defer c.ddlMu.Unlock()
	desc, err := c.ReadTable(ctx, table)
	if err != nil {
		return err
	}
	if desc.Indexed() {
		return errors.Wrapf(ErrIndexExists, "table %q already has index %q", table, desc.IndexName)
	}
	indexTable := catalogkeys.IndexTableName(table, indexType.String(), indexName)
	if desc.LockStatus == Locked {
		if desc.PendingIndex() != indexName {
			return errLocked(desc)
		}
		log.Infof(ctx, "restarting interrupted build of index %q on %q", indexName, table)
		if err := c.dropPhysical(ctx, indexTable); err != nil {
			return err
		}
	} else {
		exists, err := c.store.Admin().TableExists(ctx, indexTable)
		if err != nil {
			return errors.Wrapf(err, "checking table %q", indexTable)
		}
		if exists {
			return errors.Wrapf(ErrIndexExists, "%q on %q", indexName, table)
		}
	}
	if err := c.validateIndexColumns(ctx, desc, keyColumns, ascending); err != nil {
		return err
	}

	if err := c.setLockStatus(ctx, table, Locked,
		cell(catalogkeys.IndexNameQualifier, []byte(indexName))); err != nil {
		return err
	}
	created := false
	defer func() {
		if retErr == nil {
			return
		}
		if created {
			if err := c.dropPhysical(ctx, indexTable); err != nil {
				retErr = errors.WithSecondaryError(retErr, err)
			}
		}
		if err := c.setLockStatus(ctx, table, Unlocked, clearedIndex(desc).indexCells()...); err != nil {
			retErr = errors.WithSecondaryError(retErr, err)
		}
	}()

	if err := c.store.Admin().CreateTable(ctx, indexTable, catalogkeys.IndexFamily); err != nil {
		if errors.Is(err, kv.ErrTableExists) {
			err = errors.Mark(err, ErrIndexExists)
		}
		return errors.Wrapf(err, "creating index table %q", indexTable)
	}
	created = true
	if fn := c.knobs.BeforeIndexBackfill; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	n, err := secondaryindex.Backfill(ctx, c.store.Table(table), c.store.Table(indexTable), keyColumns)
	if err != nil {
		return errors.Wrapf(err, "back-filling index %q", indexName)
	}

	desc.IndexType = indexType
	desc.IndexedColumns = keyColumns
	desc.IndexName = indexName
	if err := c.setLockStatus(ctx, table, Unlocked, desc.indexCells()...); err != nil {
		return errors.Wrapf(err, "recording index %q of %q", indexName, table)
	}
	log.Infof(ctx, "created index %q on %q%v with %d entries", indexName, table, keyColumns, n)
	return nil
}

// DropIndex removes the secondary index of a table. On a table left LOCKED
// by an interrupted build of the index, it drops what the build created and
// unlocks the table.
func (c *Catalog) DropIndex(
	ctx context.Context, table string, indexName string, indexType IndexType,
) error {
	c.ddlMu.Lock()
	defer c.ddlMu.Unlock()
	desc, err := c.ReadTable(ctx, table)
	if err != nil {
		return err
	}
	indexTable := catalogkeys.IndexTableName(table, indexType.String(), indexName)
	if desc.LockStatus == Locked {
		if pending := desc.PendingIndex(); pending != "" && pending != indexName {
			return errLocked(desc)
		}
		if err := c.dropPhysical(ctx, indexTable); err != nil {
			return err
		}
		if err := c.setLockStatus(ctx, table, Unlocked, clearedIndex(desc).indexCells()...); err != nil {
			return err
		}
		log.Infof(ctx, "dropped interrupted index %q on %q", indexName, table)
		return nil
	}
	exists, err := c.store.Admin().TableExists(ctx, indexTable)
	if err != nil {
		return errors.Wrapf(err, "checking table %q", indexTable)
	}
	if !exists {
		return errors.Wrapf(ErrIndexNotFound, "%q on %q", indexName, table)
	}
	if desc.IndexName == indexName {
		desc = clearedIndex(desc)
		if err := c.tables().Apply(ctx, kv.Put([]byte(table), desc.indexCells()...)); err != nil {
			return errors.Wrapf(err, "clearing index of %q", table)
		}
	}
	if err := c.dropPhysical(ctx, indexTable); err != nil {
		return err
	}
	log.Infof(ctx, "dropped index %q on %q", indexName, table)
	return nil
}

func clearedIndex(desc TableDescriptor) TableDescriptor {
	desc.IndexType = IndexNone
	desc.IndexedColumns = nil
	desc.IndexName = ""
	return desc
}
