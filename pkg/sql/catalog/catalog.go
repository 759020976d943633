// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package catalog persists table and column metadata in two reserved tables
// of the store it describes. The table catalog holds one row per table, keyed
// by table name. The column catalog holds one row per column, keyed by
// "<table>.<column>" so that the columns of a table are found with a prefix
// scan.
//
// Catalog writes and physical table operations are not atomic with each
// other. Every operation is instead written so that it can be run again to
// completion after a partial failure.
package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog/catalogkeys"
	"github.com/cockroachdb/kvsql/pkg/sql/rowenc"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/kvsql/pkg/util/syncutil"
	"github.com/cockroachdb/kvsql/pkg/util/timeutil"
)

// ReservedColumnName cannot be used as a column name, in any case.
const ReservedColumnName = "id"

// TestingKnobs hooks into catalog operations.
type TestingKnobs struct {
	// AfterCatalogWrite runs in CreateTable after the catalog rows are
	// written and before the physical table is created.
	AfterCatalogWrite func() error
	// BeforeIndexBackfill runs in CreateIndex after the index table is
	// created.
	BeforeIndexBackfill func() error
}

// Catalog reads and writes the catalog tables of a store.
type Catalog struct {
	store kv.Store
	knobs TestingKnobs
	now   func() time.Time

	// ddlMu serializes the schema changes made through this Catalog, so a
	// LOCKED table seen under it was left by a crash or another process.
	ddlMu syncutil.Mutex
}

// New returns a Catalog over the store, whose catalog tables must exist.
// knobs may be nil.
func New(store kv.Store, knobs *TestingKnobs) *Catalog {
	c := &Catalog{store: store, now: timeutil.Now}
	if knobs != nil {
		c.knobs = *knobs
	}
	return c
}

func (c *Catalog) tables() kv.Table {
	return c.store.Table(catalogkeys.TableCatalog)
}

func (c *Catalog) columns() kv.Table {
	return c.store.Table(catalogkeys.ColumnCatalog)
}

func validateTableName(name string) error {
	switch {
	case name == "":
		return errors.Wrap(ErrInvalidDefinition, "empty table name")
	case strings.Contains(name, "."):
		return errors.Wrapf(ErrInvalidDefinition, "table name %q must not contain '.'", name)
	case catalogkeys.IsSystemTable(name):
		return errors.Wrapf(ErrInvalidDefinition, "table name %q is reserved", name)
	}
	return nil
}

// validateColumns checks a table definition before anything is written.
func validateColumns(name string, cols []ColumnDef, primaryKey []string) error {
	if len(cols) == 0 {
		return errors.Wrapf(ErrInvalidDefinition, "table %q has no columns", name)
	}
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if strings.EqualFold(col.Name, ReservedColumnName) {
			return errors.Wrapf(ErrIllegalColumnName, "column %q of table %q", col.Name, name)
		}
		if col.Name == "" {
			return errors.Wrapf(ErrInvalidDefinition, "table %q has a column without name", name)
		}
		if seen[col.Name] {
			return errors.Wrapf(ErrInvalidDefinition, "column %q of table %q is declared twice", col.Name, name)
		}
		seen[col.Name] = true
		if col.Type == nil {
			return errors.Wrapf(ErrInvalidDefinition, "column %q of table %q has no type", col.Name, name)
		}
		if col.Default != nil {
			if _, err := rowenc.ParseDatum(col.Type, *col.Default); err != nil {
				return errors.Wrapf(err, "default of column %q of table %q", col.Name, name)
			}
		}
	}
	switch {
	case len(primaryKey) == 0:
		return errors.Wrapf(ErrPrimaryKeyMissed, "table %q", name)
	case len(primaryKey) > 1:
		return errors.Wrapf(ErrInvalidDefinition,
			"table %q: composite primary keys are not supported", name)
	case !seen[primaryKey[0]]:
		return errors.Wrapf(ErrInvalidDefinition,
			"table %q: primary key column %q is not declared", name, primaryKey[0])
	}
	return nil
}

// CreateTable records a new table in the catalog and creates its physical
// table. The primary key column is made non-nullable.
//
// If an earlier attempt wrote the catalog rows but failed before creating
// the physical table, the rows are rewritten and the physical table is
// created. Once both exist, CreateTable fails with ErrTableExists.
func (c *Catalog) CreateTable(
	ctx context.Context, name string, cols []ColumnDef, primaryKey []string, isTransactional bool,
) (TableDescriptor, error) {
	if err := validateTableName(name); err != nil {
		return TableDescriptor{}, err
	}
	if err := validateColumns(name, cols, primaryKey); err != nil {
		return TableDescriptor{}, err
	}
	c.ddlMu.Lock()
	defer c.ddlMu.Unlock()

	rows, err := c.tables().Get(ctx, []byte(name))
	if err != nil {
		return TableDescriptor{}, errors.Wrapf(err, "reading catalog of %q", name)
	}
	exists, err := c.store.Admin().TableExists(ctx, name)
	if err != nil {
		return TableDescriptor{}, errors.Wrapf(err, "checking table %q", name)
	}
	if exists {
		return TableDescriptor{}, errors.Wrapf(ErrTableExists, "%q", name)
	}
	if len(rows) > 0 {
		log.Infof(ctx, "table %q is in the catalog but not in the store, recreating it", name)
		if err := c.deleteColumns(ctx, name); err != nil {
			return TableDescriptor{}, err
		}
	}

	desc := TableDescriptor{
		Name:            name,
		Path:            name,
		IsTransactional: isTransactional,
		IndexType:       IndexNone,
		LockStatus:      Unlocked,
		CreatedAt:       c.now(),
		Charset:         DefaultCharset,
		PrimaryKey:      primaryKey,
	}
	if err := c.tables().Apply(ctx, desc.tableRow()); err != nil {
		return TableDescriptor{}, errors.Wrapf(err, "writing catalog of %q", name)
	}
	colRows := make([]kv.Mutation, len(cols))
	for i, col := range cols {
		if col.Name == primaryKey[0] {
			col.Nullable = false
		}
		colRows[i] = columnRow(name, i, col)
	}
	if err := c.columns().Apply(ctx, colRows...); err != nil {
		return TableDescriptor{}, errors.Wrapf(err, "writing columns of %q", name)
	}
	if fn := c.knobs.AfterCatalogWrite; fn != nil {
		if err := fn(); err != nil {
			return TableDescriptor{}, err
		}
	}
	if err := c.store.Admin().CreateTable(ctx, name, catalogkeys.Family); err != nil {
		if errors.Is(err, kv.ErrTableExists) {
			err = errors.Mark(err, ErrTableExists)
		}
		return TableDescriptor{}, errors.Wrapf(err, "creating table %q", name)
	}
	log.Infof(ctx, "created table %q with %d columns", name, len(cols))
	return desc, nil
}

// dropPhysical disables and deletes a store table. A missing table is not an
// error.
func (c *Catalog) dropPhysical(ctx context.Context, name string) error {
	admin := c.store.Admin()
	exists, err := admin.TableExists(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "checking table %q", name)
	}
	if !exists {
		return nil
	}
	if err := admin.DisableTable(ctx, name); err != nil && !errors.Is(err, kv.ErrTableDisabled) {
		return errors.Wrapf(err, "disabling %q", name)
	}
	if err := admin.DeleteTable(ctx, name); err != nil && !errors.Is(err, kv.ErrTableNotFound) {
		return errors.Wrapf(err, "deleting %q", name)
	}
	return nil
}

// deleteColumns removes every column catalog row of the table.
func (c *Catalog) deleteColumns(ctx context.Context, name string) error {
	rows, err := kv.ScanAll(ctx, c.columns(), kv.ScanRequest{
		Prefix: catalogkeys.ColumnKeyPrefix(name),
	})
	if err != nil {
		return errors.Wrapf(err, "scanning columns of %q", name)
	}
	if len(rows) == 0 {
		return nil
	}
	dels := make([]kv.Mutation, len(rows))
	for i, r := range rows {
		dels[i] = kv.Delete(r.Key)
	}
	return errors.Wrapf(c.columns().Apply(ctx, dels...), "deleting columns of %q", name)
}

// DropTable deletes the physical table, its index tables, and its catalog
// rows. Dropping a table that does not exist is not an error. A table left
// LOCKED by an interrupted index build is dropped as well, together with
// the partial index table.
func (c *Catalog) DropTable(ctx context.Context, name string) error {
	if catalogkeys.IsSystemTable(name) {
		return errors.Wrapf(ErrInvalidDefinition, "cannot drop catalog table %q", name)
	}
	c.ddlMu.Lock()
	defer c.ddlMu.Unlock()
	if _, err := c.ReadTable(ctx, name); err != nil && !errors.Is(err, ErrTableNotFound) {
		return err
	}
	if err := c.dropIndexTables(ctx, name); err != nil {
		return err
	}
	if err := c.dropPhysical(ctx, name); err != nil {
		return err
	}
	if err := c.tables().Apply(ctx, kv.Delete([]byte(name))); err != nil {
		return errors.Wrapf(err, "deleting catalog of %q", name)
	}
	if err := c.deleteColumns(ctx, name); err != nil {
		return err
	}
	log.Infof(ctx, "dropped table %q", name)
	return nil
}

// dropIndexTables drops every index table of a table, recorded in the
// catalog or not. c.ddlMu must be held.
func (c *Catalog) dropIndexTables(ctx context.Context, name string) error {
	c.ddlMu.AssertHeld()
	names, err := c.store.Admin().ListTables(ctx)
	if err != nil {
		return errors.Wrapf(err, "listing index tables of %q", name)
	}
	prefix := catalogkeys.IndexTablePrefix(name)
	for _, n := range names {
		if !strings.HasPrefix(n, prefix) || catalogkeys.IsSystemTable(n) {
			continue
		}
		if err := c.dropPhysical(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable returns the table catalog entry of a table.
func (c *Catalog) ReadTable(ctx context.Context, name string) (TableDescriptor, error) {
	rows, err := c.tables().Get(ctx, []byte(name))
	if err != nil {
		return TableDescriptor{}, errors.Wrapf(err, "reading catalog of %q", name)
	}
	if len(rows) == 0 {
		return TableDescriptor{}, errors.Wrapf(ErrTableNotFound, "%q", name)
	}
	return decodeTableDescriptor(rows[0])
}

// ListTables returns the catalog entries of all tables, by name.
func (c *Catalog) ListTables(ctx context.Context) ([]TableDescriptor, error) {
	rows, err := kv.ScanAll(ctx, c.tables(), kv.ScanRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "scanning table catalog")
	}
	descs := make([]TableDescriptor, 0, len(rows))
	for _, r := range rows {
		d, err := decodeTableDescriptor(r)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// ResolveColumns returns the columns of a table sorted by ordinal. Exactly
// one of them is primary.
func (c *Catalog) ResolveColumns(ctx context.Context, name string) ([]ColumnDescriptor, error) {
	desc, err := c.ReadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	rows, err := kv.ScanAll(ctx, c.columns(), kv.ScanRequest{
		Prefix: catalogkeys.ColumnKeyPrefix(name),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning columns of %q", name)
	}
	primary := make(map[string]bool, len(desc.PrimaryKey))
	for _, pk := range desc.PrimaryKey {
		primary[pk] = true
	}
	cols := make([]ColumnDescriptor, 0, len(rows))
	numPrimary := 0
	for _, r := range rows {
		col, err := decodeColumnDescriptor(name, r)
		if err != nil {
			return nil, err
		}
		if primary[col.Name] {
			col.IsPrimary = true
			numPrimary++
		}
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })
	for i := range cols {
		if cols[i].Ordinal != i {
			return nil, errors.AssertionFailedf("table %q: column %q has position %d, expected %d",
				name, cols[i].Name, cols[i].Ordinal, i)
		}
	}
	if numPrimary != 1 {
		return nil, errors.AssertionFailedf("table %q has %d primary key columns", name, numPrimary)
	}
	return cols, nil
}
