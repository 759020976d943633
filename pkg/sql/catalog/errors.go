// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package catalog

import (
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
)

var (
	// ErrIllegalColumnName is returned when a column uses a reserved name.
	ErrIllegalColumnName = pgerror.New(pgcode.ReservedName, "column name is reserved")
	// ErrPrimaryKeyMissed is returned when a table is created without
	// primary key.
	ErrPrimaryKeyMissed = pgerror.New(pgcode.InvalidTableDefinition, "primary key is missing")
	// ErrInvalidDefinition is returned for any other malformed table or
	// index definition.
	ErrInvalidDefinition = pgerror.New(pgcode.InvalidTableDefinition, "invalid definition")
	// ErrTableExists is returned when creating a table that exists.
	ErrTableExists = pgerror.New(pgcode.DuplicateRelation, "table already exists")
	// ErrTableNotFound is returned when a table is not in the catalog.
	ErrTableNotFound = pgerror.New(pgcode.UndefinedTable, "table does not exist")
	// ErrColumnNotFound is returned when a definition names an unknown
	// column.
	ErrColumnNotFound = pgerror.New(pgcode.UndefinedColumn, "column does not exist")
	// ErrIndexExists is returned when creating an index that exists, or a
	// second index on a table.
	ErrIndexExists = pgerror.New(pgcode.DuplicateRelation, "index already exists")
	// ErrIndexNotFound is returned when dropping an index that does not
	// exist.
	ErrIndexNotFound = pgerror.New(pgcode.UndefinedObject, "index does not exist")
	// ErrTableLocked is returned when changing the schema of a table while
	// an index is being built on it.
	ErrTableLocked = pgerror.New(pgcode.ObjectNotInPrerequisiteState, "table is locked")
)
