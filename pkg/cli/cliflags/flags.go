// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cliflags describes the command-line flags of the kvsql binary.
package cliflags

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/kvsql/pkg/base"
)

// FlagInfo contains the static information for a CLI flag and helper
// to format the description.
type FlagInfo struct {
	// Name of the flag as used on the command line.
	Name string

	// Shorthand is the short form of the flag (optional).
	Shorthand string

	// EnvVar is the name of the environment variable through which the flag
	// value can be controlled (optional).
	EnvVar string

	// Description of the flag.
	Description string
}

// Usage returns a formatted usage string for the flag, including the
// environment variable if any.
func (f FlagInfo) Usage() string {
	s := strings.TrimSpace(f.Description)
	if f.EnvVar != "" {
		s += fmt.Sprintf("\nEnvironment variable: %s", f.EnvVar)
	}
	return s
}

// Flags of every command.
var (
	Config = FlagInfo{
		Name:   "config",
		EnvVar: base.EnvConfigFile,
		Description: `Path of a YAML configuration file. Flags given on the
command line override its settings.`,
	}

	Quorum = FlagInfo{
		Name:   "quorum",
		EnvVar: "KVSQL_QUORUM",
		Description: `Location of the store: mem:// for a throwaway in-memory
store, pebble://<dir> for an on-disk store, or a comma-separated list of
ZooKeeper host:port pairs of an HBase cluster.`,
	}

	Flavor = FlagInfo{
		Name:        "flavor",
		EnvVar:      "KVSQL_FLAVOR",
		Description: `Table flavor: SCAN, FILTER or FILTER_PROJECT.`,
	}

	Verbosity = FlagInfo{
		Name:        "verbosity",
		Shorthand:   "v",
		Description: `Log verbosity. Any positive level also prints informational messages.`,
	}

	TableDisplayFormat = FlagInfo{
		Name: "format",
		Description: `Selects how to display table rows: pretty, tsv, csv,
html or records. Defaults to pretty on a terminal and tsv otherwise.`,
	}
)

// Flags of individual commands.
var (
	PrimaryKey = FlagInfo{
		Name:        "primary-key",
		Description: `Name of the primary key column.`,
	}

	Transactional = FlagInfo{
		Name: "transactional",
		Description: `Write the table and its index in one transaction. Requires
a store with transactions.`,
	}

	IndexType = FlagInfo{
		Name:        "type",
		Description: `Index type. Only KEY_VALUE is supported.`,
	}

	Where = FlagInfo{
		Name: "where",
		Description: `A predicate "column op literal" with op one of
= != < <= > >=. May be repeated; rows must satisfy every predicate.`,
	}

	Columns = FlagInfo{
		Name:        "columns",
		Description: `Comma-separated list of columns to output.`,
	}
)
