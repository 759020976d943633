// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package base

const (
	// DefaultQuorumAddress is the store used when none is configured: an
	// in-memory pebble engine that is discarded on exit.
	DefaultQuorumAddress = "mem://"

	// DefaultTableFlavor is the table flavor used when none is configured.
	DefaultTableFlavor = "SCAN"

	// DefaultMaxStatements is the number of statements whose table maps the
	// schema registry keeps before evicting the least recently used one.
	DefaultMaxStatements = 1024

	// EnvConfigFile names the environment variable consulted for the
	// configuration file when no --config flag is given.
	EnvConfigFile = "KVSQL_CONFIG"
)
