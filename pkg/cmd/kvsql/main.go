// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// kvsql manages SQL tables kept in a key-value store.
package main

import "github.com/cockroachdb/kvsql/pkg/cli"

func main() {
	cli.Main()
}
