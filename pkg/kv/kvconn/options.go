// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvconn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
)

// Flavor selects which work a table pushes down to the store.
type Flavor int

const (
	// Scan tables return full rows and leave filtering to the caller.
	Scan Flavor = iota
	// Filter tables push predicates down as store-side filters.
	Filter
	// FilterProject tables push predicates and projections down.
	FilterProject
)

var flavorNames = [...]string{
	Scan:          "SCAN",
	Filter:        "FILTER",
	FilterProject: "FILTER_PROJECT",
}

func (f Flavor) String() string {
	if f < 0 || int(f) >= len(flavorNames) {
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
	return flavorNames[f]
}

// ParseFlavor parses a flavor name, ignoring case.
func ParseFlavor(s string) (Flavor, error) {
	for f, name := range flavorNames {
		if strings.EqualFold(s, name) {
			return Flavor(f), nil
		}
	}
	return Scan, pgerror.Newf(pgcode.ConfigFile,
		"unknown table flavor %q, expected one of %s", s, strings.Join(flavorNames[:], ", "))
}

// Option keys accepted by ParseOptions.
const (
	QuorumAddressKey = "quorumAddress"
	TableFlavorKey   = "tableFlavor"
)

// Quorum address schemes selecting an embedded store. Any other address is
// taken to be a ZooKeeper quorum of an HBase cluster.
const (
	MemScheme    = "mem://"
	PebbleScheme = "pebble://"
)

// ErrInvalidOptions is returned for malformed connection options.
var ErrInvalidOptions = pgerror.New(pgcode.ConfigFile, "invalid connection options")

// Options configure a Connection.
type Options struct {
	// QuorumAddress locates the store: mem://, pebble://<dir>, or a
	// comma-separated list of ZooKeeper host:port pairs.
	QuorumAddress string
	TableFlavor   Flavor
}

// ParseOptions builds Options from the key/value form used by the SQL
// engine's schema factory.
func ParseOptions(m map[string]string) (Options, error) {
	var opts Options
	var unknown []string
	for k, v := range m {
		switch k {
		case QuorumAddressKey:
			opts.QuorumAddress = v
		case TableFlavorKey:
			f, err := ParseFlavor(v)
			if err != nil {
				return Options{}, errors.Wrapf(ErrInvalidOptions, "%s: %v", TableFlavorKey, err)
			}
			opts.TableFlavor = f
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Options{}, errors.Wrapf(ErrInvalidOptions, "unknown keys %s", strings.Join(unknown, ", "))
	}
	return opts, opts.Validate()
}

// Validate checks that the options can be used to initialize a connection.
func (o Options) Validate() error {
	if strings.TrimSpace(o.QuorumAddress) == "" {
		return errors.WithHint(
			errors.Wrapf(ErrInvalidOptions, "%s is required", QuorumAddressKey),
			"use mem:// for an in-memory store")
	}
	if o.TableFlavor < Scan || o.TableFlavor > FilterProject {
		return errors.Wrapf(ErrInvalidOptions, "invalid table flavor %d", int(o.TableFlavor))
	}
	if o.QuorumAddress == PebbleScheme {
		return errors.Wrapf(ErrInvalidOptions, "%s needs a directory", PebbleScheme)
	}
	return nil
}
