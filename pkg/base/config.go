// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package base holds the process configuration.
package base

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/kv/kvconn"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, as read from a YAML file:
//
//	quorum_address: zk1:2181,zk2:2181
//	table_flavor: FILTER_PROJECT
//	max_statements: 1024
//	log_verbosity: 1
type Config struct {
	// QuorumAddress locates the store: mem://, pebble://<dir>, or a ZooKeeper
	// quorum.
	QuorumAddress string `yaml:"quorum_address"`
	// TableFlavor is one of SCAN, FILTER, FILTER_PROJECT.
	TableFlavor string `yaml:"table_flavor"`
	// MaxStatements bounds the per-statement table maps kept by the schema
	// registry.
	MaxStatements int `yaml:"max_statements"`
	// LogVerbosity is the level up to which V-gated log messages are printed.
	LogVerbosity int32 `yaml:"log_verbosity"`
}

// DefaultConfig returns the configuration used for unset fields.
func DefaultConfig() Config {
	return Config{
		QuorumAddress: DefaultQuorumAddress,
		TableFlavor:   DefaultTableFlavor,
		MaxStatements: DefaultMaxStatements,
	}
}

// ParseConfig parses a YAML configuration over the defaults. Unknown fields
// are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "parsing configuration")
	}
	return cfg, cfg.Validate()
}

// LoadConfig reads and parses the configuration file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading configuration file %q", path)
	}
	cfg, err := ParseConfig(data)
	return cfg, errors.Wrapf(err, "in %q", path)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxStatements <= 0 {
		return errors.Newf("max_statements must be positive, got %d", c.MaxStatements)
	}
	if c.LogVerbosity < 0 {
		return errors.Newf("log_verbosity must not be negative, got %d", c.LogVerbosity)
	}
	_, err := c.ConnOptions()
	return err
}

// ConnOptions converts the configuration to store connection options.
func (c Config) ConnOptions() (kvconn.Options, error) {
	return kvconn.ParseOptions(map[string]string{
		kvconn.QuorumAddressKey: c.QuorumAddress,
		kvconn.TableFlavorKey:   c.TableFlavor,
	})
}
