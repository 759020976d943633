// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cli implements the kvsql command-line interface: DDL and row
// commands against tables stored in the key-value store.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kvsql/pkg/base"
	"github.com/cockroachdb/kvsql/pkg/cli/clierror"
	"github.com/cockroachdb/kvsql/pkg/cli/exit"
	"github.com/cockroachdb/kvsql/pkg/kv/kvconn"
	"github.com/cockroachdb/kvsql/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/kvsql/pkg/sql/schema"
	"github.com/cockroachdb/kvsql/pkg/util/log"
	"github.com/cockroachdb/logtags"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Proxy to allow overrides in tests.
var osStderr = os.Stderr

var kvsqlCmd = &cobra.Command{
	Use:   "kvsql [command] (flags)",
	Short: "SQL tables over a key-value store",
	Long: `
Create, inspect and query SQL tables kept in an HBase cluster or an
embedded pebble store.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// isInteractive indicates whether both stdin and stdout refer to the
// terminal.
var isInteractive = isatty.IsTerminal(os.Stdout.Fd()) &&
	isatty.IsTerminal(os.Stdin.Fd())

func init() {
	cobra.EnableCommandSorting = false

	kvsqlCmd.AddCommand(
		createTableCmd,
		dropTableCmd,
		createIndexCmd,
		dropIndexCmd,
		describeCmd,
		lsCmd,

		insertCmd,
		deleteCmd,
		scanCmd,
		lookupCmd,
	)
	kvsqlCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierror.NewError(err, exit.CommandLineFlagError())
	})
}

// Main is the entry point of the kvsql binary.
func Main() {
	if err := Run(os.Args[1:]); err != nil {
		clierror.OutputError(osStderr, err, log.V(1))
		exit.WithCode(clierror.ExitCode(err))
	}
}

// Run executes the command named by args.
func Run(args []string) error {
	initCLIDefaults()
	kvsqlCmd.SetArgs(args)
	return kvsqlCmd.Execute()
}

// loadConfig reads the configuration file, if any, and applies the flags
// given on the command line over it.
func loadConfig(cmd *cobra.Command) (base.Config, error) {
	cfg := base.DefaultConfig()
	if path := cliCtx.configFile; path != "" {
		var err error
		if cfg, err = base.LoadConfig(path); err != nil {
			return base.Config{}, err
		}
	}
	if cliCtx.quorum != "" {
		cfg.QuorumAddress = cliCtx.quorum
	}
	if cliCtx.flavor != "" {
		cfg.TableFlavor = cliCtx.flavor
	}
	if cmd.Flags().Changed("verbosity") {
		cfg.LogVerbosity = int32(cliCtx.verbosity)
	}
	return cfg, cfg.Validate()
}

func setupLogging(verbosity int32) {
	log.SetVerbosity(verbosity)
	if verbosity > 0 {
		log.SetThreshold(log.SeverityInfo)
	} else {
		log.SetThreshold(log.SeverityWarning)
	}
}

// runWithRegistry connects to the store and runs fn with a schema registry
// over the connection. The connection is closed when fn returns.
func runWithRegistry(
	cmd *cobra.Command, fn func(ctx context.Context, r *schema.Registry) error,
) (retErr error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return clierror.NewError(err, exit.ConfigurationError())
	}
	setupLogging(cfg.LogVerbosity)
	opts, err := cfg.ConnOptions()
	if err != nil {
		return clierror.NewError(err, exit.ConfigurationError())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logtags.AddTag(ctx, "cmd", cmd.Name())
	var conn kvconn.Connection
	if err := conn.Init(ctx, opts); err != nil {
		// Nothing else can run without the store, which ends the session.
		err = pgerror.WithSeverity(errors.Wrapf(err, "connecting to %s", opts.QuorumAddress), "FATAL")
		return clierror.NewError(err, exit.StoreUnavailable())
	}
	defer func() {
		if err := conn.Close(); err != nil {
			retErr = errors.CombineErrors(retErr, err)
		}
	}()
	r, err := schema.New(&conn, schema.Options{MaxStatements: cfg.MaxStatements})
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(ctx, r)
}

func printTag(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
