// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"os"

	"github.com/cockroachdb/kvsql/pkg/cli/cliflags"
	"github.com/cockroachdb/kvsql/pkg/sql/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliContext captures the command-line parameters of every command.
type cliContext struct {
	configFile         string
	quorum             string
	flavor             string
	verbosity          int
	tableDisplayFormat tableDisplayFormat
}

var cliCtx cliContext

var createTableCtx struct {
	primaryKey    string
	transactional bool
}

var indexCtx struct {
	indexType string
}

var scanCtx struct {
	where   []string
	columns string
}

// initCLIDefaults sets the parameters to their defaults. Every invocation
// of Run starts from them.
func initCLIDefaults() {
	cliCtx = cliContext{tableDisplayFormat: tableDisplayTSV}
	if isInteractive {
		cliCtx.tableDisplayFormat = tableDisplayPretty
	}
	createTableCtx.primaryKey = ""
	createTableCtx.transactional = false
	indexCtx.indexType = catalog.IndexKeyValue.String()
	scanCtx.where = nil
	scanCtx.columns = ""
	resetFlags(kvsqlCmd)
}

// resetFlags marks the flags of cmd and its subcommands as not given, so
// that values parsed by a previous Run do not leak into the next one.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// envDefault returns the value of the flag's environment variable, or def.
func envDefault(flagInfo cliflags.FlagInfo, def string) string {
	if flagInfo.EnvVar != "" {
		if v, ok := os.LookupEnv(flagInfo.EnvVar); ok {
			return v
		}
	}
	return def
}

// StringFlag creates a string flag and registers it with the FlagSet. The
// flag's environment variable, if any, is consulted when the flag is not
// given.
func StringFlag(f *pflag.FlagSet, valPtr *string, flagInfo cliflags.FlagInfo) {
	f.StringVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, "", flagInfo.Usage())
	envFlags = append(envFlags, envFlag{valPtr: valPtr, info: flagInfo, flags: f})
}

// IntFlag creates an int flag and registers it with the FlagSet.
func IntFlag(f *pflag.FlagSet, valPtr *int, flagInfo cliflags.FlagInfo, defaultVal int) {
	f.IntVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, defaultVal, flagInfo.Usage())
}

// BoolFlag creates a bool flag and registers it with the FlagSet.
func BoolFlag(f *pflag.FlagSet, valPtr *bool, flagInfo cliflags.FlagInfo, defaultVal bool) {
	f.BoolVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, defaultVal, flagInfo.Usage())
}

// VarFlag creates a custom-variable flag and registers it with the FlagSet.
func VarFlag(f *pflag.FlagSet, value pflag.Value, flagInfo cliflags.FlagInfo) {
	f.VarP(value, flagInfo.Name, flagInfo.Shorthand, flagInfo.Usage())
}

// StringSliceFlag creates a repeatable string flag.
func StringSliceFlag(f *pflag.FlagSet, valPtr *[]string, flagInfo cliflags.FlagInfo) {
	f.StringArrayVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, nil, flagInfo.Usage())
}

type envFlag struct {
	valPtr *string
	info   cliflags.FlagInfo
	flags  *pflag.FlagSet
}

// envFlags are the string flags that fall back to an environment variable.
var envFlags []envFlag

// applyEnvDefaults fills the string flags not given on the command line
// from their environment variables.
func applyEnvDefaults() {
	for _, ef := range envFlags {
		if !ef.flags.Changed(ef.info.Name) {
			*ef.valPtr = envDefault(ef.info, *ef.valPtr)
		}
	}
}

// AddPersistentPreRunE add 'fn' as a persistent pre-run function to 'cmd'.
// If the command has an existing pre-run function, it is saved and will be
// called at the beginning of 'fn'.
func AddPersistentPreRunE(cmd *cobra.Command, fn func(*cobra.Command, []string) error) {
	// Save any existing hooks.
	wrapped := cmd.PersistentPreRunE

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Run the previous hook if it exists.
		if wrapped != nil {
			if err := wrapped(cmd, args); err != nil {
				return err
			}
		}

		// Now we can call the new function.
		return fn(cmd, args)
	}
}

func init() {
	initCLIDefaults()

	AddPersistentPreRunE(kvsqlCmd, func(*cobra.Command, []string) error {
		applyEnvDefaults()
		return nil
	})

	{
		pf := kvsqlCmd.PersistentFlags()
		StringFlag(pf, &cliCtx.configFile, cliflags.Config)
		StringFlag(pf, &cliCtx.quorum, cliflags.Quorum)
		StringFlag(pf, &cliCtx.flavor, cliflags.Flavor)
		IntFlag(pf, &cliCtx.verbosity, cliflags.Verbosity, 0)
		VarFlag(pf, &cliCtx.tableDisplayFormat, cliflags.TableDisplayFormat)
	}

	{
		f := createTableCmd.Flags()
		StringFlag(f, &createTableCtx.primaryKey, cliflags.PrimaryKey)
		BoolFlag(f, &createTableCtx.transactional, cliflags.Transactional, false)
		_ = createTableCmd.MarkFlagRequired(cliflags.PrimaryKey.Name)
	}

	for _, cmd := range []*cobra.Command{createIndexCmd, dropIndexCmd} {
		StringFlag(cmd.Flags(), &indexCtx.indexType, cliflags.IndexType)
	}

	{
		f := scanCmd.Flags()
		StringSliceFlag(f, &scanCtx.where, cliflags.Where)
		StringFlag(f, &scanCtx.columns, cliflags.Columns)
	}
}
