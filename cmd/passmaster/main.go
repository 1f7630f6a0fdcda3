// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the passmaster command line: the root command, its
// persistent flags, and the wiring of store, scopes and session coordinator
// shared by the subcommands.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/toeirei/passmaster/buildvars"
	"github.com/toeirei/passmaster/internal/config"
	"github.com/toeirei/passmaster/internal/db"
	"github.com/toeirei/passmaster/internal/i18n"
	"github.com/toeirei/passmaster/internal/identity"
	"github.com/toeirei/passmaster/internal/logging"
	"github.com/toeirei/passmaster/internal/scope"
	"github.com/toeirei/passmaster/internal/session"
)

// skipStore marks commands that run without opening the database.
const skipStore = "passmaster/skip-store"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

// app carries the state built in PersistentPreRunE for one invocation.
type app struct {
	cfgFile string
	cfg     config.Config

	store    *db.Store
	accessor *scope.Accessor
	resolver *identity.Resolver
	coord    *session.Coordinator
}

// run builds a fresh command tree, executes it with args and releases the
// store afterwards, whether or not the command failed.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "passmaster",
		Short:         i18n.T("root.short"),
		Version:       buildvars.VersionOrDefault("dev"),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/passmaster/passmaster.yaml or ./passmaster.yaml)")
	cmd.PersistentFlags().String("db-type", "sqlite", `Database type ("sqlite", "postgres", "mysql")`)
	cmd.PersistentFlags().String("db-dsn", "./passmaster.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `Output language ("en", "de")`)
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(newUserCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newUnlockCmd(a))
	cmd.AddCommand(newPurchaseCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), &a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	i18n.Init(cfg.Language)
	logging.SetOutput(cmd.ErrOrStderr())
	logging.SetDebug(cfg.Debug)
	db.SetDebug(cfg.Debug)

	if cmd.Annotations[skipStore] != "" {
		return nil
	}

	store, err := db.Open(cfg.Database.Type, cfg.Database.Dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.Database.Type, err)
	}
	a.store = store
	a.accessor = scope.NewAccessor(func(context.Context) (scope.Backend, error) { return store, nil })
	a.resolver = identity.NewResolver(a.accessor)
	a.coord = session.New(a.accessor, a.resolver, store)
	if err := a.coord.Restore(cmd.Context()); err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	if a.coord != nil {
		a.coord.Close()
	}
	if a.accessor != nil {
		if err := a.accessor.Close(); err != nil {
			logging.Warnf("closing store: %v", err)
		}
		return
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// mainScope returns the scope the CLI's single flow works in.
func (a *app) mainScope(ctx context.Context) (*scope.Scope, error) {
	return a.accessor.ScopeFor(ctx, scope.Main)
}
