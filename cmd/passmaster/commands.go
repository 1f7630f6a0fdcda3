// Copyright (c) 2026 Passmaster Team
// Passmaster - password management system
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/passmaster/internal/config"
	"github.com/toeirei/passmaster/internal/db"
	"github.com/toeirei/passmaster/internal/i18n"
	"github.com/toeirei/passmaster/internal/keyderiv"
	"github.com/toeirei/passmaster/internal/model"
	"github.com/toeirei/passmaster/internal/scope"
	"github.com/toeirei/passmaster/internal/security"
	"github.com/toeirei/passmaster/internal/session"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: i18n.T("user.short"),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: i18n.T("user.add.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := a.mainScope(ctx)
			if err != nil {
				return err
			}
			h := sc.NewUser(args[0])
			if err := h.Save(ctx); err != nil {
				if errors.Is(err, db.ErrDuplicate) {
					return errors.New(i18n.T("user.exists", args[0]))
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("user.added", h.Name(), h.ID()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [FILTER...]",
		Short: i18n.T("user.list.short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			users = db.FilterUsersByTokens(users, args)
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, i18n.T("user.list.empty"))
				return nil
			}
			active := a.coord.ActiveID()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, u := range users {
				marker := " "
				if u.ID == active {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, u.Name, u.ID, formatLastUsed(u.LastUsed))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm NAME",
		Short: i18n.T("user.rm.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := a.findUser(ctx, args[0])
			if err != nil {
				return err
			}
			if a.coord.ActiveID() == u.ID {
				if err := a.coord.Logout(ctx); err != nil {
					return err
				}
			}
			if err := a.store.DeleteUser(ctx, u.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("user.removed", u.Name))
			return nil
		},
	})
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login NAME",
		Short: i18n.T("login.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := a.findUser(ctx, args[0])
			if err != nil {
				return err
			}
			sc, err := a.mainScope(ctx)
			if err != nil {
				return err
			}
			h, err := a.resolver.ResolveAs(ctx, scope.Main, u.ID, sc)
			if err != nil {
				return err
			}
			if err := a.coord.SetActiveUser(ctx, h); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("login.ok", h.Name()))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: i18n.T("logout.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			h, err := a.coord.ActiveUser(ctx, scope.Main)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				return err
			}
			if h == nil {
				fmt.Fprintln(out, i18n.T("logout.none"))
				return nil
			}
			name := h.Name()
			if err := a.coord.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, i18n.T("logout.ok", name))
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: i18n.T("whoami.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			h, err := a.coord.ActiveUser(cmd.Context(), scope.Main)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				return err
			}
			if h == nil {
				fmt.Fprintln(out, i18n.T("whoami.none"))
				return nil
			}
			fmt.Fprintln(out, i18n.T("whoami.user", h.Name(), h.ID()))
			fmt.Fprintln(out, i18n.T("whoami.state", a.coord.State()))
			return nil
		},
	}
}

func newUnlockCmd(a *app) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: i18n.T("unlock.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.coord.ActiveUser(ctx, scope.Main)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				return err
			}
			if h == nil {
				return errors.New(i18n.T("unlock.not_logged_in"))
			}
			name := h.Name()

			pw, err := readPassword(cmd, name, fromStdin)
			if err != nil {
				return err
			}
			defer pw.Zero()
			if len(pw) == 0 {
				return errors.New(i18n.T("unlock.empty_password"))
			}

			err = a.coord.Unlock(ctx, scope.Background, a.deriver(), pw)
			if errors.Is(err, session.ErrIncorrectPassword) {
				return errors.New(i18n.T("unlock.wrong_password"))
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("unlock.ok", name))
			fmt.Fprintln(out, i18n.T("whoami.state", a.coord.State()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, i18n.T("unlock.flag.password_stdin"))
	return cmd
}

// purchasePreferencePrefix prefixes the preference keys of the local purchase
// ledger the CLI verifies entitlements against.
const purchasePreferencePrefix = "purchase."

func newPurchaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: i18n.T("purchase.short"),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status PRODUCT",
		Short: i18n.T("purchase.status.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := args[0]
			purchased, err := a.coord.IsPurchased(product)
			if errors.Is(err, session.ErrEntitlementUnknown) {
				purchased, err = a.coord.VerifyPurchase(cmd.Context(), product, a.purchaseVerifier())
			}
			if err != nil {
				return err
			}
			printPurchase(cmd.OutOrStdout(), product, purchased)
			return nil
		},
	})

	var revoke bool
	recordCmd := &cobra.Command{
		Use:   "record PRODUCT",
		Short: i18n.T("purchase.record.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := args[0]
			purchased := !revoke
			if err := a.store.SetPreference(cmd.Context(), purchasePreferencePrefix+product, strconv.FormatBool(purchased)); err != nil {
				return err
			}
			a.coord.SetPurchased(product, purchased)
			printPurchase(cmd.OutOrStdout(), product, purchased)
			return nil
		},
	}
	recordCmd.Flags().BoolVar(&revoke, "revoke", false, i18n.T("purchase.record.flag.revoke"))
	cmd.AddCommand(recordCmd)
	return cmd
}

// purchaseVerifier answers from the purchase ledger in the preferences table.
// Products never recorded count as not purchased.
func (a *app) purchaseVerifier() session.Verifier {
	return session.VerifierFunc(func(ctx context.Context, product string) (bool, error) {
		v, found, err := a.store.GetPreference(ctx, purchasePreferencePrefix+product)
		if err != nil || !found {
			return false, err
		}
		return strconv.ParseBool(v)
	})
}

func printPurchase(out io.Writer, product string, purchased bool) {
	if purchased {
		fmt.Fprintln(out, i18n.T("purchase.yes", product))
		return
	}
	fmt.Fprintln(out, i18n.T("purchase.no", product))
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: i18n.T("config.short"),
	}
	var system bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       i18n.T("config.init.short"),
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteConfigFile(&a.cfg, system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("config.written", path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, i18n.T("config.init.flag.system"))
	cmd.AddCommand(initCmd)
	return cmd
}

func (a *app) findUser(ctx context.Context, name string) (*model.User, error) {
	u, err := a.store.FindUserByName(ctx, name)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errors.New(i18n.T("user.not_found", name))
	}
	return u, err
}

func (a *app) deriver() keyderiv.Scrypt {
	d := keyderiv.DefaultScrypt
	if a.cfg.KDF.N > 0 {
		d.N = a.cfg.KDF.N
	}
	if a.cfg.KDF.R > 0 {
		d.R = a.cfg.KDF.R
	}
	if a.cfg.KDF.P > 0 {
		d.P = a.cfg.KDF.P
	}
	return d
}

// readPassword prompts on the terminal without echo, or reads one line from
// the command's input when it is not a terminal or --password-stdin is set.
func readPassword(cmd *cobra.Command, name string, fromStdin bool) (security.Secret, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), i18n.T("unlock.prompt", name))
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return security.Secret(pw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return security.FromString(strings.TrimRight(line, "\r\n")), nil
}

func formatLastUsed(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
