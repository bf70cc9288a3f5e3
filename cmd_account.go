package main

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"time"
	"timeline_station/dal"
	"timeline_station/shared"
)

// Builds the object graph for a one-shot command and fills the given targets.
func populate(targets ...any) error {
	cfg := shared.LoadConfig()
	app := fx.New(
		fx.NopLogger,
		coreProviders(cfg),
		fx.Populate(targets...),
	)
	return app.Err()
}

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage signed-in accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <username> <token> <token-secret>",
			Short: "Sign in an account with its token pair",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return accountAdd(cmd, args[0], args[1], args[2])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return accountList(cmd)
			},
		},
		&cobra.Command{
			Use:   "reauth <username> <token> <token-secret>",
			Short: "Replace the token pair of an account",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return accountReauth(cmd, args[0], args[1], args[2])
			},
		},
		&cobra.Command{
			Use:   "remove <username>",
			Short: "Sign out an account and delete its cached timelines",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return accountRemove(cmd, args[0])
			},
		},
	)
	return cmd
}

func accountAdd(cmd *cobra.Command, username, token, tokenSecret string) error {
	var repo dal.IRepo
	if err := populate(&repo); err != nil {
		return err
	}
	defer repo.Close()

	isNew, err := repo.AddAccount(&dal.Account{
		CreatedAt:   time.Now().UTC(),
		Username:    username,
		Token:       token,
		TokenSecret: tokenSecret,
	})
	if err != nil {
		return err
	}
	if !isNew {
		return fmt.Errorf("account %s already exists; use reauth to replace its tokens", username)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added account %s\n", username)
	return nil
}

func accountList(cmd *cobra.Command) error {
	var repo dal.IRepo
	if err := populate(&repo); err != nil {
		return err
	}
	defer repo.Close()

	accounts, err := repo.GetAccounts()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, acct := range accounts {
		loaded := "never"
		if !acct.LastLoaded.IsZero() {
			loaded = humanize.Time(acct.LastLoaded)
		}
		counts := ""
		for _, kind := range shared.SyncedKinds {
			n, err := repo.GetItemCount(acct.Id, kind)
			if err != nil {
				return err
			}
			counts += fmt.Sprintf(" %s:%s", kind, humanize.Comma(int64(n)))
		}
		fmt.Fprintf(out, "%s\tsynced %s\t%s\n", acct.Username, loaded, counts)
	}
	return nil
}

func accountReauth(cmd *cobra.Command, username, token, tokenSecret string) error {
	var repo dal.IRepo
	if err := populate(&repo); err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.UpdateAccountTokens(username, token, tokenSecret); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated tokens of %s\n", username)
	return nil
}

func accountRemove(cmd *cobra.Command, username string) error {
	var repo dal.IRepo
	if err := populate(&repo); err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.DeleteAccount(username); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", username)
	return nil
}
