package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/carmarket/internal/client/api"
	"github.com/spf13/cobra"
)

func newSignupCmd(app *App) *cobra.Command {
	var in api.SignupRequest
	var phone string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Name, err = app.prompt(cmd, in.Name, "Full name"); err != nil {
				return err
			}
			if in.UserName, err = app.prompt(cmd, in.UserName, "User name"); err != nil {
				return err
			}
			if in.Email, err = app.prompt(cmd, in.Email, "Email"); err != nil {
				return err
			}
			if phone, err = app.prompt(cmd, phone, "Phone"); err != nil {
				return err
			}
			if in.Phone, err = strconv.ParseInt(phone, 10, 64); err != nil {
				return fmt.Errorf("phone must be a number: %q", phone)
			}
			if in.Password, err = GetPassword(cmd.ErrOrStderr()); err != nil {
				return err
			}

			account, err := app.api.Signup(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s created for %s\n", account.ID, account.Handle)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVarP(&in.UserName, "user", "u", "", "user name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if userName, err = app.prompt(cmd, userName, "User name"); err != nil {
				return err
			}
			password, err := GetPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res, err := app.api.Login(cmd.Context(), userName, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "logged in as %s; export %s to reuse the session\n", res.Account.Handle, TokenEnv)
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userName, "user", "u", "", "user name")
	return cmd
}

func newMeCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := tokenFrom(token)
			if err != nil {
				return err
			}

			account, err := app.api.Me(cmd.Context(), token)
			if err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("session rejected, log in again: %w", err)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(account)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token (defaults to $"+TokenEnv+")")
	return cmd
}
