// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"subsync/cli/internal/terminal"
)

var loginEmail string

// loginCmd represents the login command for password authentication.
// It authenticates against the backend, stores the resulting session in the
// OS keychain, and reports the entitlement state for the new session.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with email and password",
	Long: `The login command authenticates with the Subsync backend using your email
and password. On success the session token is stored securely in the OS
keychain so subsequent commands run without re-authenticating.

Already-valid sessions are detected and the authentication flow is skipped.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		baseCtx := cmd.Context()
		ctx, cancel := context.WithTimeout(baseCtx, 2*time.Minute)
		defer cancel()

		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer c.close()

		// If already logged in with a valid token, short-circuit
		if c.sess.IsLoggedIn() {
			fmt.Printf("Already logged in as %s\n", c.sess.User().Email)
			return nil
		}

		email := loginEmail
		if email == "" {
			email = promptLine("Email: ")
		}
		fmt.Print("Password: ")
		password, err := terminal.ReadPassword()
		if err != nil {
			return err
		}

		stopSpinner := startInlineSpinner(os.Stdout, "Signing in")
		res := c.sess.Login(ctx, email, password)
		stopSpinner()

		if !res.OK {
			fmt.Printf("❌ Login failed: %s\n", res.Message)
			return nil
		}

		fmt.Printf("✅ Logged in as %s\n", res.User.Email)

		// Show entitlement state for the fresh session.
		c.ent.Refresh(ctx)
		if c.ent.IsSubscribed() {
			fmt.Printf("💳 Subscription: %s\n", c.ent.SubscriptionStatus())
		} else {
			fmt.Println("💳 No active subscription")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when omitted)")
}
