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

var (
	signupEmail string
	signupName  string
)

// signupCmd represents the signup command for account creation.
// After the account record is created the command signs in with the same
// credentials automatically.
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Long: `The signup command creates a new Subsync account and immediately signs in
with the supplied credentials. If account creation succeeds but the
automatic sign-in fails, the account still exists and you can sign in
manually with 'subsync login'.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer c.close()

		if c.sess.IsLoggedIn() {
			fmt.Printf("Already logged in as %s. Run 'subsync logout' first.\n", c.sess.User().Email)
			return nil
		}

		email := signupEmail
		if email == "" {
			email = promptLine("Email: ")
		}
		fmt.Print("Password: ")
		password, err := terminal.ReadPassword()
		if err != nil {
			return err
		}
		fmt.Print("Confirm password: ")
		passwordConfirm, err := terminal.ReadPassword()
		if err != nil {
			return err
		}

		stopSpinner := startInlineSpinner(os.Stdout, "Creating account")
		res := c.sess.Signup(ctx, email, password, passwordConfirm, signupName)
		stopSpinner()

		switch {
		case res.OK:
			fmt.Printf("✅ Account created. Logged in as %s\n", res.User.Email)
		case res.Created:
			fmt.Println("⚠️  Account created, but automatic sign-in failed.")
			fmt.Printf("   %s\n", res.Message)
			fmt.Println("   Run 'subsync login' to sign in manually.")
		default:
			fmt.Printf("❌ Signup failed: %s\n", res.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Account email (prompted when omitted)")
	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name")
}
