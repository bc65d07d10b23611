// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"subsync/cli/internal/backend"
	"subsync/cli/internal/config"
	"subsync/cli/internal/session"
)

// logoutCmd represents the logout command for clearing authentication state.
// It clears the session through the session cache so the snapshot, the
// keychain state, and any subscribers all see the same transition. The
// backend is not contacted; server-side token invalidation is its own
// concern.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session",
	Long: `The logout command clears the local session, removing the stored token and
session state from the OS keychain. It never fails and is safe to run
repeatedly.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sess := session.New(backend.New(cfg.BackendURL), session.NewKeychainStore())
		sess.Logout()
		fmt.Println("✅ Session cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
