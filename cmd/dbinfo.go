// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"subsync/cli/internal/keychain"
	"subsync/cli/internal/logging"
	"subsync/cli/internal/session"
)

// dbinfoCmd represents the dbinfo command for displaying database connection information.
// It shows the current database connection string with the password masked for security.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show current database connection string",
	Long: `The dbinfo command displays the currently configured self-hosted database
connection string (DSN) with the password masked for security. This helps
verify which database you're connected to without exposing credentials.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := session.NewKeychainStore().Load()
		if err != nil || st.Token == "" {
			pterm.Println("❌ You need to be logged in to view database connection")
			pterm.Println("   Please run: subsync login")
			return nil
		}

		dsnStr, source, err := loadDSN()
		if err != nil {
			return err
		}
		if dsnStr == "" {
			pterm.Println("⚠️  No database connection configured")
			pterm.Println("   Please run: subsync connect")
			return nil
		}
		pterm.Println("Using DSN from " + source)
		pterm.Println()

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).
			WithBottomPadding(1).
			WithLeftPadding(1).
			WithRightPadding(1).
			Println(logging.Mask(dsnStr))
		pterm.Println()
		pterm.Println("To update this connection, run: subsync connect")
		pterm.Println()

		return nil
	},
}

// loadDSN resolves the configured DSN, preferring environment variables over
// the keychain, and reports where it came from.
func loadDSN() (dsnStr, source string, err error) {
	if env := strings.TrimSpace(os.Getenv("SUBSYNC_DSN")); env != "" {
		return env, "SUBSYNC_DSN environment variable", nil
	}
	if env := strings.TrimSpace(os.Getenv("DATABASE_URL")); env != "" {
		return env, "DATABASE_URL environment variable", nil
	}

	km, err := keychain.GetManager()
	if err != nil {
		return "", "", err
	}
	stored, err := km.LoadDBDSN()
	if err != nil {
		return "", "", nil // nothing configured
	}
	return strings.TrimSpace(stored), "OS keychain", nil
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
