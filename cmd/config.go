// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"subsync/cli/internal/config"
)

// configCmd shows the stored CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show CLI configuration",
	Long: `The config command displays the stored CLI configuration. Environment
variables (SUBSYNC_BACKEND_URL, SUBSYNC_LOG_LEVEL) override stored values
for the current shell only.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Printf("Backend URL: %s\n", cfg.BackendURL)
		fmt.Printf("Log level:   %s\n", cfg.LogLevel)
		return nil
	},
}

// configSetBackendCmd persists a new backend URL, e.g. for a self-hosted
// deployment.
var configSetBackendCmd = &cobra.Command{
	Use:   "set-backend <url>",
	Short: "Set the backend URL",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.Parse(args[0])
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid backend URL %q; expected e.g. https://api.subsync.dev", args[0])
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.BackendURL = u.String()
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("✅ Backend URL set to %s\n", cfg.BackendURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetBackendCmd)
}
