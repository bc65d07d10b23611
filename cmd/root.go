// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Subsync client.
// It implements subcommands for authentication, entitlement inspection, and
// self-hosted deployment diagnostics using the Cobra CLI framework. The
// package handles command parsing, execution, and provides a terminal UI
// with spinners and tables.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subsync/cli/internal/backend"
	"subsync/cli/internal/config"
	"subsync/cli/internal/httperrors"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the Subsync CLI application.
var rootCmd = &cobra.Command{
	Use:           "subsync",
	Short:         "Subsync CLI for session and subscription entitlements",
	Long:          `Subsync keeps a local view of your login session and subscription entitlements in sync with the Subsync backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			ctx := context.Background()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			be := backend.New(cfg.BackendURL)
			status, err := be.Health(ctx)
			if err != nil {
				host := httperrors.ExtractHostFromURL(cfg.BackendURL)
				_ = httperrors.FormatNetworkError(err, "contacting "+host)
				status = "unreachable"
			}

			fmt.Printf("subsync %s\nbackend %s\n", Version, status)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and backend version information")
}
