// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"subsync/cli/internal/inspect"
)

// doctorCmd inspects a self-hosted deployment's backing database directly.
// It reports which entitlement collections are provisioned, which is the
// quickest way to explain an empty catalog after login.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose a self-hosted backend's database schema",
	Long: `The doctor command connects to the configured self-hosted database and
checks that the users, products, prices, and subscriptions collections are
provisioned, reporting record counts for each.

An absent collection is what the client otherwise surfaces as an empty
catalog; import the backend schema to provision it.`,

	RunE: func(cmd *cobra.Command, args []string) error {
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

		stopSpinner := startInlineSpinner(os.Stdout, "inspecting schema")
		statuses, err := inspect.Check(cmd.Context(), dsnStr)
		stopSpinner()
		if err != nil {
			return fmt.Errorf("schema inspection failed: %w", err)
		}

		rows := pterm.TableData{{"Collection", "Provisioned", "Records"}}
		missing := 0
		for _, st := range statuses {
			provisioned := "yes"
			records := strconv.FormatInt(st.Records, 10)
			if !st.Present {
				provisioned = "NO"
				records = "-"
				missing++
			}
			rows = append(rows, []string{st.Name, provisioned, records})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		if missing > 0 {
			pterm.Println()
			pterm.Warning.Printfln("%d collection(s) missing. Import the backend schema to provision them.", missing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
