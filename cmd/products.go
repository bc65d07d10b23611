// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"subsync/cli/internal/entitlement"
)

// productsCmd lists the product catalog with prices for the current session.
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the product catalog and prices",
	Long: `The products command loads the active product catalog and its prices from
the backend and renders them as a table. Products are ordered by their
configured display order, prices by amount ascending.

A backend whose catalog collections are not provisioned yet shows an empty
catalog rather than an error.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer c.close()

		if !c.sess.IsLoggedIn() {
			fmt.Println("🔒 You're not logged in yet!")
			fmt.Println("   Run 'subsync login' to get started.")
			return nil
		}

		stopSpinner := startInlineSpinner(os.Stdout, "Loading catalog")
		c.ent.Refresh(ctx)
		stopSpinner()

		products := c.ent.Products()
		if len(products) == 0 {
			fmt.Println("No active products. The catalog may not be provisioned yet.")
			return nil
		}

		rows := pterm.TableData{{"Product", "Name", "Price", "Interval"}}
		for _, p := range products {
			prices := c.ent.PricesForProduct(p.ProductID)
			if len(prices) == 0 {
				rows = append(rows, []string{p.ProductID, p.Name, "-", "-"})
				continue
			}
			for _, pr := range prices {
				rows = append(rows, []string{p.ProductID, p.Name, formatAmount(pr), pr.Interval})
			}
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

// formatAmount renders a price's unit amount in major currency units.
func formatAmount(p entitlement.Price) string {
	return fmt.Sprintf("%.2f %s", float64(p.UnitAmount)/100, strings.ToUpper(p.Currency))
}

func init() {
	rootCmd.AddCommand(productsCmd)
}
