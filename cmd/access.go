// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// accessCmd reports the entitlement decision for the current session.
// With no argument it answers "is any subscription active"; with a product
// id it answers whether the subscription's price belongs to that product.
var accessCmd = &cobra.Command{
	Use:   "access [product_id]",
	Short: "Check subscription access for the current session",
	Long: `The access command loads the current subscription and reports whether it
grants access. Given a product id, access requires the subscription's price
to belong to that product; without one, any active or trialing subscription
qualifies.`,
	Args: cobra.MaximumNArgs(1),

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

		stopSpinner := startInlineSpinner(os.Stdout, "Checking entitlements")
		c.ent.Refresh(ctx)
		stopSpinner()

		productID := ""
		if len(args) == 1 {
			productID = args[0]
		}

		fmt.Printf("Subscription status: %s\n", c.ent.SubscriptionStatus())
		if c.ent.HasAccess(productID) {
			if productID == "" {
				fmt.Println("✅ Access granted (active subscription)")
			} else {
				fmt.Printf("✅ Access granted to %s\n", productID)
			}
			return nil
		}
		if productID == "" {
			fmt.Println("❌ No access: no active subscription")
		} else {
			fmt.Printf("❌ No access to %s\n", productID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accessCmd)
}
