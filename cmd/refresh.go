package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// refreshCmd forces a resynchronization of the session and entitlement state.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Resynchronize session and entitlement state",
	Long: `The refresh command renews the session token with the backend and reloads
products, prices, and the current subscription. A session the backend no
longer accepts is cleared, matching the corrective logout on failed refresh.`,

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

		stopSpinner := startInlineSpinner(os.Stdout, "Refreshing")
		ok := c.sess.Refresh(ctx)
		if ok {
			c.ent.Refresh(ctx)
		}
		stopSpinner()

		if !ok {
			fmt.Println("⚠️  Session no longer valid; you have been logged out.")
			return nil
		}
		fmt.Printf("✅ Session refreshed (%s)\n", c.sess.User().Email)
		fmt.Printf("💳 Subscription status: %s\n", c.ent.SubscriptionStatus())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
