package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command for displaying current authentication state.
// It shows the currently authenticated account by restoring the persisted
// session and validating it with the backend.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command displays information about the currently authenticated
account. It restores the persisted session, validates it against the backend
service, and shows the account identity when the session is still valid.

If no valid session exists, it will indicate that the user is not logged in.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.close()

		if !c.sess.IsLoggedIn() {
			fmt.Println("🔒 You're not logged in yet!")
			fmt.Println("   Run 'subsync login' to get started.")
			return nil
		}

		user := c.sess.User()
		if user.Email != "" {
			fmt.Printf("👤 Current user: %s\n", user.Email)
		} else {
			fmt.Printf("👤 Current user: %s\n", user.ID)
		}
		if user.Name != "" {
			fmt.Printf("   Name: %s\n", user.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
