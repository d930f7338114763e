// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-user-desk",
	Short: "GoUserDesk is a web-based account administration service",
	Long: `GoUserDesk is a web-based account administration service
that authenticates users, gates pages by role, and lets administrators
manage accounts and broadcast emails.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
