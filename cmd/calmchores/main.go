package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "calmchores",
	Short: "Shared household chores with fair rotation",
	Long: `CalmChores keeps a house's chores moving between its members.

Configuration comes from CALMCHORES_* environment variables, optionally
loaded from a .env file in the working directory.`,
	SilenceUsage: true,
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupListCmd.Flags().IntVar(&backupListLimit, "limit", 20, "Number of records to show")
	backupRestoreCmd.Flags().StringVarP(&restoreOut, "out", "o", "", "Path of the restored database file (required)")
	backupRestoreCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(vapidKeysCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
