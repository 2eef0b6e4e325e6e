package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formgatectl",
	Short: "Operator tasks for the formgate application",
	Long: `Operator tasks for the formgate application: preparing password hashes
for seeded accounts and applying the database schema.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(HashPasswordCmd)
	rootCmd.AddCommand(MigrateCmd)
}
