package cmd

import "github.com/spf13/cobra"

// RootCmd assembles the developer CLI.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "do",
		Short:        "Development tools for GradNet",
		SilenceUsage: true,
	}

	root.AddCommand(DevCmd(), MigrateCmd())
	return root
}
