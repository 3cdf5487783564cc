package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "recyclerie",
		Short:         "Import d'exports CSV historiques de réception de déchets",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newRetryCmd())
	cmd.AddCommand(newReviewCmd())
	cmd.AddCommand(newExecuteCmd())
	cmd.AddCommand(newCategoriesCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
