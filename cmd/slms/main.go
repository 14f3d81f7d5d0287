// Command slms runs the campus library service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "slms",
		Short:         "Campus library catalog, loans and bookstore sales",
		SilenceUsage: true,
	}

	serve := newServeCmd()
	root.AddCommand(serve, newHashCredentialCmd(), newSlotsCmd())

	// Running without a subcommand serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}
