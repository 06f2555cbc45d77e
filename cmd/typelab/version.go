package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the workbench release version.
const Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the typelab version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "typelab %s\n", Version)
	},
}
