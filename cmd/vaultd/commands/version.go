package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vaultd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vaultd %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}
