package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time by the release pipeline.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crmaudit version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
