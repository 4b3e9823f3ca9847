package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Overridden at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the contact-crawler version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("contact-crawler %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
