// Package cmd implements the contact-crawler CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "contact-crawler",
	Short: "Crawl institutional websites for administrative contacts",
	Long: `contact-crawler walks law school and paralegal program websites,
extracts contact records for targeted administrative roles, scores each
record for reliability and streams the results to a durable sink.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./config, /etc/contact-crawler)")
}
