// Package cmd holds the billctl commands. Every command talks to the
// billing API over HTTP.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiURL  string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "billctl",
	Short: "Operate the produce billing API",
	Long: `billctl fetches provider bills and manages the rate table.

Examples:
  billctl bill 1790 --from 20240301000000 --to 20240331235959
  billctl bill 1790 --format pdf --out march.pdf
  billctl rates upload rates.xlsx
  billctl rates download --out rates.xlsx`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("BILLING_API_URL", "http://localhost:8080"), "billing API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(billCmd)
	rootCmd.AddCommand(ratesCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
