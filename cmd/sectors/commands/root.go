package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sectors",
	Short: "SectorPulse - opening range strength of sector ETFs",
	Long: `SectorPulse CLI

Scores sector ETFs on their first 15 minutes of trading
(overnight gap, move into the cutoff, opening range position, relative volume)
and reports the weakest of the basket.

Usage:
  go run ./cmd/sectors [command]

Examples:
  go run ./cmd/sectors api
  go run ./cmd/sectors rank --tickers XLK,XLF,XLE
  go run ./cmd/sectors rank --date 2024-03-15 --json
  go run ./cmd/sectors daily
  go run ./cmd/sectors scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
