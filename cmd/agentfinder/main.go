// Command agentfinder is the CLI boundary for the Agent Finder batch
// resolver and FSBO aggregator, in the cobra/viper shape
// evalaf/cmd/evalaf establishes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dispodojo/agentfinder/internal/config"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agentfinder",
	Short: "Agent Finder - multi-source listing-agent resolution and FSBO aggregation",
	Long: `Agent Finder resolves the listing agent for a batch of property
addresses by waterfalling across Redfin, Realtor.com, Zillow, HomeHarvest
and Google CSE, and separately aggregates For-Sale-By-Owner listings
across fsbo.com, ForSaleByOwner.com, Zillow, Realtor.com, and craigslist
for a given search area.

Use "agentfinder run" for a one-shot batch resolution, and "agentfinder
serve" to run the HTTP API with job tracking, SSE progress, and a
POST /api/jobs/{id}/resume endpoint for interrupted batches.`,
	Version: version,
}

var cfgViper = config.New()

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
