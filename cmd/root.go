package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "AI debate arena over live crypto market data",
	Long: `Debate arena that pits two adversarial AI analysts against each
other over live market data for a crypto asset, has an arbiter pick a
winner, and settles a confidence-scaled wager on a consensus ledger.

Run "arena serve" to expose the debate API over HTTP, or "arena debate"
to run a single debate from the command line.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
