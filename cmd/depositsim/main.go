// Command depositsim runs storage deposit scenarios described in YAML and
// prints the resulting settlement, balances and storage records.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "depositsim",
	Short: "Simulate storage deposit metering for a call tree",
	Long: `depositsim loads a call tree from YAML, meters it the way a contract host
would and settles the result against in-memory balances.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
