package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/internal/scenario"
)

var (
	runVerboseFlag bool
	runStrictFlag  bool
	runJSONFlag    bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario and print the settlement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.LoadFile(args[0])
		if err != nil {
			return err
		}

		level := slog.LevelWarn
		if runVerboseFlag {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		res, err := scenario.Run(cmd.Context(), sc,
			deposit.WithLogger(logger),
			deposit.WithStrictSettlement(runStrictFlag),
		)
		if err != nil {
			return fmt.Errorf("scenario failed: %w", err)
		}

		if runJSONFlag {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVarP(&runVerboseFlag, "verbose", "v", false, "Log every settled deposit")
	runCmd.Flags().BoolVar(&runStrictFlag, "strict", false, "Panic when a deposit cannot be settled")
	runCmd.Flags().BoolVar(&runJSONFlag, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(runCmd)
}

func printResult(w io.Writer, res *scenario.Result) {
	st := res.Settlement
	fmt.Fprintf(w, "Settlement %s\n", st.ID)
	fmt.Fprintf(w, "Origin: %s\n", res.Name(st.Origin))
	fmt.Fprintf(w, "Limit: %s\n", st.Limit)
	fmt.Fprintf(w, "Total: %s\n", st.Total)
	if len(st.Entries) > 0 {
		fmt.Fprintln(w, "Entries:")
		for _, e := range st.Entries {
			suffix := ""
			if e.Terminated {
				suffix = " (terminated)"
			}
			fmt.Fprintf(w, "  - %s %s%s\n", res.Name(e.Account), e.Amount, suffix)
		}
	}
	if len(res.Reverted) > 0 {
		fmt.Fprintf(w, "Reverted: %v\n", res.Reverted)
	}

	fmt.Fprintln(w, "--------------------------------------------------")
	for _, name := range res.SortedNames() {
		acct, ok := res.Accounts[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s: free=%s reserved=%s\n", name, acct.Free, acct.Reserved)
		if info, ok := res.Records[name]; ok {
			fmt.Fprintf(w, "  storage: %d bytes, %d items, deposit=%s (base %s)\n",
				info.StorageBytes, info.StorageItems, info.TotalDeposit(), info.BaseDeposit)
		}
	}
}
