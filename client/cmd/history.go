package cmd

import (
	"fmt"

	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/client/lib"
	"github.com/promptvault/promptvault/internal/database"

	"github.com/spf13/cobra"
)

var numExchanges *int

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Display the most recently stored exchanges in a table",
	GroupID: GROUP_ID_HISTORY,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *numExchanges <= 0 {
			lib.CheckFatalError(fmt.Errorf("-n must be positive, got %d", *numExchanges))
		}
		ctx := hctx.MakeContext()
		entries, err := database.NewStore(hctx.GetConf(ctx)).RetrieveRecent(ctx, *numExchanges)
		lib.CheckFatalError(err)
		lib.DisplayExchanges(cmd.OutOrStdout(), entries)
	},
}

var lastCmd = &cobra.Command{
	Use:     "last",
	Short:   "Print the most recently stored exchange",
	GroupID: GROUP_ID_HISTORY,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := hctx.MakeContext()
		entry, err := database.NewStore(hctx.GetConf(ctx)).RetrieveLast(ctx)
		lib.CheckFatalError(err)
		if entry == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No exchanges have been stored yet")
			return
		}
		lib.DisplayExchange(cmd.OutOrStdout(), entry)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(lastCmd)
	numExchanges = historyCmd.Flags().IntP("number", "n", 25, "Number of exchanges to display")
}
