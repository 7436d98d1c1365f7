package cmd

import (
	"fmt"
	"os"

	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/client/lib"
	"github.com/promptvault/promptvault/internal/database"
	"github.com/promptvault/promptvault/shared/ai"

	"github.com/spf13/cobra"
)

var GROUP_ID_HISTORY string = "group_id:history"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "promptvault",
	Short: "promptvault: Send prompts to a hosted LLM and keep every answer in a database",
	Long: `promptvault reads prompts interactively, sends each one to the configured chat completion
endpoint and stores the prompt along with the cleaned up response in the prompts_responses table.
Type 'exit' to quit.

Configuration is read from the environment (or a .env file in the current directory):
  PROMPTVAULT_API_KEY, PROMPTVAULT_ENDPOINT, PROMPTVAULT_DEPLOYMENT, PROMPTVAULT_PROVIDER,
  PROMPTVAULT_DB_DRIVER, PROMPTVAULT_DB_HOST, PROMPTVAULT_DB_PORT, PROMPTVAULT_DB_USER,
  PROMPTVAULT_DB_PASSWORD, PROMPTVAULT_DB_NAME`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := hctx.MakeContext()
		config := hctx.GetConf(ctx)
		lib.CheckFatalError(config.Validate())
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "\n=== promptvault: LLM Database Integration System ===")
		fmt.Fprintln(out)
		lib.Info(out, "Initializing database connection...")
		store := database.NewStore(config)
		lib.CheckFatalError(store.EnsureSchema(ctx))
		lib.Success(out, "Database initialized successfully!")

		opts := make([]lib.LoopOption, 0)
		stats, err := lib.MakeStatsdClient(config)
		lib.CheckFatalError(err)
		if stats != nil {
			defer stats.Close()
			opts = append(opts, lib.WithStatsd(stats))
		}
		lib.CheckFatalError(lib.RunLoop(ctx, cmd.InOrStdin(), out, ai.NewClient(config), store, opts...))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: GROUP_ID_HISTORY, Title: "Stored Exchanges"})
	rootCmd.Version = "v0." + lib.Version
}
