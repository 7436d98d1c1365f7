package cmd

import (
	"fmt"
	"strings"

	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/client/lib"
	"github.com/promptvault/promptvault/internal/database"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configFlag *bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View status info including the number of stored exchanges",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := hctx.MakeContext()
		config := hctx.GetConf(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "promptvault: v0.%s\n", lib.Version)
		fmt.Fprintf(out, "Database: %s (driver: %s)\n", config.Database, config.Driver)
		fmt.Fprintf(out, "Deployment: %s (provider: %s)\n", config.Deployment, config.Provider)
		count, err := database.NewStore(config).Count(ctx)
		if err != nil {
			fmt.Fprintf(out, "Stored Exchanges: unknown (%v)\n", err)
		} else {
			fmt.Fprintf(out, "Stored Exchanges: %d\n", count)
		}
		fmt.Fprintf(out, "Commit Hash: %s\n", lib.GitCommit)
		if *configFlag {
			y, err := yaml.Marshal(config.Redacted())
			if err != nil {
				lib.CheckFatalError(fmt.Errorf("failed to marshal config to yaml: %w", err))
			}
			indented := "\t" + strings.ReplaceAll(string(y), "\n", "\n\t")
			fmt.Fprintf(out, "Full Config:\n%s\n", indented)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	configFlag = statusCmd.Flags().Bool("full-config", false, "Display promptvault's full config with secrets redacted")
}
