package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/geotrack/internal/cli"
	"github.com/cloo-solutions/geotrack/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "geotrack",
		Short: "geotrack CLI - brand visibility in AI answers",
		Long: `geotrack executes tracking prompts against AI models and reports how
visible a brand is in the answers.

Environment variables:
  GEOTRACK_API_TOKEN   Bearer token for the API (optional on open servers)
  GEOTRACK_API_URL     API base URL (default: http://localhost:8080)`,
		Version:      version,
		SilenceUsage: true,
	}

	client.AddGlobalFlags(rootCmd)
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.ExecuteCmd())
	rootCmd.AddCommand(client.PreviewCmd())
	rootCmd.AddCommand(client.RunCmd())
	rootCmd.AddCommand(client.JobCmd())
	rootCmd.AddCommand(client.InspectCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
