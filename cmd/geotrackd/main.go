package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/geotrack/internal/cli"
	"github.com/cloo-solutions/geotrack/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "geotrackd",
		Short: "GEO tracking daemon",
		Long:  "geotrackd runs the brand visibility API server and manages the AI model catalog",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.ModelCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
