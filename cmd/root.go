// Package cmd holds the tower command line: the HTTP server, one-shot questions
// and the MCP stdio bridge.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/logistics-control-tower/pkg/config"
	logx "github.com/tanpawarit/logistics-control-tower/pkg/logger"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

func RootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "tower",
		Short:         "Logistics control tower query orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configx.SetEnvFile(envFile)
			// Reload the logger so LOG_* values from the env file apply.
			conf, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.Init(*conf)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (defaults to ./.env when present)")

	root.AddCommand(
		ServeCmd(),
		AskCmd(),
		MCPCmd(),
	)
	return root
}

func Execute() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
