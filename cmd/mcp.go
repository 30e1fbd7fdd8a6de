package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/logistics-control-tower/agent/agents/orchestrator"
	configx "github.com/tanpawarit/logistics-control-tower/pkg/config"
	logx "github.com/tanpawarit/logistics-control-tower/pkg/logger"
	"github.com/tanpawarit/logistics-control-tower/transport/mcptool"
)

func MCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve submit_query as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs must go elsewhere.
			conf, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			conf.Stderr = true
			logx.Init(*conf)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			di := newContainer(ctx)
			defer func() { _ = di.Shutdown() }()

			orch, err := do.Invoke[*orchestrator.Orchestrator](di)
			if err != nil {
				return err
			}
			srv, err := mcptool.New(orch, Version)
			if err != nil {
				return err
			}
			return srv.Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
