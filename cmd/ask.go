package cmd

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/logistics-control-tower/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
)

func AskCmd() *cobra.Command {
	var (
		role    string
		history string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := contractx.ParseRole(role)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			di := newContainer(ctx)
			defer func() { _ = di.Shutdown() }()

			orch, err := do.Invoke[*orchestrator.Orchestrator](di)
			if err != nil {
				return err
			}

			out, err := orch.Submit(ctx, contractx.QueryRequest{
				Query:   strings.Join(args, " "),
				Role:    parsedRole,
				History: conversation.Parse(history),
			})
			if err != nil {
				return err
			}

			return writeResult(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(contractx.RoleGuest), `caller role: "Logistics Manager", "Fleet Operator" or "Guest"`)
	cmd.Flags().StringVar(&history, "history", "", `prior conversation as "User: ..." / "Assistant: ..." lines`)
	return cmd
}

func writeResult(w io.Writer, out contractx.OrchestrationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Response())
}
